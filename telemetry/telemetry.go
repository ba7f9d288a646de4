package telemetry

// Datapoint is one reading. Time is in seconds since the device started.
type Datapoint struct {
	Time  float64
	Value float64
}

// Dataseries is one id-keyed sequence of readings within a Dataset. The ID
// is assigned by the device; Name is empty until it has been resolved.
// Data is kept in arrival order.
type Dataseries struct {
	ID   int
	Name string
	Data []Datapoint
}

// Dataset is one telemetry channel, such as temperature, made of one or
// more series.
type Dataset struct {
	ID    int
	Name  string
	Units string
	// Series holds at most one entry per series ID, in first-seen order.
	Series []Dataseries
}

// Index returns the position of the series with the given ID, or -1.
func (d *Dataset) Index(seriesID int) int {
	for i := range d.Series {
		if d.Series[i].ID == seriesID {
			return i
		}
	}
	return -1
}

// Insert appends the point to the series with the given ID, creating the
// series if this is the first time the ID has been seen.
func (d *Dataset) Insert(seriesID int, point Datapoint) {
	i := d.Index(seriesID)
	if i < 0 {
		i = len(d.Series)
		d.Series = append(d.Series, Dataseries{ID: seriesID})
	}
	d.Series[i].Data = append(d.Series[i].Data, point)
}

// Resolved reports whether the dataset and all of its series have names.
func (d *Dataset) Resolved() bool {
	if d.Name == "" {
		return false
	}
	for _, s := range d.Series {
		if s.Name == "" {
			return false
		}
	}
	return true
}

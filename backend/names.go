package backend

import (
	"slices"
	"strconv"

	"git.sr.ht/~whereswaldon/rsip-scope/telemetry"
)

// Resolver maps device-assigned ids to display names.
type Resolver interface {
	Dataset(id int) (name, units string)
	Series(datasetID, seriesID int) string
}

// DatasetNames is one entry of the name table, as written in the
// `[[dataset]]` tables of the configuration file.
type DatasetNames struct {
	ID     int          `toml:"id"`
	Name   string       `toml:"name"`
	Units  string       `toml:"units"`
	Series []SeriesName `toml:"series"`
}

type SeriesName struct {
	ID   int    `toml:"id"`
	Name string `toml:"name"`
}

// DefaultNames is the name table of the reactor controller firmware.
func DefaultNames() []DatasetNames {
	return []DatasetNames{
		{
			ID:     0,
			Name:   "Temperature",
			Units:  "°C",
			Series: []SeriesName{{ID: 0, Name: "Average"}},
		},
		{
			ID:    1,
			Name:  "Flow Rate",
			Units: "sccm",
			// The controller always reports gases in this order.
			Series: []SeriesName{{ID: 0, Name: "H2"}, {ID: 1, Name: "Ar"}, {ID: 2, Name: "CO2"}},
		},
		{
			ID:     2,
			Name:   "Pressure",
			Units:  "kPa",
			Series: []SeriesName{{ID: 0, Name: "Reactor"}},
		},
	}
}

// Names is a Resolver backed by a static table. Ids missing from the
// table resolve to generated names so that their data can still be shown.
type Names struct {
	entries  []DatasetNames
	datasets map[int]int
}

var _ Resolver = (*Names)(nil)

// NewNames builds a name table. Later entries with a duplicate id replace
// earlier ones.
func NewNames(entries []DatasetNames) *Names {
	n := &Names{datasets: make(map[int]int)}
	for _, e := range entries {
		if i, ok := n.datasets[e.ID]; ok {
			n.entries[i] = e
			continue
		}
		n.datasets[e.ID] = len(n.entries)
		n.entries = append(n.entries, e)
	}
	return n
}

func (n *Names) Dataset(id int) (name, units string) {
	if i, ok := n.datasets[id]; ok {
		return n.entries[i].Name, n.entries[i].Units
	}
	return "dataset " + strconv.Itoa(id), ""
}

func (n *Names) Series(datasetID, seriesID int) string {
	if i, ok := n.datasets[datasetID]; ok {
		for _, s := range n.entries[i].Series {
			if s.ID == seriesID {
				return s.Name
			}
		}
	}
	return "series " + strconv.Itoa(seriesID)
}

// Entries returns the table ordered by dataset id.
func (n *Names) Entries() []DatasetNames {
	out := slices.Clone(n.entries)
	slices.SortFunc(out, func(a, b DatasetNames) int {
		return a.ID - b.ID
	})
	return out
}

// Placeholder returns an empty dataset carrying every series the table
// knows for the dataset, named and ordered as in the table. Selecting it
// prepares the charts to receive that dataset's live data.
func (n *Names) Placeholder(id int) telemetry.Dataset {
	ds := telemetry.Dataset{ID: id}
	ds.Name, ds.Units = n.Dataset(id)
	if i, ok := n.datasets[id]; ok {
		for _, s := range n.entries[i].Series {
			ds.Series = append(ds.Series, telemetry.Dataseries{ID: s.ID, Name: s.Name})
		}
	}
	return ds
}

// Resolve fills in the names and units of ds and its series.
func Resolve(r Resolver, ds *telemetry.Dataset) {
	ds.Name, ds.Units = r.Dataset(ds.ID)
	for i := range ds.Series {
		ds.Series[i].Name = r.Series(ds.ID, ds.Series[i].ID)
	}
}

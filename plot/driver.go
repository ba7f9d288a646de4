package plot

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"git.sr.ht/~whereswaldon/rsip-scope/telemetry"
)

// MicroWindow is the width, in seconds, of the recent history shown by the
// micro view.
const MicroWindow = 15

const (
	timeLabel = "Time [s]"
	// macroScale compresses the macro time axis and magnifies the micro one.
	macroScale = 1.4
)

// DefaultPalette returns the series colors, assigned by series position and
// repeated when a dataset has more series than colors.
func DefaultPalette() []string {
	return []string{"#00AAAA", "#FF0000", "#0000FF", "#B8860B"}
}

type Option func(*Driver)

func WithPalette(colors []string) Option {
	return func(d *Driver) {
		if len(colors) > 0 {
			d.palette = slices.Clone(colors)
		}
	}
}

// WithStrength sets the macro view's downsampling strength. NewDriver
// panics when it is negative.
func WithStrength(strength float64) Option {
	return func(d *Driver) { d.strength = strength }
}

func WithMicroWindow(seconds float64) Option {
	return func(d *Driver) { d.window = seconds }
}

// WithInclusiveCutoff keeps micro points lying exactly on the cutoff
// instead of dropping them.
func WithInclusiveCutoff() Option {
	return func(d *Driver) { d.inclusive = true }
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// Driver owns the micro and macro views and renders them to two surfaces.
// It is not safe for concurrent use; all calls must come from the goroutine
// that handles incoming data.
type Driver struct {
	micro, macro               view
	microSurface, macroSurface Surface

	palette   []string
	strength  float64
	window    float64
	inclusive bool
	logger    *zap.Logger

	selected bool
	active   string
}

func NewDriver(micro, macro Surface, opts ...Option) *Driver {
	d := &Driver{
		micro:        view{name: "Micro"},
		macro:        view{name: "Macro"},
		microSurface: micro,
		macroSurface: macro,
		palette:      DefaultPalette(),
		strength:     DefaultStrength,
		window:       MicroWindow,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.strength < 0 {
		panic(ErrInvalidStrength)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// Active returns the name of the selected dataset.
func (d *Driver) Active() string {
	return d.active
}

// Select replaces the content of both views with ds. When showIDs is
// non-nil, only series whose id it contains are visible.
func (d *Driver) Select(ds telemetry.Dataset, showIDs []int) {
	for _, v := range []*view{&d.micro, &d.macro} {
		v.series = make([]*Series, len(ds.Series))
		for i, s := range ds.Series {
			v.series[i] = &Series{
				ID:     s.ID,
				Label:  s.Name,
				Color:  d.palette[i%len(d.palette)],
				Points: definedPoints(nil, toPoints(s.Data)),
				Hidden: showIDs != nil && !slices.Contains(showIDs, s.ID),
			}
		}
		v.xAxis = Axis{Label: timeLabel}
		v.yAxis = Axis{Label: "[" + ds.Units + "]"}
	}
	d.selected = true
	d.active = ds.Name
	d.logger.Debug("selected dataset",
		zap.String("dataset", ds.Name),
		zap.Int("series", len(ds.Series)),
		zap.Ints("show", showIDs),
	)
	d.downsampleMacro()
	d.render()
}

// Update appends the points of ds to both views and rescales them. It
// reports false, changing nothing, unless ds is the selected dataset.
// Series are matched by name; processing stops at the first series the
// views do not carry, since series are only introduced by Select.
func (d *Driver) Update(ds telemetry.Dataset) bool {
	if !d.selected || ds.Name != d.active {
		return false
	}
	for _, s := range ds.Series {
		i := d.macro.index(s.Name)
		if i < 0 {
			d.logger.Debug("series not selected, skipping rest of update",
				zap.String("dataset", ds.Name),
				zap.String("series", s.Name),
			)
			break
		}
		pts := toPoints(s.Data)
		d.macro.series[i].Points = definedPoints(d.macro.series[i].Points, pts)
		d.micro.series[i].Points = definedPoints(d.micro.series[i].Points, pts)
	}
	d.rescale()
	d.render()
	return true
}

// Toggle flips the visibility of the series at index in both views. It
// reports false when there is no such series.
func (d *Driver) Toggle(index int) bool {
	if index < 0 || index >= len(d.micro.series) {
		return false
	}
	hidden := !d.micro.series[index].Hidden
	d.micro.series[index].Hidden = hidden
	d.macro.series[index].Hidden = hidden
	d.render()
	return true
}

// Snapshot returns the current state of both views.
func (d *Driver) Snapshot() (micro, macro Frame) {
	return d.micro.frame(d.active), d.macro.frame(d.active)
}

func (d *Driver) rescale() {
	// The scale follows the newest point of each series, not the history.
	maxX := 0.0
	for _, s := range d.micro.series {
		if len(s.Points) == 0 {
			continue
		}
		maxX = max(maxX, s.Points[len(s.Points)-1].X)
	}
	d.macro.xAxis.Max = math.Ceil(maxX / macroScale)
	d.micro.xAxis.Max = math.Ceil(maxX * macroScale)

	d.downsampleMacro()

	cutoff := math.Ceil(maxX/2)*2 - math.Floor(d.window/2)*2
	d.micro.xAxis.Min = max(cutoff, 0)
	for _, s := range d.micro.series {
		s.Points = slices.DeleteFunc(s.Points, func(p Point) bool {
			if d.inclusive {
				return p.X < cutoff
			}
			return p.X <= cutoff
		})
	}
}

func (d *Driver) downsampleMacro() {
	if err := Downsample(d.macro.series, d.strength); err != nil {
		// Strength is checked in NewDriver.
		panic(err)
	}
}

func (d *Driver) render() {
	micro, macro := d.Snapshot()
	if d.microSurface != nil {
		d.microSurface.Render(micro)
	}
	if d.macroSurface != nil {
		d.macroSurface.Render(macro)
	}
}

func toPoints(data []telemetry.Datapoint) []Point {
	out := make([]Point, len(data))
	for i, dp := range data {
		out[i] = Point{X: dp.Time, Y: dp.Value}
	}
	return out
}

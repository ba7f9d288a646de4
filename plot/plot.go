// Package plot drives a pair of chart views over the same series: a micro
// view showing a short recent window at full resolution and a macro view
// showing the whole downsampled history. Drawing is left to a Surface.
package plot

import (
	"math"
	"slices"
)

type Point struct {
	X, Y float64
}

// defined reports whether both coordinates are finite. NaN and ±Inf
// readings cannot be placed on an axis.
func (p Point) defined() bool {
	return finite(p.X) && finite(p.Y)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type Series struct {
	ID     int
	Label  string
	Color  string
	Points []Point
	Hidden bool
}

func (s *Series) clone() Series {
	out := *s
	out.Points = slices.Clone(s.Points)
	return out
}

// Axis holds a label and suggested bounds. Suggested bounds widen the
// plotted range; data outside them widens it further.
type Axis struct {
	Label    string
	Min, Max float64
}

// Range returns the interval covering the suggested bounds and [lo, hi].
func (a Axis) Range(lo, hi float64) (float64, float64) {
	return min(a.Min, lo), max(a.Max, hi)
}

// Frame is an immutable snapshot of one view, handed to a Surface.
type Frame struct {
	// View is "Micro" or "Macro".
	View   string
	Title  string
	XAxis  Axis
	YAxis  Axis
	Series []Series
}

// Extent returns the data bounds of the visible series. ok is false when
// no visible series has points.
func (f Frame) Extent() (minX, maxX, minY, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range f.Series {
		if s.Hidden {
			continue
		}
		for _, p := range s.Points {
			ok = true
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
	}
	return minX, maxX, minY, maxY, ok
}

// Bounds returns the plotted range of both axes, never empty.
func (f Frame) Bounds() (minX, maxX, minY, maxY float64) {
	lx, hx, ly, hy, ok := f.Extent()
	if !ok {
		lx, hx, ly, hy = f.XAxis.Min, f.XAxis.Max, f.YAxis.Min, f.YAxis.Max
	}
	minX, maxX = f.XAxis.Range(lx, hx)
	minY, maxY = f.YAxis.Range(ly, hy)
	if maxX <= minX {
		maxX = minX + 1
	}
	if maxY <= minY {
		maxY = minY + 1
	}
	return minX, maxX, minY, maxY
}

// Surface draws view snapshots. Render may be called redundantly.
type Surface interface {
	Render(Frame)
}

// view is the mutable state behind one chart.
type view struct {
	name   string
	xAxis  Axis
	yAxis  Axis
	series []*Series
}

func (v *view) index(label string) int {
	return slices.IndexFunc(v.series, func(s *Series) bool {
		return s.Label == label
	})
}

func (v *view) frame(title string) Frame {
	f := Frame{
		View:   v.name,
		Title:  title,
		XAxis:  v.xAxis,
		YAxis:  v.yAxis,
		Series: make([]Series, len(v.series)),
	}
	for i, s := range v.series {
		f.Series[i] = s.clone()
	}
	return f
}

func definedPoints(dst []Point, pts []Point) []Point {
	for _, p := range pts {
		if p.defined() {
			dst = append(dst, p)
		}
	}
	return dst
}

package plot

import (
	"errors"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNothingToDraw = errors.New("plot: no visible series with data")

// PNGSurface keeps the latest frame it was given and renders it to PNG on
// demand.
type PNGSurface struct {
	Width, Height int

	frame Frame
	ok    bool
}

var _ Surface = (*PNGSurface)(nil)

func NewPNGSurface(width, height int) *PNGSurface {
	return &PNGSurface{Width: width, Height: height}
}

func (p *PNGSurface) Render(f Frame) {
	p.frame = f
	p.ok = true
}

// WritePNG encodes the latest frame. Hidden series are left out.
func (p *PNGSurface) WritePNG(w io.Writer) error {
	if !p.ok {
		return ErrNothingToDraw
	}
	f := p.frame
	var series []chart.Series
	for _, s := range f.Series {
		if s.Hidden || len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, 0, len(s.Points)+1)
		ys := make([]float64, 0, len(s.Points)+1)
		for _, pt := range s.Points {
			xs = append(xs, pt.X)
			ys = append(ys, pt.Y)
		}
		if len(xs) == 1 {
			// go-chart needs two points to draw a line.
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		color := hexColor(s.Color)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 1,
				DotColor:    color,
				DotWidth:    1,
			},
		})
	}
	if len(series) == 0 {
		return ErrNothingToDraw
	}
	minX, maxX, minY, maxY := f.Bounds()
	ch := chart.Chart{
		Title:      strings.TrimSpace(f.Title + " " + f.View),
		Width:      p.Width,
		Height:     p.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  f.XAxis.Label,
			Range: &chart.ContinuousRange{Min: minX, Max: maxX},
		},
		YAxis: chart.YAxis{
			Name:  f.YAxis.Label,
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed rendering %s view: %w", f.View, err)
	}
	return nil
}

func hexColor(hex string) drawing.Color {
	switch len(strings.TrimPrefix(hex, "#")) {
	case 3, 6:
		return drawing.ColorFromHex(hex)
	default:
		return chart.ColorAlternateGray
	}
}

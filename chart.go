package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/rsip-scope/plot"
)

var pauseIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPause)
	return icon
}()

var playIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPlayArrow)
	return icon
}()

const (
	// gridLines is the number of horizontal divisions drawn behind a plot.
	gridLines   = 5
	gutterWidth = unit.Dp(48)
)

// ChartView draws the frames a plot.Driver renders into it.
type ChartView struct {
	frame plot.Frame
	// hover gesture state
	pos       f32.Point
	isHovered bool
}

var _ plot.Surface = (*ChartView)(nil)

// Render stores the frame for the next layout. The driver calls it on the
// same goroutine that lays out the window.
func (c *ChartView) Render(f plot.Frame) {
	c.frame = f
}

func (c *ChartView) Frame() plot.Frame {
	return c.frame
}

func (c *ChartView) Update(gtx C) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: c,
			Kinds:  pointer.Enter | pointer.Leave | pointer.Move,
		})
		if !ok {
			break
		}
		switch ev := ev.(type) {
		case pointer.Event:
			switch ev.Kind {
			case pointer.Enter:
				c.isHovered = true
				c.pos = ev.Position
			case pointer.Leave, pointer.Cancel:
				c.isHovered = false
			case pointer.Move:
				c.pos = ev.Position
			}
		}
	}
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func (c *ChartView) Layout(gtx C, th *material.Theme) D {
	c.Update(gtx)
	minX, maxX, minY, maxY := c.frame.Bounds()

	viewLabel := material.Body2(th, c.frame.View)
	viewLabel.Color.A = 150
	yAxisLabel := material.Body2(th, c.frame.YAxis.Label)
	xAxisLabel := material.Body2(th, c.frame.XAxis.Label)
	xAxisLabel.MaxLines = 1
	xAxisLabel.Alignment = text.Middle
	minYLabel := material.Caption(th, formatTick(minY))
	maxYLabel := material.Caption(th, formatTick(maxY))
	minXLabel := material.Caption(th, formatTick(minX))
	maxXLabel := material.Caption(th, formatTick(maxX))

	// Reserve a fixed gutter so that both views' plots line up.
	gutter := gtx.Dp(gutterWidth)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Alignment: layout.Baseline, Spacing: layout.SpaceBetween}.Layout(gtx,
				layout.Rigid(viewLabel.Layout),
				layout.Rigid(yAxisLabel.Layout),
			)
		}),
		layout.Flexed(1, func(gtx C) D {
			return layout.Flex{}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					gtx.Constraints.Min.X = gutter
					gtx.Constraints.Max.X = gutter
					return layout.Flex{Axis: layout.Vertical, Spacing: layout.SpaceBetween}.Layout(gtx,
						layout.Rigid(maxYLabel.Layout),
						layout.Flexed(1, func(gtx C) D {
							return D{Size: gtx.Constraints.Min}
						}),
						layout.Rigid(minYLabel.Layout),
					)
				}),
				layout.Flexed(1, func(gtx C) D {
					return c.layoutPlot(gtx, th, minX, maxX, minY, maxY)
				}),
			)
		}),
		layout.Rigid(func(gtx C) D {
			return layout.Inset{Left: gutterWidth}.Layout(gtx, func(gtx C) D {
				return layout.Flex{Alignment: layout.Baseline}.Layout(gtx,
					layout.Rigid(minXLabel.Layout),
					layout.Flexed(1, xAxisLabel.Layout),
					layout.Rigid(maxXLabel.Layout),
				)
			})
		}),
	)
}

func (c *ChartView) layoutPlot(gtx C, th *material.Theme, minX, maxX, minY, maxY float64) D {
	size := gtx.Constraints.Max
	if size.X <= 0 || size.Y <= 0 {
		return D{Size: size}
	}
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, c)

	scaleX := float32(size.X) / float32(maxX-minX)
	scaleY := float32(size.Y) / float32(maxY-minY)
	toPx := func(p plot.Point) f32.Point {
		return f32.Pt(
			float32(p.X-minX)*scaleX,
			float32(size.Y)-float32(p.Y-minY)*scaleY,
		)
	}

	c.layoutGrid(gtx, size)
	lineWidth := float32(gtx.Dp(1))
	for _, s := range c.frame.Series {
		if s.Hidden || len(s.Points) == 0 {
			continue
		}
		col := parseColor(s.Color)
		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(toPx(s.Points[0]))
		for _, pt := range s.Points[1:] {
			p.LineTo(toPx(pt))
		}
		paint.FillShape(gtx.Ops, col, clip.Stroke{Path: p.End(), Width: lineWidth}.Op())
		// Mark the newest reading so a single point is still visible.
		last := toPx(s.Points[len(s.Points)-1])
		r := float32(gtx.Dp(2))
		dot := image.Rect(int(last.X-r), int(last.Y-r), int(ceil(last.X+r)), int(ceil(last.Y+r)))
		paint.FillShape(gtx.Ops, col, clip.Ellipse{Min: dot.Min, Max: dot.Max}.Op(gtx.Ops))
	}

	if c.isHovered {
		c.layoutHover(gtx, th, size, minX+float64(c.pos.X/scaleX))
	}
	return D{Size: size}
}

func (c *ChartView) layoutGrid(gtx C, size image.Point) {
	oneDp := gtx.Dp(1)
	for gridNum := 0; gridNum <= gridLines; gridNum++ {
		yT := size.Y - gridNum*size.Y/gridLines
		a := uint8(50)
		if gridNum == 0 {
			a = 100
		}
		paint.FillShape(gtx.Ops, color.NRGBA{A: a}, clip.Rect{
			Min: image.Point{Y: min(yT, size.Y-oneDp)},
			Max: image.Point{X: size.X, Y: min(yT, size.Y-oneDp) + oneDp},
		}.Op())
	}
}

// layoutHover draws a cursor line with the time under it.
func (c *ChartView) layoutHover(gtx C, th *material.Theme, size image.Point, t float64) {
	xR := int(ceil(c.pos.X))
	xL := xR - gtx.Dp(1)
	paint.FillShape(gtx.Ops, color.NRGBA{A: 255}, clip.Rect{
		Min: image.Point{X: xL},
		Max: image.Point{X: xR, Y: size.Y},
	}.Op())

	gtx.Constraints.Min = image.Point{}
	label := material.Caption(th, fmt.Sprintf("t = %.2f s", t))
	dims, call := rec(gtx, func(gtx C) D {
		return layout.Background{}.Layout(gtx,
			func(gtx C) D {
				paint.FillShape(gtx.Ops, color.NRGBA{R: 255, G: 255, B: 255, A: 150}, clip.Rect{Max: gtx.Constraints.Min}.Op())
				return D{Size: gtx.Constraints.Min}
			},
			func(gtx C) D {
				return layout.UniformInset(4).Layout(gtx, label.Layout)
			},
		)
	})
	pos := image.Point{X: min(xR, size.X-dims.Size.X)}
	if xR > size.X/2 {
		pos.X = max(xL-dims.Size.X, 0)
	}
	defer op.Offset(pos).Push(gtx.Ops).Pop()
	call.Add(gtx.Ops)
}

func rec(gtx C, w layout.Widget) (D, op.CallOp) {
	macro := op.Record(gtx.Ops)
	dims := w(gtx)
	call := macro.Stop()
	return dims, call
}

func ceil[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Ceil(float64(a)))
}

// Legend lists the series of a view and toggles their visibility when a
// row is clicked.
type Legend struct {
	table component.GridState
	rows  []widget.Bool
}

// Update applies clicks from the previous frame. toggle is called with the
// index of each clicked series.
func (l *Legend) Update(gtx C, series []plot.Series, toggle func(int) bool) {
	for len(l.rows) < len(series) {
		l.rows = append(l.rows, widget.Bool{})
	}
	for i := range series {
		l.rows[i].Value = !series[i].Hidden
		if l.rows[i].Update(gtx) {
			toggle(i)
		}
	}
}

func (l *Legend) Layout(gtx C, th *material.Theme, series []plot.Series, units string) D {
	table := component.Table(th, &l.table)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	valueColWidth := gtx.Dp(120)
	nameColWidth := gtx.Constraints.Max.X - colorColWidth - 2*valueColWidth - gtx.Dp(table.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(20)
	const (
		colorCol = iota
		seriesNameCol
		latestCol
		pointsCol
		numCols
	)
	return table.Layout(gtx, len(series), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			var size int
			switch index {
			case colorCol:
				size = colorColWidth
			case seriesNameCol:
				size = nameColWidth
			default:
				size = valueColWidth
			}
			return max(min(size, constraint), 0)
		},
		func(gtx C, index int) D {
			var l material.LabelStyle
			switch index {
			case colorCol:
				l = material.Body1(th, "Show")
			case seriesNameCol:
				l = material.Body1(th, "Series")
				l.Alignment = text.Middle
			case latestCol:
				l = material.Body1(th, "Latest "+units)
				l.Alignment = text.End
			case pointsCol:
				l = material.Body1(th, "Points")
				l.Alignment = text.End
			}
			l.Color = th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, l.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			if row >= len(l.rows) {
				return D{Size: gtx.Constraints.Min}
			}
			s := series[row]
			fullColor := parseColor(s.Color)
			disabledAlpha := uint8(100)
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				var lbl material.LabelStyle
				switch col {
				case colorCol:
					return l.rows[row].Layout(gtx, func(gtx C) D {
						return layout.Center.Layout(gtx, func(gtx C) D {
							sideLen := gtx.Dp(10)
							sz := image.Pt(sideLen, sideLen)
							if s.Hidden {
								fullColor.A = disabledAlpha
							}
							paint.FillShape(gtx.Ops, fullColor, clip.Rect{Max: sz}.Op())
							return D{Size: sz}
						})
					})
				case seriesNameCol:
					lbl = material.Body2(th, s.Label)
				case latestCol:
					latest := "-"
					if n := len(s.Points); n > 0 {
						latest = strconv.FormatFloat(s.Points[n-1].Y, 'f', 2, 64)
					}
					lbl = material.Body2(th, latest)
					lbl.Alignment = text.End
				case pointsCol:
					lbl = material.Body2(th, strconv.Itoa(len(s.Points)))
					lbl.Alignment = text.End
				default:
					return D{Size: gtx.Constraints.Max}
				}
				if s.Hidden {
					lbl.Color.A = disabledAlpha
				}
				return lbl.Layout(gtx)
			})
			if row&1 != 0 {
				stripe := fullColor
				stripe.A = 30
				paint.FillShape(gtx.Ops, stripe, clip.Rect{Max: gtx.Constraints.Max}.Op())
			}
			return dims
		})
}

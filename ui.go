package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"go.uber.org/zap"

	"git.sr.ht/~whereswaldon/rsip-scope/backend"
	"git.sr.ht/~whereswaldon/rsip-scope/plot"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

// maxMessages bounds the status log shown under the charts.
const maxMessages = 6

type datasetButton struct {
	id   int
	name string
	btn  widget.Clickable
}

// capturePick is the outcome of a file dialog, delivered to the window
// goroutine.
type capturePick struct {
	name string
	file io.ReadCloser
	err  error
}

// UI is responsible for holding the state of and drawing the top-level UI.
// All of its methods run on the window goroutine, which is also the
// goroutine draining the bundle's inputs.
type UI struct {
	th     *material.Theme
	win    *app.Window
	expl   *explorer.Explorer
	bundle *backend.Bundle
	driver *plot.Driver
	logger *zap.Logger
	cfg    backend.Config
	ctx    context.Context

	micro, macro *ChartView
	legend       Legend

	status    backend.StatusEvent
	messages  []string
	recording string
	choosing  bool
	picks     chan capturePick

	datasets   []*datasetButton
	connectBtn widget.Clickable
	openBtn    widget.Clickable
	simBtn     widget.Clickable
	recordBtn  widget.Clickable
	exportBtn  widget.Clickable
}

func NewUI(ctx context.Context, win *app.Window, expl *explorer.Explorer, bundle *backend.Bundle, cfg backend.Config, logger *zap.Logger) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	ui := &UI{
		th:     th,
		win:    win,
		expl:   expl,
		bundle: bundle,
		logger: logger,
		cfg:    cfg,
		ctx:    ctx,
		micro:  &ChartView{},
		macro:  &ChartView{},
		picks:  make(chan capturePick, 1),
		status: backend.StatusEvent{Status: backend.StatusDisconnected},
	}
	ui.driver = plot.NewDriver(ui.micro, ui.macro,
		plot.WithPalette(cfg.Plot.Palette),
		plot.WithStrength(cfg.Plot.Strength),
		plot.WithMicroWindow(cfg.Plot.MicroWindow),
		plot.WithLogger(logger.Named("plot")),
	)
	for _, entry := range bundle.Names.Entries() {
		ui.datasets = append(ui.datasets, &datasetButton{id: entry.ID, name: entry.Name})
	}
	bundle.Bus.BindStatus(ui.onStatus)
	bundle.Bus.BindData(chartBinding(ui.driver, bundle.Names, cfg.Plot.ShowIDs()))
	return ui
}

// Start selects the configured dataset and connects the configured link.
func (ui *UI) Start() {
	if ui.cfg.Plot.Dataset >= 0 {
		ui.selectDataset(ui.cfg.Plot.Dataset)
	}
	if ui.cfg.Link.Record != "" {
		ui.toggleRecording()
	}
	if err := ui.bundle.Use(ui.bundle.LinkFor(ui.cfg.Link)); err != nil {
		ui.logger.Info("link not ready", zap.Error(err))
		return
	}
	ui.bundle.Connect()
}

// Picks delivers the results of file dialogs. The window loop passes them
// to HandlePick.
func (ui *UI) Picks() <-chan capturePick {
	return ui.picks
}

func (ui *UI) HandlePick(p capturePick) {
	ui.choosing = false
	if p.err != nil {
		if !errors.Is(p.err, explorer.ErrUserDecline) {
			ui.logf("failed opening capture: %v", p.err)
		}
		return
	}
	ui.replay(p.name, p.file)
}

func (ui *UI) replay(name string, r io.ReadCloser) {
	if err := ui.bundle.Use(ui.bundle.ReaderLink(name, r)); err != nil {
		ui.logf("failed attaching %s: %v", name, err)
		return
	}
	ui.bundle.Connect()
}

func (ui *UI) onStatus(ev backend.StatusEvent) error {
	if ev.Status != backend.StatusError {
		ui.status = ev
	}
	ui.logf("%s", ev)
	return nil
}

func (ui *UI) selectDataset(id int) {
	ui.driver.Select(ui.bundle.Names.Placeholder(id), ui.cfg.Plot.ShowIDs())
}

func (ui *UI) logf(format string, args ...any) {
	msg := time.Now().Format("15:04:05 ") + fmt.Sprintf(format, args...)
	ui.messages = append(ui.messages, msg)
	if over := len(ui.messages) - maxMessages; over > 0 {
		ui.messages = ui.messages[over:]
	}
}

func (ui *UI) toggleRecording() {
	if ui.recording != "" {
		if err := ui.bundle.StopRecording(); err != nil {
			ui.logf("failed finishing recording: %v", err)
		}
		ui.logf("saved %s", ui.recording)
		ui.recording = ""
		return
	}
	dir := ui.cfg.Link.Record
	if dir == "" {
		dir = "."
	}
	path, err := ui.bundle.Record(dir)
	if err != nil {
		ui.logf("failed starting recording: %v", err)
		return
	}
	ui.recording = path
	ui.logf("recording to %s", path)
}

func (ui *UI) launchSimulator() {
	out, err := backend.LaunchSimulator(ui.ctx, ui.logger)
	if err != nil {
		ui.logf("failed launching simulator: %v", err)
		return
	}
	ui.replay(backend.SimulatorName, out)
}

func (ui *UI) export() {
	prefix := "rsip-scope-" + time.Now().Format("20060102-150405")
	micro, macro := ui.driver.Snapshot()
	paths, err := exportPNG(prefix, micro, macro)
	if err != nil {
		ui.logf("export failed: %v", err)
		return
	}
	ui.logf("exported %v", paths)
}

// Update the state of the UI in response to input from the previous frame.
func (ui *UI) Update(gtx C) {
	if ui.connectBtn.Clicked(gtx) {
		if link := ui.bundle.Link(); link != nil && link.Connected() {
			if err := ui.bundle.Disconnect(); err != nil {
				ui.logf("failed disconnecting: %v", err)
			}
		} else if !ui.bundle.Connect() {
			ui.logf("no device to connect to")
		}
	}
	if !ui.choosing && ui.openBtn.Clicked(gtx) {
		ui.choosing = true
		go func() {
			file, err := ui.expl.ChooseFile()
			name := "capture"
			if f, ok := file.(interface{ Name() string }); ok {
				name = f.Name()
			}
			ui.picks <- capturePick{name: name, file: file, err: err}
			ui.win.Invalidate()
		}()
	}
	if ui.simBtn.Clicked(gtx) {
		ui.launchSimulator()
	}
	if ui.recordBtn.Clicked(gtx) {
		ui.toggleRecording()
	}
	if ui.exportBtn.Clicked(gtx) {
		ui.export()
	}
	for _, ds := range ui.datasets {
		if ds.btn.Clicked(gtx) {
			ui.selectDataset(ds.id)
		}
	}
	ui.legend.Update(gtx, ui.micro.Frame().Series, ui.driver.Toggle)
}

func (ui *UI) layoutToolbar(gtx C) D {
	connected := false
	if link := ui.bundle.Link(); link != nil {
		connected = link.Connected()
	}
	icon := playIcon
	if connected {
		icon = pauseIcon
	}
	recordLabel := "Record"
	if ui.recording != "" {
		recordLabel = "Stop recording"
	}
	children := []layout.FlexChild{
		layout.Rigid(func(gtx C) D {
			return material.IconButton(ui.th, &ui.connectBtn, icon, "Connect").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			return layout.UniformInset(8).Layout(gtx, material.Body1(ui.th, ui.status.Status.String()).Layout)
		}),
		layout.Rigid(func(gtx C) D {
			if ui.choosing {
				gtx = gtx.Disabled()
			}
			return material.Button(ui.th, &ui.openBtn, "Open Capture").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: 4}.Layout),
		layout.Rigid(material.Button(ui.th, &ui.simBtn, "Simulate").Layout),
		layout.Rigid(layout.Spacer{Width: 4}.Layout),
		layout.Rigid(material.Button(ui.th, &ui.recordBtn, recordLabel).Layout),
		layout.Rigid(layout.Spacer{Width: 4}.Layout),
		layout.Rigid(material.Button(ui.th, &ui.exportBtn, "Export PNG").Layout),
		layout.Flexed(1, func(gtx C) D {
			return D{Size: image.Point{X: gtx.Constraints.Min.X}}
		}),
	}
	for _, ds := range ui.datasets {
		ds := ds
		children = append(children, layout.Rigid(func(gtx C) D {
			return layout.Inset{Left: 4}.Layout(gtx, func(gtx C) D {
				b := material.Button(ui.th, &ds.btn, ds.name)
				if ds.name != ui.driver.Active() {
					b.Background.A = 120
				}
				return b.Layout(gtx)
			})
		}))
	}
	return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
		return layout.Flex{Alignment: layout.Middle}.Layout(gtx, children...)
	})
}

func (ui *UI) layoutMessages(gtx C) D {
	children := make([]layout.FlexChild, 0, len(ui.messages))
	for _, msg := range ui.messages {
		l := material.Caption(ui.th, msg)
		l.MaxLines = 1
		children = append(children, layout.Rigid(l.Layout))
	}
	return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
	})
}

func (ui *UI) layoutCharts(gtx C) D {
	title := ui.driver.Active()
	if title == "" {
		title = "Waiting for data"
	}
	units := ui.micro.Frame().YAxis.Label
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			l := material.H6(ui.th, title)
			l.Alignment = text.Middle
			return l.Layout(gtx)
		}),
		layout.Flexed(1, func(gtx C) D {
			return layout.UniformInset(8).Layout(gtx, func(gtx C) D {
				return ui.micro.Layout(gtx, ui.th)
			})
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, gtx.Dp(120))
			return ui.legend.Layout(gtx, ui.th, ui.micro.Frame().Series, units)
		}),
		layout.Flexed(1, func(gtx C) D {
			return layout.UniformInset(8).Layout(gtx, func(gtx C) D {
				return ui.macro.Layout(gtx, ui.th)
			})
		}),
	)
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(ui.layoutToolbar),
		layout.Rigid(func(gtx C) D {
			size := image.Pt(gtx.Constraints.Max.X, gtx.Dp(1))
			paint.FillShape(gtx.Ops, color.NRGBA{A: 100}, clip.Rect{Max: size}.Op())
			return D{Size: size}
		}),
		layout.Flexed(1, ui.layoutCharts),
		layout.Rigid(ui.layoutMessages),
	)
}

// Close releases the link and any recording.
func (ui *UI) Close() {
	if err := ui.bundle.Close(); err != nil {
		ui.logger.Warn("failed closing link", zap.Error(err))
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/x/explorer"
	"go.uber.org/zap"

	"git.sr.ht/~whereswaldon/rsip-scope/backend"
)

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	port := flag.String("port", "", "serial port the reactor controller is attached to")
	baud := flag.Uint("baud", 0, "serial baud rate")
	capture := flag.String("capture", "", "replay RSIP messages from this file, or - for stdin")
	follow := flag.Bool("follow", true, "keep reading the capture as it grows")
	record := flag.String("record", "", "save received messages to a new capture in this directory")
	export := flag.String("export", "", "replay -capture without a window and write <prefix>-micro.png and <prefix>-macro.png")
	dataset := flag.Int("dataset", -1, "id of the dataset to show at startup (-1: first received)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	logFormat := flag.String("log-format", "", "console or json")
	flag.Parse()

	cfg, err := backend.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Link.Port = *port
		case "baud":
			cfg.Link.Baud = *baud
		case "capture":
			cfg.Link.Capture = *capture
		case "follow":
			cfg.Link.Follow = *follow
		case "record":
			cfg.Link.Record = *record
		case "dataset":
			cfg.Plot.Dataset = *dataset
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logger, err := backend.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed building logger: %v", err)
	}
	defer logger.Sync()

	if *export != "" {
		if err := exportMain(cfg, *export, logger); err != nil {
			logger.Fatal("export failed", zap.Error(err))
		}
		return
	}

	go func() {
		w := app.NewWindow(app.Title("RSIP Scope"), app.Size(unit.Dp(1280), unit.Dp(800)))
		if err := loop(w, cfg, logger); err != nil {
			logger.Fatal("window loop failed", zap.Error(err))
		}
		os.Exit(0)
	}()
	app.Main()
}

// loop runs the window. Window events and link inputs are handled on this
// one goroutine, so the chart driver and event bus are never shared.
func loop(w *app.Window, cfg backend.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expl := explorer.NewExplorer(w)
	bundle := backend.NewBundle(cfg, logger)
	ui := NewUI(ctx, w, expl, bundle, cfg, logger)
	defer ui.Close()
	ui.Start()

	// NextEvent blocks, so it runs on its own goroutine. Each event is
	// acknowledged before the next is read.
	events := make(chan event.Event)
	acks := make(chan struct{})
	go func() {
		for {
			ev := w.NextEvent()
			events <- ev
			<-acks
			if _, ok := ev.(app.DestroyEvent); ok {
				return
			}
		}
	}()

	var ops op.Ops
	for {
		select {
		case in := <-bundle.Inputs:
			bundle.Handle(in)
			w.Invalidate()
		case pick := <-ui.Picks():
			ui.HandlePick(pick)
			w.Invalidate()
		case ev := <-events:
			expl.ListenEvents(ev)
			switch ev := ev.(type) {
			case app.DestroyEvent:
				acks <- struct{}{}
				return ev.Err
			case app.FrameEvent:
				gtx := app.NewContext(&ops, ev)
				ui.Layout(gtx)
				ev.Frame(gtx.Ops)
			}
			acks <- struct{}{}
		}
	}
}

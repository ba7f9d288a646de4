package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"git.sr.ht/~whereswaldon/rsip-scope/backend"
	"git.sr.ht/~whereswaldon/rsip-scope/plot"
	"git.sr.ht/~whereswaldon/rsip-scope/telemetry"
)

const (
	exportWidth  = 1280
	exportHeight = 480
)

// chartBinding feeds published datasets to driver. Until a dataset is
// selected, the first one to arrive is selected, carrying every series the
// name table knows for it.
func chartBinding(driver *plot.Driver, names *backend.Names, showIDs []int) backend.DataBinding {
	return func(ds telemetry.Dataset) error {
		if driver.Active() == "" {
			ph := names.Placeholder(ds.ID)
			if len(ph.Series) == 0 {
				// Nothing is known about this dataset; chart what it carries.
				driver.Select(ds, showIDs)
				return nil
			}
			driver.Select(ph, showIDs)
		}
		driver.Update(ds)
		return nil
	}
}

// exportPNG writes one PNG per frame, named <prefix>-<view>.png.
func exportPNG(prefix string, frames ...plot.Frame) ([]string, error) {
	var paths []string
	for _, f := range frames {
		s := plot.NewPNGSurface(exportWidth, exportHeight)
		s.Render(f)
		path := prefix + "-" + strings.ToLower(f.View) + ".png"
		file, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("failed creating %q: %w", path, err)
		}
		err = errors.Join(s.WritePNG(file), file.Close())
		if err != nil {
			return paths, fmt.Errorf("failed writing %q: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// exportMain replays the configured capture without a window and writes
// the final state of both views as PNG files.
func exportMain(cfg backend.Config, prefix string, logger *zap.Logger) error {
	if cfg.Link.Capture == "" {
		return errors.New("export needs a capture to replay")
	}
	bundle := backend.NewBundle(cfg, logger)
	defer bundle.Close()
	driver := plot.NewDriver(nil, nil,
		plot.WithPalette(cfg.Plot.Palette),
		plot.WithStrength(cfg.Plot.Strength),
		plot.WithMicroWindow(cfg.Plot.MicroWindow),
		plot.WithLogger(logger.Named("plot")),
	)
	if cfg.Plot.Dataset >= 0 {
		driver.Select(bundle.Names.Placeholder(cfg.Plot.Dataset), cfg.Plot.ShowIDs())
	}
	bundle.Bus.BindData(chartBinding(driver, bundle.Names, cfg.Plot.ShowIDs()))

	link := bundle.LinkFor(backend.LinkConfig{Capture: cfg.Link.Capture})
	if err := bundle.Use(link); err != nil {
		return err
	}
	if !bundle.Connect() {
		return fmt.Errorf("failed opening capture %q", cfg.Link.Capture)
	}
	for link.Connected() {
		bundle.Handle(<-bundle.Inputs)
	}
	decoded, dropped := bundle.Receiver.Stats()
	logger.Info("replayed capture",
		zap.String("capture", cfg.Link.Capture),
		zap.Int("decoded", decoded),
		zap.Int("dropped", dropped),
	)

	micro, macro := driver.Snapshot()
	paths, err := exportPNG(prefix, micro, macro)
	if err != nil {
		return err
	}
	logger.Info("exported charts", zap.Strings("files", paths))
	return nil
}

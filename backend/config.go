package backend

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"git.sr.ht/~whereswaldon/rsip-scope/plot"
)

type Config struct {
	Link     LinkConfig     `toml:"link"`
	Plot     PlotConfig     `toml:"plot"`
	Log      LogConfig      `toml:"log"`
	Datasets []DatasetNames `toml:"dataset"`
}

type LinkConfig struct {
	// Port is the serial device path. It takes precedence over Capture.
	Port string `toml:"port"`
	Baud uint   `toml:"baud"`
	// Capture is a file of recorded RSIP messages, or "-" for stdin.
	Capture string `toml:"capture"`
	// Follow keeps reading a capture as it grows.
	Follow bool `toml:"follow"`
	// Record is a directory to save received messages into, as a capture
	// that can be replayed later. Empty disables recording.
	Record string `toml:"record"`
}

type PlotConfig struct {
	MicroWindow float64  `toml:"micro_window"`
	Strength    float64  `toml:"strength"`
	Palette     []string `toml:"palette"`
	// Dataset is the id of the dataset selected at startup. A negative id
	// selects whichever dataset arrives first.
	Dataset int `toml:"dataset"`
	// Show limits the series visible at startup to these ids when non-empty.
	Show []int `toml:"show"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func DefaultConfig() Config {
	return Config{
		Link: LinkConfig{
			Baud:   9600,
			Follow: true,
		},
		Plot: PlotConfig{
			MicroWindow: plot.MicroWindow,
			Strength:    plot.DefaultStrength,
			Palette:     plot.DefaultPalette(),
			Dataset:     -1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Datasets: DefaultNames(),
	}
}

// LoadConfig reads a TOML configuration file over the defaults. A file
// that declares any [[dataset]] table replaces the default name table.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	var file Config
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return cfg, fmt.Errorf("failed loading config %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config %q: unknown keys %v", path, undecoded)
	}
	cfg.merge(file, md)
	return cfg, cfg.Validate()
}

func (c *Config) merge(file Config, md toml.MetaData) {
	if md.IsDefined("link", "port") {
		c.Link.Port = file.Link.Port
	}
	if md.IsDefined("link", "baud") {
		c.Link.Baud = file.Link.Baud
	}
	if md.IsDefined("link", "capture") {
		c.Link.Capture = file.Link.Capture
	}
	if md.IsDefined("link", "follow") {
		c.Link.Follow = file.Link.Follow
	}
	if md.IsDefined("link", "record") {
		c.Link.Record = file.Link.Record
	}
	if md.IsDefined("plot", "micro_window") {
		c.Plot.MicroWindow = file.Plot.MicroWindow
	}
	if md.IsDefined("plot", "strength") {
		c.Plot.Strength = file.Plot.Strength
	}
	if md.IsDefined("plot", "palette") {
		c.Plot.Palette = file.Plot.Palette
	}
	if md.IsDefined("plot", "dataset") {
		c.Plot.Dataset = file.Plot.Dataset
	}
	if md.IsDefined("plot", "show") {
		c.Plot.Show = file.Plot.Show
	}
	if md.IsDefined("log", "level") {
		c.Log.Level = file.Log.Level
	}
	if md.IsDefined("log", "format") {
		c.Log.Format = file.Log.Format
	}
	if md.IsDefined("dataset") {
		c.Datasets = file.Datasets
	}
}

// Validate rejects configurations the chart driver cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Plot.Strength < 0 {
		errs = append(errs, fmt.Errorf("plot.strength must not be negative, got %v", c.Plot.Strength))
	}
	if c.Plot.MicroWindow <= 0 {
		errs = append(errs, fmt.Errorf("plot.micro_window must be positive, got %v", c.Plot.MicroWindow))
	}
	if len(c.Plot.Palette) == 0 {
		errs = append(errs, errors.New("plot.palette must not be empty"))
	}
	if c.Link.Port != "" && c.Link.Baud == 0 {
		errs = append(errs, errors.New("link.baud must be set for a serial port"))
	}
	return errors.Join(errs...)
}

// ShowIDs returns the ids to pass to the chart driver's Select, or nil to
// show every series.
func (p PlotConfig) ShowIDs() []int {
	if len(p.Show) == 0 {
		return nil
	}
	return p.Show
}

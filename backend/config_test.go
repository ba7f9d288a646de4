package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/rsip-scope/plot"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rsip-scope.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, float64(plot.MicroWindow), cfg.Plot.MicroWindow)
	assert.Equal(t, plot.DefaultStrength, cfg.Plot.Strength)
	assert.Nil(t, cfg.Plot.ShowIDs())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
[link]
port = "/dev/ttyACM0"
baud = 115200

[plot]
strength = 0.5
show = [0, 2]

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Link.Port)
	assert.Equal(t, uint(115200), cfg.Link.Baud)
	assert.True(t, cfg.Link.Follow, "unset keys keep their defaults")
	assert.Equal(t, 0.5, cfg.Plot.Strength)
	assert.Equal(t, float64(plot.MicroWindow), cfg.Plot.MicroWindow)
	assert.Equal(t, []int{0, 2}, cfg.Plot.ShowIDs())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, DefaultNames(), cfg.Datasets)
}

func TestLoadConfigReplacesNameTable(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
[[dataset]]
id = 3
name = "Humidity"
units = "%"

  [[dataset.series]]
  id = 0
  name = "Inlet"

  [[dataset.series]]
  id = 1
  name = "Outlet"
`))
	require.NoError(t, err)
	require.Len(t, cfg.Datasets, 1)
	names := NewNames(cfg.Datasets)
	name, units := names.Dataset(3)
	assert.Equal(t, "Humidity", name)
	assert.Equal(t, "%", units)
	assert.Equal(t, "Outlet", names.Series(3, 1))
	name, _ = names.Dataset(0)
	assert.Equal(t, "dataset 0", name)
}

func TestLoadConfigErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		contents string
		contains string
	}{
		{name: "syntax", contents: "[plot\n", contains: "failed loading config"},
		{name: "unknown key", contents: "[plot]\nstrenght = 0.1\n", contains: "unknown keys"},
		{name: "negative strength", contents: "[plot]\nstrength = -0.1\n", contains: "plot.strength"},
		{name: "zero window", contents: "[plot]\nmicro_window = 0\n", contains: "plot.micro_window"},
		{name: "empty palette", contents: "[plot]\npalette = []\n", contains: "plot.palette"},
		{name: "port without baud", contents: "[link]\nport = \"/dev/ttyS0\"\nbaud = 0\n", contains: "link.baud"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.contents))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "rsip-scope.example.toml"))
	require.NoError(t, err)
	want := DefaultConfig()
	want.Link.Capture = "capture.rsip"
	assert.Equal(t, want, cfg)
}

// Package hwmon exposes the host's temperature sensors through the Linux
// hwmon sysfs interface, so the simulator can report real readings.
package hwmon

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"git.sr.ht/~whereswaldon/rsip-scope/sensors"
)

// Root is where the kernel publishes hwmon devices.
const Root = "/sys/class/hwmon"

// Temperature is one tempN_input file.
type Temperature struct {
	Chip  string
	Label string
	Path  string
}

var _ sensors.Sensor = Temperature{}

func (t Temperature) Name() string {
	return t.Chip + "#" + t.Label
}

func (t Temperature) Unit() sensors.Unit {
	return sensors.Celsius
}

func (t Temperature) Read() (float64, error) {
	raw, err := os.ReadFile(t.Path)
	if err != nil {
		return 0, fmt.Errorf("failed reading %s: %w", t.Path, err)
	}
	milli, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed parsing %s: %w", t.Path, err)
	}
	return float64(milli) * sensors.MilliToUnprefixed, nil
}

// FindTemperatureSensors lists the temperature inputs below root, ordered by
// path.
func FindTemperatureSensors(root string) ([]sensors.Sensor, error) {
	inputs, err := filepath.Glob(filepath.Join(root, "*", "temp*_input"))
	if err != nil {
		return nil, fmt.Errorf("failed listing hwmon devices: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no temperature sensors below %s", root)
	}
	sort.Strings(inputs)
	found := make([]sensors.Sensor, 0, len(inputs))
	for _, input := range inputs {
		dir := filepath.Dir(input)
		base := strings.TrimSuffix(filepath.Base(input), "_input")
		t := Temperature{
			Chip:  readName(filepath.Join(dir, "name"), filepath.Base(dir)),
			Label: readName(filepath.Join(dir, base+"_label"), base),
			Path:  input,
		}
		found = append(found, t)
	}
	return found, nil
}

func readName(path, fallback string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	if name := strings.TrimSpace(string(raw)); name != "" {
		return name
	}
	return fallback
}

package hwmon

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindTemperatureSensors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "hwmon0", "name"), "k10temp\n")
	writeFile(t, filepath.Join(root, "hwmon0", "temp1_input"), "45250\n")
	writeFile(t, filepath.Join(root, "hwmon0", "temp1_label"), "Tctl\n")
	writeFile(t, filepath.Join(root, "hwmon1", "temp2_input"), "-1500\n")
	writeFile(t, filepath.Join(root, "hwmon1", "in0_input"), "900\n")

	found, err := FindTemperatureSensors(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 sensors, got %d", len(found))
	}
	for i, want := range []struct {
		name  string
		value float64
	}{
		{"k10temp#Tctl", 45.25},
		{"hwmon1#temp2", -1.5},
	} {
		if got := found[i].Name(); got != want.name {
			t.Errorf("sensor %d: expected name %q, got %q", i, want.name, got)
		}
		v, err := found[i].Read()
		if err != nil {
			t.Fatalf("sensor %d: unexpected error: %v", i, err)
		}
		if math.Abs(v-want.value) > 1e-9 {
			t.Errorf("sensor %d: expected %v, got %v", i, want.value, v)
		}
	}
}

func TestFindTemperatureSensorsEmpty(t *testing.T) {
	if _, err := FindTemperatureSensors(t.TempDir()); err == nil {
		t.Fatal("expected an error without sensors")
	}
}

func TestTemperatureReadErrors(t *testing.T) {
	root := t.TempDir()
	bad := filepath.Join(root, "temp1_input")
	writeFile(t, bad, "hot\n")
	if _, err := (Temperature{Path: bad}).Read(); err == nil {
		t.Error("expected a parse error")
	}
	if _, err := (Temperature{Path: filepath.Join(root, "missing")}).Read(); err == nil {
		t.Error("expected a read error")
	}
}

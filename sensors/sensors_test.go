package sensors

import (
	"math"
	"testing"
	"time"
)

func TestWaveFollowsPeriod(t *testing.T) {
	start := time.Unix(0, 0)
	now := start
	w := NewWave("test", Celsius, 10, 2, 4*time.Second, start, func() time.Time { return now }, 1)
	for _, tc := range []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 10},
		{time.Second, 12},
		{2 * time.Second, 10},
		{3 * time.Second, 8},
	} {
		now = start.Add(tc.elapsed)
		got, err := w.Read()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("at %v expected %v, got %v", tc.elapsed, tc.want, got)
		}
	}
}

func TestWaveNoiseIsBounded(t *testing.T) {
	start := time.Unix(0, 0)
	w := NewWave("noisy", SCCM, 5, 0, 0, start, func() time.Time { return start }, 7)
	w.Noise = 0.5
	for i := 0; i < 1000; i++ {
		v, _ := w.Read()
		if v < 4.5 || v > 5.5 {
			t.Fatalf("reading %v outside of noise bounds", v)
		}
	}
}

func TestReactorChannels(t *testing.T) {
	channels := Reactor(time.Now(), nil, 1)
	if len(channels) != 5 {
		t.Fatalf("expected 5 channels, got %d", len(channels))
	}
	seen := map[[2]int]bool{}
	for _, c := range channels {
		key := [2]int{int(c.DatasetID), int(c.SeriesID)}
		if seen[key] {
			t.Errorf("duplicate channel %v", key)
		}
		seen[key] = true
		if c.Sensor.Unit() == Unknown {
			t.Errorf("channel %v has no unit", key)
		}
	}
}

func TestUnitString(t *testing.T) {
	for u, want := range map[Unit]string{Celsius: "°C", SCCM: "sccm", Kilopascal: "kPa", Unknown: "?"} {
		if got := u.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

package sensors

import (
	"math"
	"math/rand"
	"time"
)

type Unit uint8

func (u Unit) String() string {
	switch u {
	case Celsius:
		return "°C"
	case SCCM:
		return "sccm"
	case Kilopascal:
		return "kPa"
	default:
		return "?"
	}
}

const (
	Celsius Unit = iota
	SCCM
	Kilopascal
	Unknown
)

const (
	// MilliToUnprefixed is the conversion factor from a milli SI unit to an
	// unprefixed one.
	MilliToUnprefixed = 1.0 / 1_000
)

type Sensor interface {
	Name() string
	Unit() Unit
	Read() (float64, error)
}

// Channel binds a sensor to the ids its readings are reported under.
type Channel struct {
	DatasetID uint8
	SeriesID  int16
	Sensor    Sensor
}

// Wave is a simulated sensor following a sine wave around Base, with
// uniform noise of up to Noise in either direction.
type Wave struct {
	Label     string
	Units     Unit
	Base      float64
	Amplitude float64
	Period    time.Duration
	Noise     float64
	// Phase shifts the wave by a fraction of its period.
	Phase float64

	start time.Time
	now   func() time.Time
	rng   *rand.Rand
}

var _ Sensor = (*Wave)(nil)

// NewWave returns a wave whose time origin is start. Readings are taken at
// the time reported by now, which defaults to time.Now.
func NewWave(label string, units Unit, base, amplitude float64, period time.Duration, start time.Time, now func() time.Time, seed int64) *Wave {
	if now == nil {
		now = time.Now
	}
	return &Wave{
		Label:     label,
		Units:     units,
		Base:      base,
		Amplitude: amplitude,
		Period:    period,
		start:     start,
		now:       now,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (w *Wave) Name() string {
	return w.Label
}

func (w *Wave) Unit() Unit {
	return w.Units
}

func (w *Wave) Read() (float64, error) {
	v := w.Base
	if w.Period > 0 {
		t := w.now().Sub(w.start).Seconds() / w.Period.Seconds()
		v += w.Amplitude * math.Sin(2*math.Pi*(t+w.Phase))
	}
	if w.Noise > 0 {
		v += (w.rng.Float64()*2 - 1) * w.Noise
	}
	return v, nil
}

// Reactor returns simulated channels for every series the reactor
// controller reports: one average temperature, three gas flow rates and the
// chamber pressure.
func Reactor(start time.Time, now func() time.Time, seed int64) []Channel {
	wave := func(label string, units Unit, base, amplitude float64, period time.Duration, noise, phase float64) *Wave {
		w := NewWave(label, units, base, amplitude, period, start, now, seed)
		w.Noise = noise
		w.Phase = phase
		seed++
		return w
	}
	return []Channel{
		{DatasetID: 0, SeriesID: 0, Sensor: wave("Average", Celsius, 350, 25, 90*time.Second, 0.5, 0)},
		{DatasetID: 1, SeriesID: 0, Sensor: wave("H2", SCCM, 40, 10, 30*time.Second, 0.2, 0)},
		{DatasetID: 1, SeriesID: 1, Sensor: wave("Ar", SCCM, 25, 5, 30*time.Second, 0.2, 1.0/3)},
		{DatasetID: 1, SeriesID: 2, Sensor: wave("CO2", SCCM, 10, 3, 30*time.Second, 0.2, 2.0/3)},
		{DatasetID: 2, SeriesID: 0, Sensor: wave("Reactor", Kilopascal, 101.3, 1.5, 45*time.Second, 0.05, 0)},
	}
}

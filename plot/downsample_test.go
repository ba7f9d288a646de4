package plot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesOf(values ...float64) *Series {
	s := &Series{}
	for i, v := range values {
		s.Points = append(s.Points, Point{X: float64(i), Y: v})
	}
	return s
}

func values(s *Series) []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Y
	}
	return out
}

func TestDownsampleRejectsNegativeStrength(t *testing.T) {
	s := seriesOf(1, 2, 3, 4, 5)
	err := Downsample([]*Series{s}, -0.01)
	assert.ErrorIs(t, err, ErrInvalidStrength)
	assert.Len(t, s.Points, 5)
}

func TestDownsampleRemovesRedundantPoints(t *testing.T) {
	s := seriesOf(10, 10.2, 10.05, 10.5, 30, 30.2)
	require.NoError(t, Downsample([]*Series{s}, 0.2))
	// 10.05 sits between 10.2 and 10.5, which differ by under 20%. The
	// jump to 30 is kept.
	assert.Equal(t, []float64{10, 10.2, 10.5, 30, 30.2}, values(s))
	assert.Equal(t, []Point{{0, 10}, {1, 10.2}, {3, 10.5}, {4, 30}, {5, 30.2}}, s.Points)
}

func TestDownsampleShortSeries(t *testing.T) {
	// Four points leave no window to scan.
	s := seriesOf(10, 10.2, 10.05, 10.5)
	require.NoError(t, Downsample([]*Series{s}, 0.2))
	assert.Equal(t, []float64{10, 10.2, 10.05, 10.5}, values(s))

	empty := &Series{}
	require.NoError(t, Downsample([]*Series{empty}, 0.2))
	assert.Empty(t, empty.Points)
}

func TestDownsampleFlatSeries(t *testing.T) {
	s := seriesOf(5, 5, 5, 5, 5, 5, 5, 5)
	require.NoError(t, Downsample([]*Series{s}, DefaultStrength))
	assert.Equal(t, []Point{{0, 5}, {1, 5}, {6, 5}, {7, 5}}, s.Points)
}

func TestDownsampleKeepsZeroRuns(t *testing.T) {
	s := seriesOf(0, 0, 0, 0, 0, 0)
	require.NoError(t, Downsample([]*Series{s}, 1))
	assert.Len(t, s.Points, 6)
}

func TestDownsampleOnlyTouchesGivenSeries(t *testing.T) {
	a := seriesOf(5, 5, 5, 5, 5)
	b := seriesOf(5, 5, 5, 5, 5)
	require.NoError(t, Downsample([]*Series{a}, DefaultStrength))
	assert.Len(t, a.Points, 4)
	assert.Len(t, b.Points, 5)
}

func TestDownsampleProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(40)
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = rng.NormFloat64() * 10
			if rng.Intn(10) == 0 {
				vals[i] = 0
			}
		}

		zero := seriesOf(vals...)
		require.NoError(t, Downsample([]*Series{zero}, 0))
		assert.Equal(t, vals, values(zero), "zero strength never removes points")

		for _, strength := range []float64{0.05, DefaultStrength, 1, 100} {
			s := seriesOf(vals...)
			require.NoError(t, Downsample([]*Series{s}, strength))
			if n == 0 {
				assert.Empty(t, s.Points)
				continue
			}
			assert.LessOrEqual(t, len(s.Points), n)
			assert.Equal(t, Point{float64(n - 1), vals[n-1]}, s.Points[len(s.Points)-1], "newest point is kept")
			for i := 0; i < min(2, n); i++ {
				assert.Equal(t, Point{float64(i), vals[i]}, s.Points[i], "oldest points are kept")
			}
			for i := 1; i < len(s.Points); i++ {
				assert.Less(t, s.Points[i-1].X, s.Points[i].X, "order is preserved")
			}
		}
	}
}

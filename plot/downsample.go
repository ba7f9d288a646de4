package plot

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// DefaultStrength is the largest relative difference between two points
// for which the point between them is considered redundant.
const DefaultStrength = 0.20

var ErrInvalidStrength = errors.New("plot: downsample strength must not be negative")

// Downsample thins each series in place. Walking backwards from the newest
// point, it looks at the three points before the current position and drops
// the middle one when the outer two differ by less than strength relative to
// their mean magnitude. The newest point and the two oldest points are never
// removed. A strength of zero leaves every series untouched.
func Downsample(series []*Series, strength float64) error {
	if strength < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidStrength, strength)
	}
	for _, s := range series {
		s.Points = downsample(s.Points, strength)
	}
	return nil
}

func downsample(pts []Point, strength float64) []Point {
	for n := len(pts) - 1; n > 3; n-- {
		early, late := pts[n-3].Y, pts[n-1].Y
		// Two zeros give NaN, which never compares below strength.
		diff := math.Abs(late-early) / (math.Abs(early)/2 + math.Abs(late)/2)
		if diff < strength {
			pts = slices.Delete(pts, n-2, n-1)
		}
	}
	return pts
}

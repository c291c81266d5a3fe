package marker

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/skittles/internal/monitoring"
	"github.com/banshee-data/skittles/internal/sensor"
)

// Calibrator collects raw samples until the expected number of distinct
// sensors has reported at least once.
type Calibrator struct {
	expected int
	latest   map[int]sensor.Sample
}

// NewCalibrator returns an empty Calibrator waiting for expected sensors.
// A non-positive count means one sensor per logical marker.
func NewCalibrator(expected int) *Calibrator {
	if expected <= 0 {
		expected = sensor.NumRoles
	}
	return &Calibrator{expected: expected, latest: make(map[int]sensor.Sample, expected)}
}

// Observe records s as the most recent sample of its physical sensor and
// reports whether the expected number of distinct sensors has been reached.
func (c *Calibrator) Observe(s sensor.Sample) bool {
	if _, seen := c.latest[s.SensorID]; !seen {
		if len(c.latest) >= c.expected {
			// already complete; an extra sensor cannot join the joint
			return true
		}
		monitoring.Logf("marker %d detected", s.SensorID)
	}
	c.latest[s.SensorID] = s
	return len(c.latest) == c.expected
}

// Seen returns the number of distinct physical sensors observed so far.
func (c *Calibrator) Seen() int {
	return len(c.latest)
}

// Resolve builds the MarkerMap and returns the most recent sample of each
// logical marker, indexed by role. It fails if not all sensors have been
// seen or if the pivot and tip positions coincide.
func (c *Calibrator) Resolve() (MarkerMap, [sensor.NumRoles]sensor.Sample, error) {
	var seeds [sensor.NumRoles]sensor.Sample

	if len(c.latest) != c.expected {
		return MarkerMap{}, seeds, &sensor.CalibrationError{
			Reason: "expected sensor count not reached",
			Seen:   len(c.latest),
		}
	}

	ids := make([]int, 0, len(c.latest))
	for id := range c.latest {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	m, err := newMarkerMap(ids)
	if err != nil {
		return MarkerMap{}, seeds, &sensor.CalibrationError{Reason: err.Error(), Seen: len(ids)}
	}

	for _, id := range ids {
		role, _ := m.Role(id)
		seeds[role] = c.latest[id]
	}

	radius := r3.Norm(r3.Sub(seeds[sensor.Tip].Position, seeds[sensor.Pivot].Position))
	if radius < sensor.MinRadius {
		return MarkerMap{}, seeds, sensor.NewDegenerateError(radius)
	}

	return m, seeds, nil
}

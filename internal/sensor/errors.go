package sensor

import "fmt"

// CalibrationError reports that the tracker could not be mapped onto a
// usable pivot/tip pair: too few distinct sensors were seen, or the two
// markers coincide so no angle is defined. It is fatal for the trial.
type CalibrationError struct {
	Reason string
	// Seen is the number of distinct physical sensors observed, when known.
	Seen int
	// Radius is the offending pivot-to-tip distance for degenerate geometry.
	Radius float64
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("calibration failed: %s", e.Reason)
}

// NewDegenerateError reports pivot and tip markers that are too close to
// define an angle.
func NewDegenerateError(radius float64) *CalibrationError {
	return &CalibrationError{
		Reason: fmt.Sprintf("pivot and tip markers coincide (radius %.3g)", radius),
		Radius: radius,
	}
}

// MinRadius is the smallest pivot-to-tip distance for which an angle is
// considered defined.
const MinRadius = 1e-9

// Package joint turns calibrated pivot and tip positions into the joint's
// angle and radius history.
package joint

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/skittles/internal/sensor"
)

// Entry is one JointHistory record. Angle is in radians measured with
// atan2 from the +X axis; Radius is the pivot-to-tip distance.
type Entry struct {
	Time   time.Time
	Angle  float64
	Radius float64
}

// AngleListener is called synchronously with the change in angle each time
// a history entry is appended. The first entry reports a delta of zero.
type AngleListener = func(delta float64)

// Tracker maintains the latest position of each logical marker and an
// append-only angle history. It is not safe for concurrent use.
type Tracker struct {
	positions [sensor.NumRoles]r3.Vec
	history   []Entry
	listeners []AngleListener
}

// NewTracker returns a Tracker with no known positions.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Subscribe registers fn for angle change notifications.
func (t *Tracker) Subscribe(fn AngleListener) {
	t.listeners = append(t.listeners, fn)
}

// Seed sets the initial marker positions resolved by calibration. It does
// not append history; the first tip update does.
func (t *Tracker) Seed(seeds [sensor.NumRoles]sensor.Sample) error {
	for role, s := range seeds {
		t.positions[role] = s.Position
	}
	return nil
}

// Update records the latest position for role. Tip updates append a
// history entry and notify subscribers before returning. A pivot/tip
// distance below sensor.MinRadius yields a *sensor.CalibrationError and
// leaves the history unchanged.
func (t *Tracker) Update(role sensor.Role, s sensor.Sample) error {
	t.positions[role] = s.Position
	if role != sensor.Tip {
		return nil
	}

	d := r3.Sub(t.positions[sensor.Tip], t.positions[sensor.Pivot])
	radius := r3.Norm(d)
	if radius < sensor.MinRadius {
		return sensor.NewDegenerateError(radius)
	}
	angle := math.Atan2(d.Y, d.X)

	at := s.Time
	delta := 0.0
	if n := len(t.history); n > 0 {
		last := t.history[n-1]
		if at.Before(last.Time) {
			at = last.Time
		}
		delta = angle - last.Angle
	}

	t.history = append(t.history, Entry{Time: at, Angle: angle, Radius: radius})
	for _, fn := range t.listeners {
		fn(delta)
	}
	return nil
}

// Active reports whether at least one angle has been computed.
func (t *Tracker) Active() bool {
	return len(t.history) > 0
}

// Angle returns the most recent angle, or 0 before any tip update.
func (t *Tracker) Angle() float64 {
	if len(t.history) == 0 {
		return 0
	}
	return t.history[len(t.history)-1].Angle
}

// Radius returns the most recent radius, or 0 before any tip update.
func (t *Tracker) Radius() float64 {
	if len(t.history) == 0 {
		return 0
	}
	return t.history[len(t.history)-1].Radius
}

// Baseline returns the first angle of the session.
func (t *Tracker) Baseline() (float64, bool) {
	if len(t.history) == 0 {
		return 0, false
	}
	return t.history[0].Angle, true
}

// History returns a copy of the history.
func (t *Tracker) History() []Entry {
	return append([]Entry(nil), t.history...)
}

// Len returns the number of history entries.
func (t *Tracker) Len() int {
	return len(t.history)
}


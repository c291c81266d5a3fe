package marker

import (
	"github.com/banshee-data/skittles/internal/monitoring"
	"github.com/banshee-data/skittles/internal/sensor"
)

// State is the stage of the sample pipeline.
type State int

const (
	Calibrating State = iota
	Tracking
)

func (s State) String() string {
	switch s {
	case Calibrating:
		return "calibrating"
	case Tracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// Sink receives calibrated samples.
type Sink interface {
	// Seed provides the initial position of each logical marker, indexed
	// by role, once calibration completes.
	Seed(seeds [sensor.NumRoles]sensor.Sample) error
	// Update delivers a sample tagged with its logical role.
	Update(role sensor.Role, s sensor.Sample) error
}

// Router runs calibration and then dispatches samples through the resulting
// MarkerMap. It is not safe for concurrent use; the trial session owns it.
type Router struct {
	state State
	cal   *Calibrator
	table MarkerMap
	sink  Sink
}

// NewRouter creates a Router in the Calibrating state forwarding to sink.
// expected is the sensor count calibration waits for.
func NewRouter(sink Sink, expected int) *Router {
	return &Router{
		state: Calibrating,
		cal:   NewCalibrator(expected),
		sink:  sink,
	}
}

// State returns the current pipeline stage.
func (r *Router) State() State {
	return r.state
}

// Seen returns the number of distinct sensors observed during calibration.
func (r *Router) Seen() int {
	return r.cal.Seen()
}

// MarkerMap returns the calibrated table once tracking has started.
func (r *Router) MarkerMap() (MarkerMap, bool) {
	return r.table, r.state == Tracking
}

// HandleSample feeds one raw sample through the pipeline. Samples from
// sensors outside the MarkerMap are dropped. Errors are calibration
// failures and are fatal for the trial.
func (r *Router) HandleSample(s sensor.Sample) error {
	switch r.state {
	case Calibrating:
		if !r.cal.Observe(s) {
			return nil
		}
		table, seeds, err := r.cal.Resolve()
		if err != nil {
			return err
		}
		if err := r.sink.Seed(seeds); err != nil {
			return err
		}
		r.table = table
		r.state = Tracking
		monitoring.Logf("all markers seen, marker map %s", table)
		return nil

	case Tracking:
		role, ok := r.table.Role(s.SensorID)
		if !ok {
			return nil
		}
		return r.sink.Update(role, s)
	}
	return nil
}

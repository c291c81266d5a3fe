// Package trial runs one skittles trial: it marshals tracker lines, operator
// button edges and render ticks onto a single goroutine and drives the
// calibration, tracking, release and simulation stages.
package trial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/skittles/internal/config"
	"github.com/banshee-data/skittles/internal/joint"
	"github.com/banshee-data/skittles/internal/marker"
	"github.com/banshee-data/skittles/internal/monitoring"
	"github.com/banshee-data/skittles/internal/release"
	"github.com/banshee-data/skittles/internal/sensor"
	"github.com/banshee-data/skittles/internal/skittles"
	"github.com/banshee-data/skittles/internal/timeutil"
)

// ErrSensorClosed is returned by Run when the sensor line channel closes
// before the trial ends.
var ErrSensorClosed = errors.New("sensor stream closed")

// Config holds the session parameters.
type Config struct {
	CalibrationTimeout time.Duration
	ExpectedSensors    int
	TickInterval       time.Duration
	AngleTolerance     float64 // radians
	Simulator          skittles.Config
}

// ConfigFromExperiment derives the session config from a validated
// experiment config.
func ConfigFromExperiment(cfg *config.ExperimentConfig) Config {
	return Config{
		CalibrationTimeout: cfg.GetCalibrationTimeout(),
		ExpectedSensors:    cfg.GetExpectedSensors(),
		TickInterval:       cfg.GetTickInterval(),
		AngleTolerance:     cfg.GetAngleTolerance(),
		Simulator:          skittles.ConfigFromExperiment(cfg),
	}
}

// Session owns every core component of one trial. Its methods must be
// called from a single goroutine; Run does so.
type Session struct {
	cfg   Config
	clock timeutil.Clock

	id        string
	startedAt time.Time

	router     *marker.Router
	tracker    *joint.Tracker
	sim        *skittles.Simulator
	controller *release.Controller

	dropped int
}

// NewSession wires a fresh pipeline.
func NewSession(cfg Config, clock timeutil.Clock) *Session {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	tracker := joint.NewTracker()
	sim := skittles.NewSimulator(cfg.Simulator, clock)
	return &Session{
		cfg:        cfg,
		clock:      clock,
		id:         uuid.NewString(),
		startedAt:  clock.Now(),
		router:     marker.NewRouter(tracker, cfg.ExpectedSensors),
		tracker:    tracker,
		sim:        sim,
		controller: release.NewController(tracker, sim, cfg.AngleTolerance),
	}
}

// ID returns the trial's unique id.
func (s *Session) ID() string { return s.id }

// State returns the release controller's state.
func (s *Session) State() release.State { return s.controller.State() }

// Done reports whether the trial outcome has been decided.
func (s *Session) Done() bool { return s.sim.Ended() }

// Calibrated reports whether the marker map has been built.
func (s *Session) Calibrated() bool { return s.router.State() == marker.Tracking }

// HandleLine parses one tracker line stamped with the current clock and
// feeds it through the pipeline. Malformed lines are counted and dropped.
// A returned error is fatal for the trial.
func (s *Session) HandleLine(line string) error {
	if s.Done() {
		return nil
	}
	smp, err := sensor.ParseLine(line, s.clock.Now())
	if err != nil {
		s.dropped++
		return nil
	}
	return s.router.HandleSample(smp)
}

// HandleButton applies an operator button edge.
func (s *Session) HandleButton(b release.ButtonEvent) error {
	if s.Done() {
		return nil
	}
	if err := s.controller.HandleButton(b); err != nil {
		return fmt.Errorf("release: %w", err)
	}
	return nil
}

// Tick advances the ball trajectory to the current time and reports
// whether the trial has ended.
func (s *Session) Tick() bool {
	rec := s.sim.ReleaseRecord()
	if rec == nil {
		return s.Done()
	}
	return s.sim.UpdateTrajectory(s.clock.Since(rec.Time))
}

// Run processes events until the trial ends, ctx is cancelled, or a fatal
// error occurs. The report is valid in every case.
func (s *Session) Run(ctx context.Context, lines <-chan string, buttons <-chan release.ButtonEvent) (Report, error) {
	calibration := s.clock.NewTimer(s.cfg.CalibrationTimeout)
	defer calibration.Stop()
	calibrationC := calibration.C()

	ticker := s.clock.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	monitoring.Logf("trial %s: waiting to see all markers", s.id)
	for {
		select {
		case <-ctx.Done():
			return s.Report(), ctx.Err()

		case <-calibrationC:
			calibrationC = nil
			if !s.Calibrated() {
				return s.Report(), &sensor.CalibrationError{
					Reason: fmt.Sprintf("expected sensor count not reached within %s", s.cfg.CalibrationTimeout),
					Seen:   s.router.Seen(),
				}
			}

		case line, ok := <-lines:
			if !ok {
				return s.Report(), ErrSensorClosed
			}
			if err := s.HandleLine(line); err != nil {
				return s.Report(), err
			}
			if calibrationC != nil && s.Calibrated() {
				calibration.Stop()
				calibrationC = nil
			}

		case b := <-buttons:
			if err := s.HandleButton(b); err != nil {
				return s.Report(), err
			}

		case <-ticker.C():
			if s.Tick() {
				r := s.Report()
				monitoring.Logf("trial %s finished: release angle %.4f rad, angular velocity %.4f rad/s",
					s.id, r.Result.ReleaseAngle, r.Result.ReleaseAngularVelocity)
				return r, nil
			}
		}
	}
}

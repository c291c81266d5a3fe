// Package skittles simulates the paddle and ball of a skittles trial.
//
// Before release the ball rides rigidly on the paddle as it is rotated about
// the pivot. At release the ball's position and finite-difference velocity
// relative to the screen centre fix the energy, amplitude and phase of an
// independent damped oscillator per screen axis; afterwards the ball
// position is a closed-form function of the time since release.
package skittles

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/skittles/internal/monitoring"
	"github.com/banshee-data/skittles/internal/timeutil"
)

// ErrPrecondition is returned when the ball is released without enough
// paddle history to estimate its velocity.
var ErrPrecondition = errors.New("release precondition violated")

// ReleaseRecord captures the kinematics at the moment of release.
type ReleaseRecord struct {
	Time            time.Time
	Angle           float64
	AngularVelocity float64
	Position        r2.Vec // relative to centre, y flipped
	Velocity        r2.Vec
	Energy          r2.Vec
	Amplitude       r2.Vec
	Phase           r2.Vec
}

// TrajectoryPoint is a post-release ball position.
type TrajectoryPoint struct {
	Elapsed  time.Duration
	Position r2.Vec
}

// Result is the surfaced outcome of a trial. Success is nil until a
// collision ends the trial.
type Result struct {
	ReleaseAngle           float64 `json:"release_angle"`
	ReleaseAngularVelocity float64 `json:"release_angular_velocity"`
	Success                *bool   `json:"success"`
}

// Simulator owns the paddle and ball state. It is not safe for concurrent
// use.
type Simulator struct {
	cfg   Config
	clock timeutil.Clock

	angles  []float64
	times   []time.Time
	ballPos []r2.Vec

	controlled bool
	released   bool
	release    *ReleaseRecord
	trajectory []TrajectoryPoint

	ended   bool
	success bool
}

// NewSimulator places the paddle at the configured initial angle with the
// ball at its free end.
func NewSimulator(cfg Config, clock timeutil.Clock) *Simulator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := r2.Vec{X: cfg.ScreenSize.X / 2, Y: cfg.PaddleLength}
	ball := r2.Rotate(start, cfg.InitialAngle, cfg.Pivot())
	return &Simulator{
		cfg:     cfg,
		clock:   clock,
		angles:  []float64{cfg.InitialAngle},
		times:   []time.Time{clock.Now()},
		ballPos: []r2.Vec{ball},
	}
}

// PaddleAngle returns the current paddle angle in radians.
func (s *Simulator) PaddleAngle() float64 { return s.angles[len(s.angles)-1] }

// Ball returns the current absolute ball position.
func (s *Simulator) Ball() r2.Vec { return s.ballPos[len(s.ballPos)-1] }

func (s *Simulator) Controlled() bool { return s.controlled }
func (s *Simulator) Released() bool   { return s.released }
func (s *Simulator) Ended() bool      { return s.ended }

// ActivatePaddle marks the paddle as under participant control.
func (s *Simulator) ActivatePaddle() {
	s.controlled = true
}

// DeactivatePaddle returns the paddle to the uncontrolled state. It has no
// effect after release.
func (s *Simulator) DeactivatePaddle() {
	if s.released {
		return
	}
	s.controlled = false
}

// RotatePaddle rotates the paddle by delta radians about the pivot and
// appends the new angle. When withBall is set the ball is rotated with it.
// The ball position history stays parallel to the angle history so release
// can difference both over the same samples. No-op once released.
func (s *Simulator) RotatePaddle(delta float64, withBall bool) {
	if s.released || s.ended {
		return
	}
	ball := s.Ball()
	if withBall {
		ball = r2.Rotate(ball, delta, s.cfg.Pivot())
	}
	s.angles = append(s.angles, s.PaddleAngle()+delta)
	s.times = append(s.times, s.clock.Now())
	s.ballPos = append(s.ballPos, ball)
}

// Release launches the ball. The angular and ball velocities are finite
// differences over the last LookbackSamples history entries. Calls after a
// successful release return nil and leave the record unchanged.
func (s *Simulator) Release() error {
	if s.released {
		return nil
	}
	k := s.cfg.LookbackSamples
	if k < 1 {
		return fmt.Errorf("%w: lookback must be at least 1, got %d", ErrPrecondition, k)
	}
	n := len(s.angles)
	if n < k+1 {
		return fmt.Errorf("%w: need %d paddle samples, have %d", ErrPrecondition, k+1, n)
	}
	ref := n - 1 - k

	now := s.clock.Now()
	dt := now.Sub(s.times[ref]).Seconds()
	if dt <= 0 {
		return fmt.Errorf("%w: non-positive release interval %.6fs", ErrPrecondition, dt)
	}

	angle := s.PaddleAngle()
	pos := s.relative(s.Ball())
	vel := r2.Scale(1/dt, r2.Sub(pos, s.relative(s.ballPos[ref])))

	m, c := s.cfg.BallMass, s.cfg.SpringConstant
	rec := &ReleaseRecord{
		Time:            now,
		Angle:           angle,
		AngularVelocity: (angle - s.angles[ref]) / dt,
		Position:        pos,
		Velocity:        vel,
	}
	rec.Energy.X, rec.Amplitude.X, rec.Phase.X = oscillator(m, c, pos.X, vel.X)
	rec.Energy.Y, rec.Amplitude.Y, rec.Phase.Y = oscillator(m, c, pos.Y, vel.Y)

	s.release = rec
	s.released = true
	monitoring.Logf("ball released: angle=%.4f rad, angular velocity=%.4f rad/s, amplitude=(%.2f, %.2f)",
		rec.Angle, rec.AngularVelocity, rec.Amplitude.X, rec.Amplitude.Y)
	return nil
}

// oscillator returns the energy, amplitude and phase of one axis given its
// position and velocity at release.
func oscillator(mass, spring, x, v float64) (energy, amplitude, phase float64) {
	energy = 0.5 * (mass*v*v + spring*x*x)
	amplitude = math.Sqrt(2 * energy / spring)
	if amplitude == 0 {
		return energy, 0, 0
	}
	// rounding can push |x/amplitude| just past 1
	ratio := math.Max(-1, math.Min(1, x/amplitude))
	return energy, amplitude, math.Asin(ratio)
}

// PositionAt returns the absolute ball position elapsed after release. It
// is a pure function of elapsed and the release record.
func (s *Simulator) PositionAt(elapsed time.Duration) r2.Vec {
	if s.release == nil {
		return s.Ball()
	}
	t := elapsed.Seconds()
	decay := math.Exp(-t / s.cfg.RelaxationTime)
	w := s.cfg.Frequency
	rel := r2.Vec{
		X: s.release.Amplitude.X * math.Sin(w*t+s.release.Phase.X) * decay,
		Y: s.release.Amplitude.Y * math.Sin(w*t+s.release.Phase.Y) * decay,
	}
	return s.absolute(rel)
}

// UpdateTrajectory moves the ball to its position elapsed after release and
// checks for collisions. It reports whether the trial has ended. Calls
// before release or after the trial ended do nothing.
func (s *Simulator) UpdateTrajectory(elapsed time.Duration) bool {
	if !s.released || s.ended {
		return s.ended
	}
	p := s.PositionAt(elapsed)
	s.ballPos = append(s.ballPos, p)
	s.trajectory = append(s.trajectory, TrajectoryPoint{Elapsed: elapsed, Position: p})
	s.checkCollisions(p)
	return s.ended
}

// checkCollisions ends the trial on overlap. The target is tested first so
// touching both counts as a hit.
func (s *Simulator) checkCollisions(p r2.Vec) {
	switch {
	case overlaps(p, s.cfg.BallRadius, s.cfg.Target(), s.cfg.TargetSize):
		s.EndTrial(true)
	case overlaps(p, s.cfg.BallRadius, s.cfg.Center(), s.cfg.PostSize):
		s.EndTrial(false)
	}
}

func overlaps(a r2.Vec, ra float64, b r2.Vec, rb float64) bool {
	return r2.Norm(r2.Sub(a, b)) < ra+rb
}

// EndTrial records the outcome. Only the first call has an effect.
func (s *Simulator) EndTrial(success bool) {
	if s.ended {
		return
	}
	s.ended = true
	s.success = success
	if success {
		monitoring.Logf("trial ended: target hit")
	} else {
		monitoring.Logf("trial ended: post hit")
	}
}

// Result returns the trial outcome.
func (s *Simulator) Result() Result {
	var r Result
	if s.release != nil {
		r.ReleaseAngle = s.release.Angle
		r.ReleaseAngularVelocity = s.release.AngularVelocity
	}
	if s.ended {
		ok := s.success
		r.Success = &ok
	}
	return r
}

// ReleaseRecord returns the release kinematics, or nil before release.
func (s *Simulator) ReleaseRecord() *ReleaseRecord {
	if s.release == nil {
		return nil
	}
	rec := *s.release
	return &rec
}

// PaddleHistory returns copies of the paddle angle and time histories.
func (s *Simulator) PaddleHistory() ([]float64, []time.Time) {
	return append([]float64(nil), s.angles...), append([]time.Time(nil), s.times...)
}

// Trajectory returns a copy of the post-release trajectory.
func (s *Simulator) Trajectory() []TrajectoryPoint {
	return append([]TrajectoryPoint(nil), s.trajectory...)
}

func (s *Simulator) relative(p r2.Vec) r2.Vec {
	d := r2.Sub(p, s.cfg.Center())
	return r2.Vec{X: d.X, Y: -d.Y}
}

func (s *Simulator) absolute(rel r2.Vec) r2.Vec {
	return r2.Add(s.cfg.Center(), r2.Vec{X: rel.X, Y: -rel.Y})
}

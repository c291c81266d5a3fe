// Package release arbitrates operator button events against the tracked
// joint angle to decide when the participant controls the paddle and when
// the ball is let go.
package release

import (
	"math"

	"github.com/banshee-data/skittles/internal/monitoring"
)

// State of the controller.
type State int

const (
	Idle State = iota
	Controlled
	Released
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Controlled:
		return "controlled"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// ButtonKind distinguishes the two edges of a left-button click.
type ButtonKind int

const (
	ButtonPress ButtonKind = iota
	ButtonRelease
)

func (k ButtonKind) String() string {
	if k == ButtonPress {
		return "press"
	}
	return "release"
}

// ButtonEvent is a left mouse button edge. Other buttons never reach the
// controller.
type ButtonEvent struct {
	Kind ButtonKind
}

// Joint is the tracked angle source.
type Joint interface {
	// Baseline returns the first angle of the session.
	Baseline() (float64, bool)
	Angle() float64
	Subscribe(fn func(delta float64))
}

// Paddle is the simulated paddle and ball.
type Paddle interface {
	ActivatePaddle()
	RotatePaddle(delta float64, withBall bool)
	Released() bool
	Release() error
}

// Controller is the Idle → Controlled → Released state machine. It is
// driven from a single goroutine.
type Controller struct {
	joint     Joint
	paddle    Paddle
	tolerance float64
	state     State
}

// NewController subscribes to joint angle changes and starts Idle.
// tolerance is in radians.
func NewController(joint Joint, paddle Paddle, tolerance float64) *Controller {
	c := &Controller{
		joint:     joint,
		paddle:    paddle,
		tolerance: tolerance,
		state:     Idle,
	}
	joint.Subscribe(c.AngleChanged)
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// HandleButton applies a button edge. The only error is a failed release,
// which leaves the controller in Released.
func (c *Controller) HandleButton(ev ButtonEvent) error {
	switch {
	case ev.Kind == ButtonPress && c.state == Idle:
		if c.withinTolerance() {
			monitoring.Logf("activating paddle")
			c.paddle.ActivatePaddle()
			c.state = Controlled
		}
	case ev.Kind == ButtonRelease && c.state == Controlled:
		c.state = Released
		return c.paddle.Release()
	}
	return nil
}

// AngleChanged forwards joint rotation to the paddle while controlled.
func (c *Controller) AngleChanged(delta float64) {
	if c.state != Controlled {
		return
	}
	c.paddle.RotatePaddle(delta, !c.paddle.Released())
}

func (c *Controller) withinTolerance() bool {
	first, ok := c.joint.Baseline()
	if !ok {
		monitoring.Logf("press ignored: tracker not active")
		return false
	}
	current := c.joint.Angle()
	within := math.Abs(first-current) < c.tolerance
	if within {
		monitoring.Logf("first angle %.4f, current angle %.4f: within tolerance", first, current)
	} else {
		monitoring.Logf("first angle %.4f, current angle %.4f: outside tolerance", first, current)
	}
	return within
}

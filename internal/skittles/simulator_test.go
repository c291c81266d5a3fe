package skittles

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/skittles/internal/monitoring"
	"github.com/banshee-data/skittles/internal/timeutil"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testConfig puts the centre at (100, 100) and the pivot at (100, 0); with a
// paddle length of 100 the ball starts on the centre.
func testConfig() Config {
	return Config{
		ScreenSize:      r2.Vec{X: 200, Y: 200},
		PaddleLength:    100,
		BallRadius:      2,
		PostSize:        5,
		TargetPosition:  r2.Vec{X: 60, Y: -60},
		TargetSize:      5,
		BallMass:        0.5,
		SpringConstant:  2,
		Frequency:       3,
		RelaxationTime:  1,
		LookbackSamples: 1,
	}
}

func newSim(t *testing.T, cfg Config) (*Simulator, *timeutil.MockClock) {
	t.Helper()
	_, restore := monitoring.Capture()
	t.Cleanup(restore)
	clock := timeutil.NewMockClock(epoch)
	return NewSimulator(cfg, clock), clock
}

func assertVec(t *testing.T, want, got r2.Vec, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "X")
	assert.InDelta(t, want.Y, got.Y, delta, "Y")
}

func TestInitialPlacement(t *testing.T) {
	cfg := testConfig()
	sim, _ := newSim(t, cfg)
	assertVec(t, r2.Vec{X: 100, Y: 100}, sim.Ball(), 1e-9)
	assert.Equal(t, 0.0, sim.PaddleAngle())

	cfg.InitialAngle = math.Pi / 2
	sim, _ = newSim(t, cfg)
	assertVec(t, r2.Vec{X: 0, Y: 0}, sim.Ball(), 1e-9)
	assert.InDelta(t, math.Pi/2, sim.PaddleAngle(), 1e-12)
}

func TestRotatePaddle(t *testing.T) {
	sim, clock := newSim(t, testConfig())

	clock.Advance(10 * time.Millisecond)
	sim.RotatePaddle(math.Pi/2, false)
	assertVec(t, r2.Vec{X: 100, Y: 100}, sim.Ball(), 1e-9)

	clock.Advance(10 * time.Millisecond)
	sim.RotatePaddle(-math.Pi/2, true)
	assertVec(t, r2.Vec{X: 200, Y: 0}, sim.Ball(), 1e-9)
	assert.InDelta(t, 0, sim.PaddleAngle(), 1e-12)

	angles, times := sim.PaddleHistory()
	require.Len(t, angles, 3)
	require.Len(t, times, 3)
	assert.Equal(t, epoch.Add(20*time.Millisecond), times[2])
}

func TestReleasePreconditions(t *testing.T) {
	cfg := testConfig()
	cfg.LookbackSamples = 2
	sim, clock := newSim(t, cfg)
	clock.Advance(10 * time.Millisecond)
	sim.RotatePaddle(0.1, true)

	err := sim.Release()
	require.True(t, errors.Is(err, ErrPrecondition), "got %v", err)
	assert.False(t, sim.Released())

	// not enough history for the default lookback
	sim, _ = newSim(t, testConfig())
	require.ErrorIs(t, sim.Release(), ErrPrecondition)

	// zero interval
	sim.RotatePaddle(0.1, true)
	err = sim.Release()
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Contains(t, err.Error(), "non-positive")
	assert.Nil(t, sim.ReleaseRecord())
}

func TestReleaseKinematics(t *testing.T) {
	cfg := testConfig()
	cfg.InitialAngle = -0.1
	sim, clock := newSim(t, cfg)
	before := sim.Ball()

	clock.Advance(100 * time.Millisecond)
	sim.RotatePaddle(0.1, true)
	require.NoError(t, sim.Release())

	rec := sim.ReleaseRecord()
	require.NotNil(t, rec)
	assert.InDelta(t, 0, rec.Angle, 1e-12)
	assert.InDelta(t, 1.0, rec.AngularVelocity, 1e-9)
	assertVec(t, r2.Vec{}, rec.Position, 1e-9)

	// relative velocity flips the vertical axis
	wantVel := r2.Vec{X: (100 - before.X) / 0.1, Y: -(100 - before.Y) / 0.1}
	assertVec(t, wantVel, rec.Velocity, 1e-6)

	wantEnergyX := 0.5 * cfg.BallMass * wantVel.X * wantVel.X
	assert.InDelta(t, wantEnergyX, rec.Energy.X, 1e-6)
	assert.InDelta(t, math.Sqrt(2*wantEnergyX/cfg.SpringConstant), rec.Amplitude.X, 1e-6)

	// ball on the centre at release: zero phase, trajectory starts on the centre
	assertVec(t, r2.Vec{}, rec.Phase, 1e-9)
	assertVec(t, cfg.Center(), sim.PositionAt(0), 1e-9)
}

func TestTrajectoryStartsAtReleasePositionAndDecays(t *testing.T) {
	cfg := testConfig()
	sim, clock := newSim(t, cfg)
	clock.Advance(50 * time.Millisecond)
	sim.RotatePaddle(0.2, true)
	released := sim.Ball()
	require.NoError(t, sim.Release())

	assertVec(t, released, sim.PositionAt(0), 1e-9)
	assertVec(t, cfg.Center(), sim.PositionAt(time.Duration(50*cfg.RelaxationTime)*time.Second), 1e-9)

	// stateless in elapsed time
	a := sim.PositionAt(300 * time.Millisecond)
	sim.PositionAt(2 * time.Second)
	assert.Equal(t, a, sim.PositionAt(300*time.Millisecond))
}

func TestRotateAfterReleaseIsNoop(t *testing.T) {
	sim, clock := newSim(t, testConfig())
	clock.Advance(10 * time.Millisecond)
	sim.RotatePaddle(0.1, true)
	require.NoError(t, sim.Release())

	angle := sim.PaddleAngle()
	sim.RotatePaddle(1, true)
	sim.DeactivatePaddle()
	assert.Equal(t, angle, sim.PaddleAngle())
}

func TestSecondReleaseKeepsRecord(t *testing.T) {
	sim, clock := newSim(t, testConfig())
	clock.Advance(10 * time.Millisecond)
	sim.RotatePaddle(0.1, true)
	require.NoError(t, sim.Release())
	first := sim.ReleaseRecord()

	clock.Advance(50 * time.Millisecond)
	assert.NoError(t, sim.Release())
	if diff := cmp.Diff(first, sim.ReleaseRecord()); diff != "" {
		t.Errorf("release record changed (-first +second):\n%s", diff)
	}
}

func TestCollisionOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		target r2.Vec
		want   bool
	}{
		// ball released on the centre with the target far away hits the post
		{"post", r2.Vec{X: 80, Y: 80}, false},
		// target on the centre overlaps together with the post; target wins
		{"tie", r2.Vec{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.TargetPosition = tt.target
			sim, clock := newSim(t, cfg)
			clock.Advance(10 * time.Millisecond)
			sim.RotatePaddle(0, false)
			require.NoError(t, sim.Release())

			assert.True(t, sim.UpdateTrajectory(0))
			res := sim.Result()
			require.NotNil(t, res.Success)
			assert.Equal(t, tt.want, *res.Success)
		})
	}
}

func TestTargetHit(t *testing.T) {
	cfg := testConfig()
	cfg.InitialAngle = -0.3
	sim, clock := newSim(t, cfg)
	clock.Advance(10 * time.Millisecond)
	sim.RotatePaddle(0, true)
	require.NoError(t, sim.Release())

	// the ball is at rest so the trajectory decays straight to the centre;
	// put the target on that path
	cfg.TargetPosition = r2.Sub(sim.PositionAt(500*time.Millisecond), cfg.Center())
	sim2, clock2 := newSim(t, cfg)
	clock2.Advance(10 * time.Millisecond)
	sim2.RotatePaddle(0, true)
	require.NoError(t, sim2.Release())

	assert.False(t, sim2.UpdateTrajectory(0))
	assert.Nil(t, sim2.Result().Success)
	assert.True(t, sim2.UpdateTrajectory(500*time.Millisecond))
	require.NotNil(t, sim2.Result().Success)
	assert.True(t, *sim2.Result().Success)
	assert.Len(t, sim2.Trajectory(), 2)
}

func TestEndTrialOnce(t *testing.T) {
	sim, clock := newSim(t, testConfig())
	assert.False(t, sim.UpdateTrajectory(0), "no update before release")

	clock.Advance(10 * time.Millisecond)
	sim.RotatePaddle(0.05, true)
	require.NoError(t, sim.Release())
	sim.EndTrial(true)
	sim.EndTrial(false)
	n := len(sim.Trajectory())
	assert.True(t, sim.UpdateTrajectory(time.Second))
	assert.Len(t, sim.Trajectory(), n)

	res := sim.Result()
	require.NotNil(t, res.Success)
	assert.True(t, *res.Success)
	assert.True(t, sim.Ended())
}

func TestActivateDeactivate(t *testing.T) {
	sim, _ := newSim(t, testConfig())
	assert.False(t, sim.Controlled())
	sim.ActivatePaddle()
	assert.True(t, sim.Controlled())
	sim.DeactivatePaddle()
	assert.False(t, sim.Controlled())
}

func TestOscillatorZeroAmplitude(t *testing.T) {
	e, a, p := oscillator(1, 1, 0, 0)
	assert.Zero(t, e)
	assert.Zero(t, a)
	assert.Zero(t, p)
	_, _, p = oscillator(1, 1, 3, 0)
	assert.InDelta(t, math.Pi/2, p, 1e-12)
}

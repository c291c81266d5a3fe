package joint

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/skittles/internal/sensor"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int, x, y float64) sensor.Sample {
	return sensor.Sample{Position: r3.Vec{X: x, Y: y}, Time: epoch.Add(time.Duration(ms) * time.Millisecond)}
}

func seeded(t *testing.T) *Tracker {
	t.Helper()
	tr := NewTracker()
	require.NoError(t, tr.Seed([sensor.NumRoles]sensor.Sample{at(0, 0, 0), at(0, 1, 0)}))
	return tr
}

func TestAngleAndRadius(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		angle  float64
		radius float64
	}{
		{"positive x", 1, 0, 0, 1},
		{"positive y", 0, 1, math.Pi / 2, 1},
		{"negative x", -1, 0, math.Pi, 1},
		{"diagonal", 3, 4, math.Atan2(4, 3), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := seeded(t)
			require.NoError(t, tr.Update(sensor.Tip, at(10, tt.x, tt.y)))
			assert.InDelta(t, tt.angle, tr.Angle(), 1e-12)
			assert.InDelta(t, tt.radius, tr.Radius(), 1e-12)
		})
	}
}

func TestPivotUpdateDoesNotAppend(t *testing.T) {
	tr := seeded(t)
	require.NoError(t, tr.Update(sensor.Pivot, at(5, -1, 0)))
	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.Active())

	require.NoError(t, tr.Update(sensor.Tip, at(10, -1, 2)))
	assert.InDelta(t, math.Pi/2, tr.Angle(), 1e-12)
	assert.InDelta(t, 2, tr.Radius(), 1e-12)
}

func TestHistoryMonotonicAndAppendOnly(t *testing.T) {
	tr := seeded(t)
	require.NoError(t, tr.Update(sensor.Tip, at(10, 1, 0)))
	require.NoError(t, tr.Update(sensor.Tip, at(20, 0, 1)))
	snapshot := tr.History()

	// out of order timestamp is clamped
	require.NoError(t, tr.Update(sensor.Tip, at(15, -1, 0)))
	require.NoError(t, tr.Update(sensor.Tip, at(30, 0, -1)))

	h := tr.History()
	require.Len(t, h, 4)
	assert.Equal(t, snapshot, h[:2])
	for i := 1; i < len(h); i++ {
		assert.False(t, h[i].Time.Before(h[i-1].Time), "entry %d went back in time", i)
	}
	assert.Equal(t, h[1].Time, h[2].Time)

	// callers cannot mutate internal history
	h[0].Angle = 42
	assert.InDelta(t, 0, tr.History()[0].Angle, 1e-12)
}

func TestSubscribersReceiveDelta(t *testing.T) {
	tr := seeded(t)
	var got []float64
	tr.Subscribe(func(delta float64) {
		// notified after the entry is appended
		got = append(got, delta)
		assert.Equal(t, len(got), tr.Len())
	})

	require.NoError(t, tr.Update(sensor.Tip, at(10, 1, 0)))
	require.NoError(t, tr.Update(sensor.Tip, at(20, 0, 1)))
	require.NoError(t, tr.Update(sensor.Tip, at(30, 1, 0)))

	require.Len(t, got, 3)
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, math.Pi/2, got[1], 1e-12)
	assert.InDelta(t, -math.Pi/2, got[2], 1e-12)
}

func TestDegenerateRadius(t *testing.T) {
	tr := seeded(t)
	notified := false
	tr.Subscribe(func(float64) { notified = true })

	err := tr.Update(sensor.Tip, at(10, 0, 0))
	var calErr *sensor.CalibrationError
	require.True(t, errors.As(err, &calErr))
	assert.Less(t, calErr.Radius, sensor.MinRadius)
	assert.Equal(t, 0, tr.Len())
	assert.False(t, notified)
}

func TestBaseline(t *testing.T) {
	tr := seeded(t)
	_, ok := tr.Baseline()
	assert.False(t, ok)

	require.NoError(t, tr.Update(sensor.Tip, at(10, 0, 1)))
	require.NoError(t, tr.Update(sensor.Tip, at(20, 1, 0)))
	b, ok := tr.Baseline()
	require.True(t, ok)
	assert.InDelta(t, math.Pi/2, b, 1e-12)
	assert.InDelta(t, 0, tr.Angle(), 1e-12)
}

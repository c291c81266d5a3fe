// Package timeutil provides a testable abstraction over time operations.
//
// Every timestamp the trial records (joint history, paddle history, the
// release instant) and every periodic tick the session consumes goes through
// a Clock, so tests can drive a whole trial on a MockClock.
package timeutil

import (
	"sync"
	"time"
)

// Clock is the session's source of time.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration

	// NewTimer fires once, no earlier than d from now. The calibration
	// deadline uses it.
	NewTimer(d time.Duration) Timer

	// NewTicker fires every d. Its channel holds a single tick: a reader
	// that falls behind sees one pending tick, never a backlog, so a slow
	// render loop skips frames instead of replaying them.
	NewTicker(d time.Duration) Ticker
}

// Timer is a one-shot deadline.
type Timer interface {
	C() <-chan time.Time
	// Stop reports whether the timer was still pending.
	Stop() bool
}

// Ticker is a periodic event with drop-on-slow-reader delivery.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time                  { return time.Now() }
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// NewTimer wraps time.NewTimer.
func (RealClock) NewTimer(d time.Duration) Timer {
	return realTimer{time.NewTimer(d)}
}

// NewTicker wraps time.NewTicker, whose channel already drops ticks for a
// slow reader.
func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTimer struct{ *time.Timer }

func (t realTimer) C() <-chan time.Time { return t.Timer.C }

type realTicker struct{ *time.Ticker }

func (t realTicker) C() <-chan time.Time { return t.Ticker.C }

// MockClock only moves when told to. Timers and tickers created from it
// fire from within Advance.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	events []*mockEvent
}

// NewMockClock returns a MockClock reading t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Set jumps the clock to t without firing anything.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d and fires every due timer and
// ticker. A ticker that missed several periods fires once.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	events := append([]*mockEvent(nil), c.events...)
	c.mu.Unlock()

	for _, e := range events {
		e.fire(now)
	}
}

// NewTimer returns a Timer due d from the mock's current time.
func (c *MockClock) NewTimer(d time.Duration) Timer {
	return c.schedule(d, 0)
}

// NewTicker returns a Ticker first due d from the mock's current time.
func (c *MockClock) NewTicker(d time.Duration) Ticker {
	return mockTicker{c.schedule(d, d)}
}

func (c *MockClock) schedule(d, period time.Duration) *mockEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &mockEvent{
		ch:     make(chan time.Time, 1),
		due:    c.now.Add(d),
		period: period,
	}
	c.events = append(c.events, e)
	return e
}

// mockEvent is a mock timer (period 0) or ticker.
type mockEvent struct {
	mu     sync.Mutex
	ch     chan time.Time
	due    time.Time
	period time.Duration
	done   bool
}

func (e *mockEvent) C() <-chan time.Time { return e.ch }

func (e *mockEvent) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	pending := !e.done
	e.done = true
	return pending
}

func (e *mockEvent) fire(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done || now.Before(e.due) {
		return
	}
	select {
	case e.ch <- now:
	default:
	}
	if e.period == 0 {
		e.done = true
		return
	}
	e.due = now.Add(e.period)
}

type mockTicker struct{ *mockEvent }

func (t mockTicker) Stop() { t.mockEvent.Stop() }

package shared

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Clock is an abstraction for time operations, allowing time to be mocked in tests.
//
// Sleep returns early with ctx.Err() when the context is cancelled; this is how
// the warehouse worker observes a stop request while idling or moving cargo.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock implements Clock using the actual system time
type RealClock struct{}

// Now returns the current system time in UTC
func (r *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Sleep blocks for the given duration or until ctx is done
func (r *RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MockClock implements Clock with a controllable time for testing.
// Safe for use from the worker goroutine and the test goroutine at once.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	slept       time.Duration
}

// Now returns the mock's current time
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// Sleep advances the mock clock without blocking (instant in tests).
// A cancelled context still wins, mirroring RealClock.
//
// Not suited to an idle worker loop: every backoff returns at once, so a
// worker polling an empty queue spins. Tests that leave the worker idle use
// RealClock with a short poll interval.
func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.currentTime = m.currentTime.Add(d)
	m.slept += d
	m.mu.Unlock()

	// Let other goroutines run; an idle worker on a mock clock would otherwise spin.
	runtime.Gosched()
	return nil
}

// Advance moves the mock clock forward by the given duration
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// Slept returns the total duration passed to Sleep so far
func (m *MockClock) Slept() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slept
}

// NewMockClock creates a MockClock starting at the given time
// If zero time is provided, starts at current time
func NewMockClock(startTime time.Time) *MockClock {
	if startTime.IsZero() {
		startTime = time.Now()
	}
	return &MockClock{currentTime: startTime}
}

// NewRealClock creates a RealClock instance
func NewRealClock() Clock {
	return &RealClock{}
}

// Package clock abstracts wall time so session expiry can be tested
// without sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the Clock backed by time.Now.
type System struct{}

// Now returns the current system time.
func (System) Now() time.Time {
	return time.Now()
}

// Mock is a manually driven Clock. It is safe for concurrent use since
// HTTP handlers read it from many goroutines.
type Mock struct {
	mu      sync.Mutex
	current time.Time
}

// NewMock creates a Mock set to t. A zero t starts at a fixed instant.
func NewMock(t time.Time) *Mock {
	if t.IsZero() {
		t = time.Unix(1000000000, 0)
	}
	return &Mock{current: t}
}

// Now returns the mock's current time.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Advance moves the clock forward by d.
// Panics if d is negative.
func (m *Mock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock.Mock.Advance: duration must be non-negative")
	}
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}

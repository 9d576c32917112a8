// Package clock provides a mockable time source for testing.
// In production, it simply wraps time.Now(). For tests, use MockClock.
//
// Address lifetimes are stored relative to a timestamp in whole seconds;
// Stamp and Remaining convert between the two representations.
package clock

import (
	"math"
	"sync"
	"time"
)

// Permanent is the lifetime value meaning "never expires".
const Permanent uint32 = math.MaxUint32

// Clock is the interface for time operations.
// Use package-level functions for convenience, or inject a Clock for testing.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	Until(t time.Time) time.Duration
}

// --- Real Clock (simple wrapper) ---

// RealClock provides the actual system time.
type RealClock struct{}

// Now returns the current system time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Until returns the duration until t.
func (c *RealClock) Until(t time.Time) time.Duration {
	return time.Until(t)
}

// --- Mock Clock (for testing) ---

// MockClock is a test clock with controllable time.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMockClock creates a mock clock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mock time.
func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Since returns the duration since t.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Until returns the duration until t.
func (c *MockClock) Until(t time.Time) time.Duration {
	return t.Sub(c.Now())
}

// Set sets the mock time.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// Advance advances the mock time by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// --- Package-level convenience functions ---

// Default is the clock used by the package-level functions.
var Default Clock = &RealClock{}

// Now returns the current time of the default clock.
func Now() time.Time {
	return Default.Now()
}

// Since returns the time elapsed since t.
func Since(t time.Time) time.Duration {
	return Default.Since(t)
}

// Until returns the duration until t.
func Until(t time.Time) time.Duration {
	return Default.Until(t)
}

// --- Lifetimes ---

// Stamp returns the timestamp, in seconds, recorded on captured objects.
func Stamp(c Clock) int64 {
	return c.Now().Unix()
}

// Remaining returns what is left at c.Now() of a lifetime that started at
// timestamp. Permanent lifetimes and unstamped lifetimes are returned as is.
func Remaining(c Clock, timestamp int64, lifetime uint32) uint32 {
	if lifetime == Permanent || timestamp == 0 {
		return lifetime
	}
	elapsed := Stamp(c) - timestamp
	switch {
	case elapsed <= 0:
		return lifetime
	case elapsed >= int64(lifetime):
		return 0
	}
	return lifetime - uint32(elapsed)
}

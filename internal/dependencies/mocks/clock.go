package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/mcoot/wordduel/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing. Timers created
// with AfterFunc fire synchronously from Advance or Set, in due order.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	timers      []*mockTimer
	nextSeq     int
}

type mockTimer struct {
	clock   *MockClock
	fireAt  time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

// AfterFunc registers f to run once the mocked time reaches now+d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSeq++
	t := &mockTimer{
		clock:  c,
		fireAt: c.CurrentTime.Add(d),
		seq:    c.nextSeq,
		f:      f,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by the given duration, firing due timers
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.CurrentTime.Add(d)
	c.mu.Unlock()
	c.Set(target)
}

// Set sets the clock to the given time, firing due timers
func (c *MockClock) Set(t time.Time) {
	for {
		c.mu.Lock()
		next := c.nextDue(t)
		if next == nil {
			c.CurrentTime = t
			c.mu.Unlock()
			return
		}
		c.CurrentTime = next.fireAt
		next.fired = true
		c.mu.Unlock()

		// Run outside the lock so callbacks may use the clock
		next.f()
	}
}

// PendingTimers returns the number of timers that have neither fired nor been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			count++
		}
	}
	return count
}

func (c *MockClock) nextDue(limit time.Time) *mockTimer {
	var due []*mockTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !t.fireAt.After(limit) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].fireAt.Equal(due[j].fireAt) {
			return due[i].seq < due[j].seq
		}
		return due[i].fireAt.Before(due[j].fireAt)
	})
	return due[0]
}

// Stop prevents the timer from firing
func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

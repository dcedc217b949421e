package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/mcoot/liveclass/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Timers never fire on their own; they fire synchronously from Advance or Set
// once the mocked time reaches their deadline.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	timers      []*mockTimer
	nextSeq     int
}

type mockTimer struct {
	clock    *MockClock
	deadline time.Time
	seq      int
	fn       func()
	stopped  bool
	fired    bool
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

// AfterFunc registers f to run when the clock is advanced past now+d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{
		clock:    c,
		deadline: c.CurrentTime.Add(d),
		seq:      c.nextSeq,
		fn:       f,
	}
	c.nextSeq++
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by the given duration and fires due timers
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.CurrentTime.Add(d)
	c.mu.Unlock()
	c.Set(target)
}

// Set sets the clock to the given time and fires due timers in deadline order
func (c *MockClock) Set(t time.Time) {
	for {
		c.mu.Lock()
		due := c.nextDueLocked(t)
		if due == nil {
			c.CurrentTime = t
			c.mu.Unlock()
			return
		}
		// Time observed by the callback is the timer's own deadline
		if due.deadline.After(c.CurrentTime) {
			c.CurrentTime = due.deadline
		}
		due.fired = true
		c.removeLocked(due)
		c.mu.Unlock()

		due.fn()
	}
}

// PendingTimers returns the number of timers that have neither fired nor been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *MockClock) nextDueLocked(t time.Time) *mockTimer {
	var due []*mockTimer
	for _, timer := range c.timers {
		if !timer.deadline.After(t) {
			due = append(due, timer)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	return due[0]
}

func (c *MockClock) removeLocked(t *mockTimer) {
	for i, timer := range c.timers {
		if timer == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

// Stop cancels the timer if it is still pending
func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.clock.removeLocked(t)
	return true
}

package session

import (
	"time"

	"github.com/mcoot/liveclass/internal/model"
)

// DefaultChatMinInterval is the minimum gap between accepted chat messages
const DefaultChatMinInterval = 500 * time.Millisecond

// RateLimiter enforces a minimum interval between accepted messages per connection
type RateLimiter struct {
	minInterval  time.Duration
	lastAccepted map[model.ConnectionID]time.Time
}

// NewRateLimiter creates a RateLimiter; non-positive intervals use the default
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		minInterval = DefaultChatMinInterval
	}
	return &RateLimiter{
		minInterval:  minInterval,
		lastAccepted: make(map[model.ConnectionID]time.Time),
	}
}

// Allow records now and returns true if enough time has passed since the last
// accepted message. A rejection leaves the state unchanged.
func (l *RateLimiter) Allow(id model.ConnectionID, now time.Time) bool {
	last, ok := l.lastAccepted[id]
	if ok && now.Sub(last) < l.minInterval {
		return false
	}
	l.lastAccepted[id] = now
	return true
}

// RetryAfter returns how long id must wait before its next message is accepted
func (l *RateLimiter) RetryAfter(id model.ConnectionID, now time.Time) time.Duration {
	last, ok := l.lastAccepted[id]
	if !ok {
		return 0
	}
	wait := l.minInterval - now.Sub(last)
	if wait < 0 {
		return 0
	}
	return wait
}

// Forget drops the entry for a disconnected connection
func (l *RateLimiter) Forget(id model.ConnectionID) {
	delete(l.lastAccepted, id)
}

// Len returns the number of tracked connections
func (l *RateLimiter) Len() int {
	return len(l.lastAccepted)
}

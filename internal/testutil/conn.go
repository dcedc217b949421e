package testutil

import (
	"encoding/json"
	"sync"

	"github.com/mcoot/liveclass/internal/model"
	"github.com/mcoot/liveclass/internal/protocol"
)

// FakeConn is an in-memory transport that records every frame it is sent
type FakeConn struct {
	id model.ConnectionID

	mu      sync.Mutex
	frames  []protocol.Envelope
	closed  bool
	full    bool
	panicOn model.EventType
}

// NewFakeConn creates a FakeConn with the given id
func NewFakeConn(id string) *FakeConn {
	return &FakeConn{id: model.ConnectionID(id)}
}

func (c *FakeConn) ID() model.ConnectionID {
	return c.id
}

func (c *FakeConn) Send(frame []byte) bool {
	env, err := protocol.Decode(frame)
	if err != nil {
		panic("fake conn received undecodable frame: " + err.Error())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panicOn != "" && env.Event == c.panicOn {
		panic("fake conn asked to panic on " + string(env.Event))
	}
	if c.full || c.closed {
		return false
	}
	c.frames = append(c.frames, env)
	return true
}

// SetFull makes Send drop every frame, as a saturated buffer would
func (c *FakeConn) SetFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = full
}

// SetPanicOn makes Send panic when asked to deliver event. Empty disables it.
func (c *FakeConn) SetPanicOn(event model.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panicOn = event
}

func (c *FakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Events returns the names of received events in order
func (c *FakeConn) Events() []model.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]model.EventType, len(c.frames))
	for i, f := range c.frames {
		events[i] = f.Event
	}
	return events
}

// Count returns how many times event was received
func (c *FakeConn) Count(event model.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.frames {
		if f.Event == event {
			n++
		}
	}
	return n
}

// Last returns the data of the most recent frame carrying event
func (c *FakeConn) Last(event model.EventType) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Event == event {
			return c.frames[i].Data, true
		}
	}
	return nil, false
}

// Reset forgets every recorded frame
func (c *FakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

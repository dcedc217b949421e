package session

import (
	"log/slog"

	"github.com/mcoot/liveclass/internal/model"
	"github.com/mcoot/liveclass/internal/protocol"
)

// Conn is one open client transport as seen by the session
type Conn interface {
	ID() model.ConnectionID
	// Send queues a frame without blocking. Returns false if the frame was dropped.
	Send(frame []byte) bool
	// Close closes the transport. Safe to call more than once.
	Close()
}

// Connections is the table of open transports, joined or not
type Connections struct {
	conns  map[model.ConnectionID]Conn
	order  []model.ConnectionID
	logger *slog.Logger
}

// NewConnections creates an empty connection table
func NewConnections(logger *slog.Logger) *Connections {
	return &Connections{
		conns:  make(map[model.ConnectionID]Conn),
		logger: logger,
	}
}

// Add registers an open transport
func (c *Connections) Add(conn Conn) {
	if _, exists := c.conns[conn.ID()]; !exists {
		c.order = append(c.order, conn.ID())
	}
	c.conns[conn.ID()] = conn
}

// Remove forgets a transport, returning it if it was present
func (c *Connections) Remove(id model.ConnectionID) (Conn, bool) {
	conn, ok := c.conns[id]
	if !ok {
		return nil, false
	}
	delete(c.conns, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return conn, true
}

// Get returns the transport for id
func (c *Connections) Get(id model.ConnectionID) (Conn, bool) {
	conn, ok := c.conns[id]
	return conn, ok
}

// Has reports whether id is an open transport
func (c *Connections) Has(id model.ConnectionID) bool {
	_, ok := c.conns[id]
	return ok
}

// Len returns the number of open transports
func (c *Connections) Len() int {
	return len(c.conns)
}

// Send encodes and queues one event for a single connection.
// Unknown ids are a silent no-op.
func (c *Connections) Send(id model.ConnectionID, event model.EventType, data any) bool {
	conn, ok := c.conns[id]
	if !ok {
		c.logger.Debug("send to unknown connection dropped",
			slog.String("connection_id", string(id)),
			slog.String("event", string(event)))
		return false
	}
	frame, err := protocol.Encode(event, data)
	if err != nil {
		c.logger.Error("failed to encode event", slog.String("event", string(event)), slog.String("error", err.Error()))
		return false
	}
	return c.deliver(conn, event, frame)
}

// Broadcast encodes one event once and queues it for every open transport
// except the listed ids.
func (c *Connections) Broadcast(event model.EventType, data any, except ...model.ConnectionID) int {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		c.logger.Error("failed to encode event", slog.String("event", string(event)), slog.String("error", err.Error()))
		return 0
	}

	sent := 0
	dropped := 0
	for _, id := range c.order {
		if contains(except, id) {
			continue
		}
		if c.deliver(c.conns[id], event, frame) {
			sent++
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		c.logger.Warn("broadcast partial failure",
			slog.String("event", string(event)),
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
	return sent
}

func (c *Connections) deliver(conn Conn, event model.EventType, frame []byte) bool {
	if conn.Send(frame) {
		return true
	}
	c.logger.Warn("message dropped - connection buffer full",
		slog.String("connection_id", string(conn.ID())),
		slog.String("event", string(event)))
	return false
}

func contains(ids []model.ConnectionID, id model.ConnectionID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

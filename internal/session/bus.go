package session

import (
	"time"

	"github.com/mcoot/liveclass/internal/dependencies/clock"
	"github.com/mcoot/liveclass/internal/model"
)

// DefaultTimestampLayout formats server-generated chat and hand-raise timestamps
const DefaultTimestampLayout = "15:04:05"

// EventBus fans roster, chat and hand-raise notifications out to every open connection
type EventBus struct {
	conns    *Connections
	registry *Registry
	clock    clock.Clock
	location *time.Location
	layout   string
}

// NewEventBus creates an EventBus over the connection table and registry
func NewEventBus(conns *Connections, registry *Registry, clock clock.Clock, location *time.Location, layout string) *EventBus {
	if location == nil {
		location = time.UTC
	}
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	return &EventBus{
		conns:    conns,
		registry: registry,
		clock:    clock,
		location: location,
		layout:   layout,
	}
}

// Joined announces p with the roster as it stands after registration
func (b *EventBus) Joined(p model.Participant) {
	roster := b.registry.List()
	b.conns.Broadcast(model.EventUserJoined, model.RosterChangedPayload{
		Participant:  p,
		Participants: roster,
		Total:        len(roster),
	})
}

// Left announces p with the roster as it stands after removal
func (b *EventBus) Left(p model.Participant) {
	roster := b.registry.List()
	b.conns.Broadcast(model.EventUserLeft, model.RosterChangedPayload{
		Participant:  p,
		Participants: roster,
		Total:        len(roster),
	})
}

// Chat fans out a chat message from p
func (b *EventBus) Chat(p model.Participant, message string) {
	b.conns.Broadcast(model.EventNewMessage, model.NewMessagePayload{
		Name:      p.Name,
		Role:      p.Role,
		Message:   message,
		Timestamp: b.Timestamp(),
	})
}

// HandRaised fans out a raised hand from p
func (b *EventBus) HandRaised(p model.Participant) {
	b.conns.Broadcast(model.EventHandRaised, model.HandRaisedPayload{
		Name:      p.Name,
		Timestamp: b.Timestamp(),
	})
}

// Timestamp returns the current time in the session's display format
func (b *EventBus) Timestamp() string {
	return b.clock.Now().In(b.location).Format(b.layout)
}

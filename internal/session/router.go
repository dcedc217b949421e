package session

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/liveclass/internal/model"
)

// Router forwards opaque signaling payloads between connections. It holds no
// state of its own; the broadcaster is resolved against the slot at forward time.
type Router struct {
	conns  *Connections
	slot   *BroadcasterSlot
	logger *slog.Logger
}

// NewRouter creates a Router
func NewRouter(conns *Connections, slot *BroadcasterSlot, logger *slog.Logger) *Router {
	return &Router{conns: conns, slot: slot, logger: logger}
}

// Forward relays payload to a literal connection id, tagged with the sender
func (r *Router) Forward(event model.EventType, from, to model.ConnectionID, payload json.RawMessage) bool {
	return r.conns.Send(to, event, model.RelayPayload{From: from, Payload: payload})
}

// ForwardToBroadcaster relays payload to target, resolving the symbolic
// broadcaster target first. With no live broadcaster the message is dropped.
func (r *Router) ForwardToBroadcaster(event model.EventType, from model.ConnectionID, target string, payload json.RawMessage) bool {
	to := model.ConnectionID(target)
	if target == model.BroadcasterTarget {
		current, ok := r.slot.Current()
		if !ok {
			r.logger.Debug("signal to idle broadcaster dropped",
				slog.String("event", string(event)),
				slog.String("from", string(from)))
			return false
		}
		to = current
	}
	return r.Forward(event, from, to, payload)
}

// CamRequest asks the live broadcaster to accept a camera from p.
// Returns false when no broadcaster is live.
func (r *Router) CamRequest(p model.Participant) bool {
	current, ok := r.slot.Current()
	if !ok {
		return false
	}
	return r.conns.Send(current, model.EventCamRequest, model.CamRequestPayload{
		ParticipantID: p.ConnectionID,
		Name:          p.Name,
	})
}

// CamDecision delivers cam-approved or cam-rejected to a literal participant id
func (r *Router) CamDecision(event model.EventType, from, participant model.ConnectionID) bool {
	return r.conns.Send(participant, event, model.CamDecisionPayload{BroadcasterID: from})
}

// CamStop tells a participant its camera share was stopped
func (r *Router) CamStop(from, participant model.ConnectionID) bool {
	return r.conns.Send(participant, model.EventCamStopped, model.CamStoppedPayload{From: from})
}

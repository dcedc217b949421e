// Package session implements the live classroom session state: roster,
// identity bindings, broadcaster election, chat rate limiting and signaling
// relay. A Session is not safe for concurrent use; the Coordinator owns one
// and serializes every event through its loop.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/liveclass/internal/dependencies/clock"
	"github.com/mcoot/liveclass/internal/model"
	"github.com/mcoot/liveclass/internal/protocol"
)

const (
	// DefaultSupersedeGrace is how long a superseded connection stays open after its kick notice
	DefaultSupersedeGrace = time.Second
	// DefaultEvictionGrace is how long an evicted connection stays open after its kick notice
	DefaultEvictionGrace = 2 * time.Second
)

// Scheduler runs delayed actions
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) clock.Timer
}

// Config holds session tunables
type Config struct {
	ChatMinInterval time.Duration
	SupersedeGrace  time.Duration
	EvictionGrace   time.Duration
	Location        *time.Location
	TimestampLayout string
}

// DefaultConfig returns the default session configuration
func DefaultConfig() Config {
	return Config{
		ChatMinInterval: DefaultChatMinInterval,
		SupersedeGrace:  DefaultSupersedeGrace,
		EvictionGrace:   DefaultEvictionGrace,
		Location:        time.UTC,
		TimestampLayout: DefaultTimestampLayout,
	}
}

// EvictOutcome reports what a forced eviction did
type EvictOutcome struct {
	Evicted      bool               `json:"evicted"`
	ConnectionID model.ConnectionID `json:"connection_id,omitempty"`
}

// Snapshot is a read-only view of the session for admin surfaces
type Snapshot struct {
	Participants  []model.Participant `json:"participants"`
	Total         int                 `json:"total"`
	BroadcasterID model.ConnectionID  `json:"broadcaster_id,omitempty"`
	Connections   int                 `json:"connections"`
	Identities    int                 `json:"identities"`
}

// Session is the complete state of one classroom
type Session struct {
	config    Config
	clock     clock.Clock
	scheduler Scheduler
	logger    *slog.Logger

	conns    *Connections
	registry *Registry
	index    *IdentityIndex
	slot     *BroadcasterSlot
	limiter  *RateLimiter
	router   *Router
	bus      *EventBus

	// pending delayed closes, keyed by the connection they target
	timers map[model.ConnectionID][]clock.Timer
}

// New creates a Session. Delayed actions run through scheduler; pass the
// clock itself when callbacks may run directly.
func New(config Config, clk clock.Clock, scheduler Scheduler, logger *slog.Logger) *Session {
	defaults := DefaultConfig()
	if config.SupersedeGrace <= 0 {
		config.SupersedeGrace = defaults.SupersedeGrace
	}
	if config.EvictionGrace <= 0 {
		config.EvictionGrace = defaults.EvictionGrace
	}
	if config.Location == nil {
		config.Location = defaults.Location
	}
	if config.TimestampLayout == "" {
		config.TimestampLayout = defaults.TimestampLayout
	}

	conns := NewConnections(logger)
	registry := NewRegistry(clk)
	slot := &BroadcasterSlot{}
	return &Session{
		config:    config,
		clock:     clk,
		scheduler: scheduler,
		logger:    logger,
		conns:     conns,
		registry:  registry,
		index:     NewIdentityIndex(),
		slot:      slot,
		limiter:   NewRateLimiter(config.ChatMinInterval),
		router:    NewRouter(conns, slot, logger),
		bus:       NewEventBus(conns, registry, clk, config.Location, config.TimestampLayout),
		timers:    make(map[model.ConnectionID][]clock.Timer),
	}
}

// Connect registers an open transport and greets it with its id
func (s *Session) Connect(conn Conn) {
	s.conns.Add(conn)
	s.conns.Send(conn.ID(), model.EventConnected, model.ConnectedPayload{ConnectionID: conn.ID()})
	s.logger.Info("connection opened",
		slog.String("connection_id", string(conn.ID())),
		slog.Int("connections", s.conns.Len()))
}

// Disconnect tears down every trace of a connection. Unknown ids are a no-op,
// so a transport close after a forced close is harmless.
func (s *Session) Disconnect(id model.ConnectionID) {
	if _, ok := s.conns.Remove(id); !ok {
		return
	}
	s.cancelTimers(id)
	s.limiter.Forget(id)

	if p, ok := s.registry.Remove(id); ok {
		s.index.Unbind(p.Identity, id)
		s.bus.Left(p)
		s.logger.Info("participant left",
			slog.String("connection_id", string(id)),
			slog.String("name", p.Name),
			slog.Int("total", s.registry.Len()))
	}

	if s.slot.Release(id) {
		s.conns.Broadcast(model.EventBroadcasterDisconnected, nil)
		s.logger.Info("broadcaster disconnected", slog.String("connection_id", string(id)))
	} else if broadcaster, ok := s.slot.Current(); ok {
		s.conns.Send(broadcaster, model.EventDisconnectPeer, model.DisconnectPeerPayload{PeerID: id})
	}

	s.logger.Info("connection closed",
		slog.String("connection_id", string(id)),
		slog.Int("connections", s.conns.Len()))
}

// HandleFrame decodes one raw inbound frame and dispatches it
func (s *Session) HandleFrame(id model.ConnectionID, frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		s.reject(id, err)
		return
	}
	s.Handle(id, env.Event, env.Data)
}

// Handle dispatches one inbound event from connection id
func (s *Session) Handle(id model.ConnectionID, event model.EventType, data json.RawMessage) {
	if !s.conns.Has(id) {
		s.logger.Debug("event from closed connection ignored",
			slog.String("connection_id", string(id)),
			slog.String("event", string(event)))
		return
	}

	var err error
	switch event {
	case model.EventJoin:
		err = s.join(id, protocol.DecodeJoin(data))
	case model.EventBecomeBroadcaster:
		err = s.becomeBroadcaster(id)
	case model.EventWantToWatch:
		s.wantToWatch(id)
	case model.EventOffer, model.EventAnswer, model.EventCandidate:
		err = s.relay(id, event, data)
	case model.EventPOffer, model.EventPAnswer, model.EventPCandidate:
		err = s.relayToBroadcaster(id, event, data)
	case model.EventPAnswerTo:
		err = s.answerParticipant(id, data)
	case model.EventCamRequest:
		err = s.camRequest(id)
	case model.EventCamApproved, model.EventCamRejected:
		err = s.camDecision(id, event, data)
	case model.EventCamStop:
		err = s.camStop(id, data)
	case model.EventChat:
		err = s.chat(id, data)
	case model.EventRaiseHand:
		err = s.raiseHand(id)
	default:
		err = fmt.Errorf("%w: %s", model.ErrUnknownEvent, event)
	}

	if err != nil {
		s.reject(id, err)
	}
}

// ForceEvict kicks whichever connection holds key and closes it after the
// eviction grace. An unbound key is a successful no-op.
func (s *Session) ForceEvict(key model.IdentityKey) EvictOutcome {
	id, ok := s.index.Resolve(key)
	if !ok || !s.conns.Has(id) {
		s.logger.Info("eviction requested for unbound identity", slog.String("identity", string(key)))
		return EvictOutcome{}
	}
	s.kick(id, model.KickReasonEvicted, "You have been removed from this session by an administrator.", s.config.EvictionGrace)
	s.logger.Info("identity evicted",
		slog.String("identity", string(key)),
		slog.String("connection_id", string(id)))
	return EvictOutcome{Evicted: true, ConnectionID: id}
}

// Snapshot returns the current roster and broadcaster
func (s *Session) Snapshot() Snapshot {
	roster := s.registry.List()
	broadcaster, _ := s.slot.Current()
	return Snapshot{
		Participants:  roster,
		Total:         len(roster),
		BroadcasterID: broadcaster,
		Connections:   s.conns.Len(),
		Identities:    s.index.Len(),
	}
}

// Notify sends a notice to one connection
func (s *Session) Notify(id model.ConnectionID, code, message string) {
	s.conns.Send(id, model.EventNotice, model.NoticePayload{Code: code, Message: message})
}

func (s *Session) join(id model.ConnectionID, req model.JoinRequest) error {
	// A kicked connection is on its way out and must not take the identity back
	if s.closing(id) {
		return model.ErrConnectionClosing
	}
	if previous, ok := s.registry.Get(id); ok {
		s.index.Unbind(previous.Identity, id)
	}
	p := s.registry.Register(id, req)

	if old, superseded := s.index.Bind(p.Identity, id); superseded && s.conns.Has(old) {
		s.kick(old, model.KickReasonSuperseded, "Your session was opened from another connection.", s.config.SupersedeGrace)
		s.logger.Info("identity superseded",
			slog.String("identity", string(p.Identity)),
			slog.String("old_connection_id", string(old)),
			slog.String("new_connection_id", string(id)))
	}

	roster := s.registry.List()
	s.conns.Send(id, model.EventExistingUsers, model.ExistingUsersPayload{Users: roster, Total: len(roster)})
	s.bus.Joined(p)

	if broadcaster, ok := s.slot.Current(); ok && p.Role == model.RoleParticipant && broadcaster != id {
		s.conns.Send(id, model.EventBroadcasterReady, model.BroadcasterReadyPayload{BroadcasterID: broadcaster})
	}

	s.logger.Info("participant joined",
		slog.String("connection_id", string(id)),
		slog.String("name", p.Name),
		slog.String("role", string(p.Role)),
		slog.Int("total", len(roster)))
	return nil
}

func (s *Session) becomeBroadcaster(id model.ConnectionID) error {
	if _, ok := s.registry.Get(id); !ok {
		return model.ErrNotJoined
	}
	previous, replaced := s.slot.Claim(id)
	s.conns.Broadcast(model.EventBroadcasterReady, model.BroadcasterReadyPayload{BroadcasterID: id}, id)
	if replaced {
		s.logger.Info("broadcaster taken over",
			slog.String("previous", string(previous)),
			slog.String("connection_id", string(id)))
	} else {
		s.logger.Info("broadcaster claimed", slog.String("connection_id", string(id)))
	}
	return nil
}

func (s *Session) wantToWatch(id model.ConnectionID) {
	broadcaster, ok := s.slot.Current()
	if !ok || broadcaster == id {
		s.conns.Send(id, model.EventNoBroadcaster, nil)
		return
	}
	s.conns.Send(broadcaster, model.EventWatcher, model.WatcherPayload{ViewerID: id})
}

func (s *Session) relay(id model.ConnectionID, event model.EventType, data json.RawMessage) error {
	req, err := protocol.DecodeSignal(data)
	if err != nil {
		return err
	}
	s.router.Forward(event, id, model.ConnectionID(req.Target), req.Payload)
	return nil
}

func (s *Session) relayToBroadcaster(id model.ConnectionID, event model.EventType, data json.RawMessage) error {
	req, err := protocol.DecodeSignal(data)
	if err != nil {
		return err
	}
	s.router.ForwardToBroadcaster(event, id, req.Target, req.Payload)
	return nil
}

func (s *Session) answerParticipant(id model.ConnectionID, data json.RawMessage) error {
	req, err := protocol.DecodeParticipantSignal(data)
	if err != nil {
		return err
	}
	s.router.Forward(model.EventPAnswer, id, req.ParticipantID, req.Payload)
	return nil
}

func (s *Session) camRequest(id model.ConnectionID) error {
	p, ok := s.registry.Get(id)
	if !ok {
		return model.ErrNotJoined
	}
	if !s.router.CamRequest(p) {
		s.conns.Send(id, model.EventNoBroadcaster, nil)
	}
	return nil
}

func (s *Session) camDecision(id model.ConnectionID, event model.EventType, data json.RawMessage) error {
	participant, err := protocol.DecodeParticipantID(data)
	if err != nil {
		return err
	}
	s.router.CamDecision(event, id, participant)
	return nil
}

func (s *Session) camStop(id model.ConnectionID, data json.RawMessage) error {
	participant, err := protocol.DecodeParticipantID(data)
	if err != nil {
		return err
	}
	s.router.CamStop(id, participant)
	return nil
}

func (s *Session) chat(id model.ConnectionID, data json.RawMessage) error {
	p, ok := s.registry.Get(id)
	if !ok {
		return model.ErrNotJoined
	}
	message, err := protocol.DecodeChat(data)
	if err != nil {
		return err
	}
	message = clamp(message, model.MaxChatMessageLength)
	if message == "" {
		return fmt.Errorf("%w: empty message", model.ErrMalformedMessage)
	}

	now := s.clock.Now()
	if !s.limiter.Allow(id, now) {
		retry := s.limiter.RetryAfter(id, now)
		s.conns.Send(id, model.EventRateLimited, model.RateLimitedPayload{
			Message:      "You are sending messages too quickly.",
			RetryAfterMS: retry.Milliseconds(),
		})
		s.logger.Debug("chat rate limited",
			slog.String("connection_id", string(id)),
			slog.Duration("retry_after", retry))
		return nil
	}

	s.bus.Chat(p, message)
	return nil
}

func (s *Session) raiseHand(id model.ConnectionID) error {
	p, ok := s.registry.Get(id)
	if !ok {
		return model.ErrNotJoined
	}
	s.bus.HandRaised(p)
	return nil
}

// kick sends force-kicked to id and schedules its close after grace
func (s *Session) kick(id model.ConnectionID, reason, message string, grace time.Duration) {
	s.conns.Send(id, model.EventForceKicked, model.ForceKickedPayload{Reason: reason, Message: message})
	timer := s.scheduler.AfterFunc(grace, func() {
		s.closeIfOpen(id, reason)
	})
	s.timers[id] = append(s.timers[id], timer)
}

// closeIfOpen runs at fire time and must tolerate the connection being gone
func (s *Session) closeIfOpen(id model.ConnectionID, reason string) {
	conn, ok := s.conns.Get(id)
	if !ok {
		return
	}
	s.logger.Info("closing kicked connection",
		slog.String("connection_id", string(id)),
		slog.String("reason", reason))
	conn.Close()
	s.Disconnect(id)
}

// closing reports whether id has a kick close pending
func (s *Session) closing(id model.ConnectionID) bool {
	return len(s.timers[id]) > 0
}

func (s *Session) cancelTimers(id model.ConnectionID) {
	for _, timer := range s.timers[id] {
		timer.Stop()
	}
	delete(s.timers, id)
}

func (s *Session) reject(id model.ConnectionID, err error) {
	switch {
	case errors.Is(err, model.ErrNotJoined):
		s.Notify(id, model.NoticeNotJoined, "Join the session first.")
	default:
		s.Notify(id, model.NoticeInvalidMessage, err.Error())
	}
	s.logger.Debug("event rejected",
		slog.String("connection_id", string(id)),
		slog.String("error", err.Error()))
}

// CloseAll closes every open transport without emitting departure events
func (s *Session) CloseAll() int {
	closed := 0
	for _, id := range append([]model.ConnectionID(nil), s.conns.order...) {
		if conn, ok := s.conns.Remove(id); ok {
			s.cancelTimers(id)
			conn.Close()
			closed++
		}
	}
	return closed
}

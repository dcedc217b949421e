package model

import "encoding/json"

// EventType identifies the type of a session event on the wire
type EventType string

// Inbound events, sent by clients
const (
	EventJoin              EventType = "join"
	EventBecomeBroadcaster EventType = "become-broadcaster"
	EventWantToWatch       EventType = "want-to-watch"
	EventOffer             EventType = "offer"
	EventAnswer            EventType = "answer"
	EventCandidate         EventType = "candidate"
	EventCamRequest        EventType = "cam-request"
	EventCamApproved       EventType = "cam-approved"
	EventCamRejected       EventType = "cam-rejected"
	EventCamStop           EventType = "cam-stop"
	EventPOffer            EventType = "p-offer"
	EventPAnswer           EventType = "p-answer"
	EventPAnswerTo         EventType = "p-answer-to"
	EventPCandidate        EventType = "p-candidate"
	EventChat              EventType = "chat"
	EventRaiseHand         EventType = "raise-hand"
)

// Outbound events, sent by the coordinator
const (
	EventConnected               EventType = "connected"
	EventExistingUsers           EventType = "existing-users"
	EventUserJoined              EventType = "user-joined"
	EventUserLeft                EventType = "user-left"
	EventBroadcasterReady        EventType = "broadcaster-ready"
	EventNoBroadcaster           EventType = "no-broadcaster"
	EventBroadcasterDisconnected EventType = "broadcaster-disconnected"
	EventDisconnectPeer          EventType = "disconnect-peer"
	EventWatcher                 EventType = "watcher"
	EventCamStopped              EventType = "cam-stopped"
	EventNewMessage              EventType = "new-message"
	EventHandRaised              EventType = "hand-raised"
	EventRateLimited             EventType = "rate-limited"
	EventForceKicked             EventType = "force-kicked"
	EventNotice                  EventType = "notice"
)

// BroadcasterTarget is the symbolic signaling target resolved to the current broadcaster
const BroadcasterTarget = "broadcaster"

// Kick reasons carried by force-kicked
const (
	KickReasonSuperseded = "superseded"
	KickReasonEvicted    = "evicted"
)

// Notice codes carried by notice
const (
	NoticeInvalidMessage = "invalid_message"
	NoticeNotJoined      = "not_joined"
	NoticeInternalError  = "internal_error"
)

// ConnectedPayload greets a new connection with its own identifier
type ConnectedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
}

// ExistingUsersPayload is sent to a joiner with the roster at join time
type ExistingUsersPayload struct {
	Users []Participant `json:"users"`
	Total int           `json:"total"`
}

// RosterChangedPayload is broadcast on user-joined and user-left
type RosterChangedPayload struct {
	Participant  Participant   `json:"participant"`
	Participants []Participant `json:"participants"`
	Total        int           `json:"total"`
}

// BroadcasterReadyPayload names the live broadcaster
type BroadcasterReadyPayload struct {
	BroadcasterID ConnectionID `json:"broadcaster_id"`
}

// DisconnectPeerPayload tells the broadcaster a viewer went away
type DisconnectPeerPayload struct {
	PeerID ConnectionID `json:"peer_id"`
}

// WatcherPayload tells the broadcaster a viewer wants to watch
type WatcherPayload struct {
	ViewerID ConnectionID `json:"viewer_id"`
}

// RelayPayload carries an opaque signaling payload tagged with its sender
type RelayPayload struct {
	From    ConnectionID    `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// CamRequestPayload asks the broadcaster to accept a participant camera
type CamRequestPayload struct {
	ParticipantID ConnectionID `json:"participant_id"`
	Name          string       `json:"name"`
}

// CamDecisionPayload answers a camera request
type CamDecisionPayload struct {
	BroadcasterID ConnectionID `json:"broadcaster_id"`
}

// CamStoppedPayload tells a participant its camera share was stopped
type CamStoppedPayload struct {
	From ConnectionID `json:"from"`
}

// NewMessagePayload is a chat message fanned out to the session
type NewMessagePayload struct {
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HandRaisedPayload is a hand-raise fanned out to the session
type HandRaisedPayload struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// RateLimitedPayload tells a sender its chat message was dropped
type RateLimitedPayload struct {
	Message      string `json:"message"`
	RetryAfterMS int64  `json:"retry_after_ms"`
}

// ForceKickedPayload warns a connection it is about to be closed
type ForceKickedPayload struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// NoticePayload is a short failure notice for the affected connection
type NoticePayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

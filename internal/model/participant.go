package model

import "time"

// ConnectionID is the opaque transport-assigned identifier of one live connection
type ConnectionID string

// IdentityKey is a normalized external identity (lower-cased email)
type IdentityKey string

// Role is the role a participant declares when joining
type Role string

const (
	RolePresenter   Role = "presenter"
	RoleParticipant Role = "participant"
)

// Field bounds applied when a participant joins
const (
	DefaultDisplayName    = "Anonymous"
	MaxNameLength         = 80
	MaxIdentityLength     = 254
	MaxOrganizationLength = 120
	MaxTitleLength        = 120
	MaxChatMessageLength  = 1000
)

// ParseRole maps a declared role to a known Role, defaulting to participant
func ParseRole(s string) Role {
	switch Role(s) {
	case RolePresenter:
		return RolePresenter
	default:
		return RoleParticipant
	}
}

// JoinRequest is the raw, unvalidated content of a join event
type JoinRequest struct {
	Name         string
	Email        string
	Organization string
	Title        string
	Role         string
}

// Participant is one joined connection in the classroom roster
type Participant struct {
	ConnectionID ConnectionID `json:"connection_id"`
	Name         string       `json:"name"`
	Identity     IdentityKey  `json:"identity,omitempty"`
	Organization string       `json:"organization"`
	Title        string       `json:"title"`
	Role         Role         `json:"role"`
	JoinedAt     time.Time    `json:"joined_at"`
	LeftAt       *time.Time   `json:"left_at"`
}

// IsIdentified reports whether the participant presented an identity key
func (p Participant) IsIdentified() bool {
	return p.Identity != ""
}

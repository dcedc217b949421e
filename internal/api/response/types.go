package response

import (
	"github.com/pion/webrtc/v4"

	"github.com/mcoot/liveclass/internal/model"
	"github.com/mcoot/liveclass/internal/services/eviction"
	"github.com/mcoot/liveclass/internal/session"
)

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}

// ICEServers lists the STUN/TURN servers clients should use
type ICEServers struct {
	ICEServers []webrtc.ICEServer `json:"ice_servers"`
}

// Evict is the response after an eviction request
type Evict struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Evicted      bool               `json:"evicted"`
	ConnectionID model.ConnectionID `json:"connection_id,omitempty"`
}

// EvictFromResult converts an eviction.Result
func EvictFromResult(r eviction.Result) Evict {
	return Evict{
		Success:      r.Success,
		Message:      r.Message,
		Evicted:      r.Evicted,
		ConnectionID: r.ConnectionID,
	}
}

// Participant represents a roster entry in admin responses
type Participant struct {
	ConnectionID string `json:"connection_id"`
	Name         string `json:"name"`
	Identity     string `json:"identity,omitempty"`
	Organization string `json:"organization,omitempty"`
	Title        string `json:"title,omitempty"`
	Role         string `json:"role"`
	JoinedAt     string `json:"joined_at"`
	Broadcaster  bool   `json:"broadcaster"`
}

// Roster is the admin view of the session
type Roster struct {
	Participants  []Participant `json:"participants"`
	Total         int           `json:"total"`
	BroadcasterID *string       `json:"broadcaster_id"`
	Connections   int           `json:"connections"`
}

// RosterFromSnapshot converts a session.Snapshot
func RosterFromSnapshot(s session.Snapshot) Roster {
	participants := make([]Participant, len(s.Participants))
	for i, p := range s.Participants {
		participants[i] = Participant{
			ConnectionID: string(p.ConnectionID),
			Name:         p.Name,
			Identity:     string(p.Identity),
			Organization: p.Organization,
			Title:        p.Title,
			Role:         string(p.Role),
			JoinedAt:     p.JoinedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Broadcaster:  s.BroadcasterID != "" && p.ConnectionID == s.BroadcasterID,
		}
	}

	var broadcaster *string
	if s.BroadcasterID != "" {
		b := string(s.BroadcasterID)
		broadcaster = &b
	}

	return Roster{
		Participants:  participants,
		Total:         s.Total,
		BroadcasterID: broadcaster,
		Connections:   s.Connections,
	}
}

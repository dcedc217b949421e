package session

import (
	"strings"

	"github.com/samber/lo"

	"github.com/mcoot/liveclass/internal/dependencies/clock"
	"github.com/mcoot/liveclass/internal/model"
)

// Registry holds the joined participants of the session, keyed by connection id.
// It has no notification side effects; callers broadcast changes themselves.
type Registry struct {
	clock        clock.Clock
	participants map[model.ConnectionID]model.Participant
	order        []model.ConnectionID
}

// NewRegistry creates an empty Registry
func NewRegistry(clock clock.Clock) *Registry {
	return &Registry{
		clock:        clock,
		participants: make(map[model.ConnectionID]model.Participant),
	}
}

// Register clamps and defaults the join request, stamps the join time and
// stores the participant. Joining again from the same connection replaces the
// record in place.
func (r *Registry) Register(id model.ConnectionID, req model.JoinRequest) model.Participant {
	name := clamp(req.Name, model.MaxNameLength)
	if name == "" {
		name = model.DefaultDisplayName
	}

	p := model.Participant{
		ConnectionID: id,
		Name:         name,
		Identity:     NormalizeIdentity(req.Email),
		Organization: clamp(req.Organization, model.MaxOrganizationLength),
		Title:        clamp(req.Title, model.MaxTitleLength),
		Role:         model.ParseRole(strings.ToLower(strings.TrimSpace(req.Role))),
		JoinedAt:     r.clock.Now(),
	}

	if _, exists := r.participants[id]; !exists {
		r.order = append(r.order, id)
	}
	r.participants[id] = p
	return p
}

// Get returns the participant for a connection, if joined
func (r *Registry) Get(id model.ConnectionID) (model.Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

// Remove deletes the participant and returns it with its leave time stamped
func (r *Registry) Remove(id model.ConnectionID) (model.Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return model.Participant{}, false
	}
	delete(r.participants, id)
	r.order = lo.Without(r.order, id)

	leftAt := r.clock.Now()
	p.LeftAt = &leftAt
	return p, true
}

// List returns a join-ordered snapshot of the roster
func (r *Registry) List() []model.Participant {
	return lo.Map(r.order, func(id model.ConnectionID, _ int) model.Participant {
		return r.participants[id]
	})
}

// Len returns the number of joined participants
func (r *Registry) Len() int {
	return len(r.participants)
}

// NormalizeIdentity turns a presented email into an identity key
func NormalizeIdentity(email string) model.IdentityKey {
	return model.IdentityKey(strings.ToLower(clamp(email, model.MaxIdentityLength)))
}

// clamp trims surrounding whitespace and truncates to max runes
func clamp(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}

package session

import "github.com/mcoot/liveclass/internal/model"

// BroadcasterSlot holds at most one broadcasting connection.
// Claims are last-writer-wins.
type BroadcasterSlot struct {
	current model.ConnectionID
}

// Claim sets the slot to id, returning the previous holder if it differed
func (b *BroadcasterSlot) Claim(id model.ConnectionID) (model.ConnectionID, bool) {
	previous := b.current
	b.current = id
	return previous, previous != "" && previous != id
}

// Release clears the slot only if id currently holds it
func (b *BroadcasterSlot) Release(id model.ConnectionID) bool {
	if b.current == "" || b.current != id {
		return false
	}
	b.current = ""
	return true
}

// Current returns the live broadcaster, if any
func (b *BroadcasterSlot) Current() (model.ConnectionID, bool) {
	return b.current, b.current != ""
}

// Is reports whether id is the live broadcaster
func (b *BroadcasterSlot) Is(id model.ConnectionID) bool {
	return b.current != "" && b.current == id
}

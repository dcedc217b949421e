package session

import "github.com/mcoot/liveclass/internal/model"

// IdentityIndex maps identity keys to the connection currently holding them
type IdentityIndex struct {
	bindings map[model.IdentityKey]model.ConnectionID
}

// NewIdentityIndex creates an empty IdentityIndex
func NewIdentityIndex() *IdentityIndex {
	return &IdentityIndex{bindings: make(map[model.IdentityKey]model.ConnectionID)}
}

// Bind points key at id. It returns the previously bound connection and true
// when a different connection held the key; the caller is responsible for
// kicking that connection. Empty keys are never bound.
func (x *IdentityIndex) Bind(key model.IdentityKey, id model.ConnectionID) (model.ConnectionID, bool) {
	if key == "" {
		return "", false
	}
	previous, ok := x.bindings[key]
	x.bindings[key] = id
	if !ok || previous == id {
		return "", false
	}
	return previous, true
}

// Unbind removes the binding only while it still points at id
func (x *IdentityIndex) Unbind(key model.IdentityKey, id model.ConnectionID) bool {
	if key == "" {
		return false
	}
	if current, ok := x.bindings[key]; ok && current == id {
		delete(x.bindings, key)
		return true
	}
	return false
}

// Resolve returns the connection bound to key, if any
func (x *IdentityIndex) Resolve(key model.IdentityKey) (model.ConnectionID, bool) {
	id, ok := x.bindings[key]
	return id, ok
}

// Len returns the number of bound identities
func (x *IdentityIndex) Len() int {
	return len(x.bindings)
}

// Package entitymap maps network entity IDs to local simulation handles.
package entitymap

import "github.com/automoto/voxelfront/shared/messages"

// Map is a bijection-in-practice between network IDs and local handles. It
// has no internal locking; each side touches it only from its simulation
// thread.
type Map[H comparable] struct {
	byID map[messages.EntityID]H
}

// New returns an empty map.
func New[H comparable]() *Map[H] {
	return &Map[H]{byID: make(map[messages.EntityID]H)}
}

// Insert associates id with handle, overwriting any previous handle.
func (m *Map[H]) Insert(id messages.EntityID, handle H) {
	m.byID[id] = handle
}

// Remove drops id and returns its handle, if any.
func (m *Map[H]) Remove(id messages.EntityID) (H, bool) {
	h, ok := m.byID[id]
	if ok {
		delete(m.byID, id)
	}
	return h, ok
}

// Get returns the handle for id.
func (m *Map[H]) Get(id messages.EntityID) (H, bool) {
	h, ok := m.byID[id]
	return h, ok
}

// Lookup finds the network ID bound to handle.
func (m *Map[H]) Lookup(handle H) (messages.EntityID, bool) {
	for id, h := range m.byID {
		if h == handle {
			return id, true
		}
	}
	return 0, false
}

func (m *Map[H]) Len() int {
	return len(m.byID)
}

// Each calls fn for every mapping until fn returns false. Iteration order is
// unspecified and fn must not mutate the map.
func (m *Map[H]) Each(fn func(messages.EntityID, H) bool) {
	for id, h := range m.byID {
		if !fn(id, h) {
			return
		}
	}
}

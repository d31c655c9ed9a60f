package components

import (
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/yohamta/donburi"
)

type HealthData struct {
	Current float64
	Max     float64
	// LastAttacker is the player that most recently damaged this entity.
	LastAttacker *messages.EntityID
}

// TakeDamage lowers Current by amount, never below zero, and reports whether
// the entity is now dead.
func (h *HealthData) TakeDamage(amount float64, attacker messages.EntityID) bool {
	h.Current -= amount
	if h.Current < 0 {
		h.Current = 0
	}
	h.LastAttacker = &attacker
	return h.Current == 0
}

// Reset restores full health and forgets the last attacker.
func (h *HealthData) Reset() {
	h.Current = h.Max
	h.LastAttacker = nil
}

var Health = donburi.NewComponentType[HealthData]()

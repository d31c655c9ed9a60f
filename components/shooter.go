package components

import (
	"math"

	"github.com/automoto/voxelfront/shared/messages"
	"github.com/yohamta/donburi"
)

type ShooterData struct {
	Weapon messages.WeaponType
	// SinceShot is the simulated time in seconds since the last accepted shot.
	SinceShot float64
}

// NewShooter returns a shooter that may fire immediately.
func NewShooter(w messages.WeaponType) ShooterData {
	return ShooterData{Weapon: w, SinceShot: math.Inf(1)}
}

// Advance moves the cooldown clock forward by dt seconds.
func (s *ShooterData) Advance(dt float64) {
	s.SinceShot += dt
}

// TryFire accepts a shot with weapon w if at least tolerance*fire_rate has
// elapsed since the previous one, and restarts the cooldown when it does.
func (s *ShooterData) TryFire(w messages.WeaponType, tolerance float64) bool {
	stats, ok := w.Stats()
	if !ok {
		return false
	}
	if s.SinceShot < stats.FireRate*tolerance {
		return false
	}
	s.Weapon = w
	s.SinceShot = 0
	return true
}

var Shooter = donburi.NewComponentType[ShooterData]()

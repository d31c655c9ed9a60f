package systems

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// HUD is the state a heads-up display would show for the local player.
type HUD struct {
	Health    float64
	MaxHealth float64
	Kills     int
	Deaths    int

	// LastHit is where the most recent confirmed hit landed.
	LastHit       *mgl64.Vec3
	LastHitDamage float64
}

func (h HUD) String() string {
	return fmt.Sprintf("hp %.0f/%.0f  k/d %d/%d", h.Health, h.MaxHealth, h.Kills, h.Deaths)
}

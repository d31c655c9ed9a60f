package systems

import (
	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi/ecs"
)

// NewShootSystem fires the local weapon from the camera while the fire key
// is held, no faster than the weapon's fire rate.
func NewShootSystem(s *Session) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		entry, ok := s.LocalPlayer(e.World)
		if !ok {
			return
		}
		shooter := components.Shooter.Get(entry)
		shooter.Advance(s.Dt)

		if !s.Input.Fire || components.Health.Get(entry).Current <= 0 {
			return
		}
		if !shooter.TryFire(shooter.Weapon, 1) {
			return
		}

		k := netcomponents.Kinematic.Get(entry)
		look := components.Look.Get(entry)
		shot := messages.PlayerShoot{
			Origin:     k.Position.Add(mgl64.Vec3{0, netconfig.EyeHeight, 0}),
			Direction:  gamemath.AimDirection(look.Yaw, look.Pitch),
			WeaponType: shooter.Weapon,
		}
		if err := s.Sender.SendMessage(shot); err != nil {
			s.Log.WithError(err).Debug("shot send failed")
		}
	}
}

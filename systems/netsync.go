package systems

import (
	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// NewNetworkSyncSystem applies every message drained from the server this
// frame, in arrival order.
func NewNetworkSyncSystem(s *Session, drain func() []messages.Message) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		for _, msg := range drain() {
			s.Apply(e, msg)
		}
	}
}

// Apply updates the client world from one server message.
func (s *Session) Apply(e *ecs.ECS, msg messages.Message) {
	switch m := msg.(type) {
	case messages.PlayerConnected:
		s.onPlayerConnected(e, m)
	case messages.PlayerDisconnected:
		if local, ok := s.LocalPlayer(e.World); ok && *netcomponents.NetID.Get(local) == m.EntityID {
			s.Log.Warn("server removed the local player")
		}
		s.despawn(e.World, m.EntityID)
	case messages.PlayerStateUpdate:
		s.onPlayerState(e, m)
	case messages.RigidBodyUpdate:
		s.onBodyState(e, m)
	case messages.HealthUpdate:
		s.onHealth(e.World, m)
	case messages.ProjectileHit:
		pos := m.Position
		s.HUD.LastHit = &pos
		s.HUD.LastHitDamage = m.Damage
	case messages.PlayerDied:
		s.onDied(e.World, m)
	case messages.PlayerRespawn:
		s.onRespawn(e.World, m)
	default:
		s.Log.WithField("kind", msg.Kind()).Debug("ignoring client-bound message")
	}
}

func (s *Session) onPlayerConnected(e *ecs.ECS, m messages.PlayerConnected) {
	mine := m.ClientID == s.ClientID
	if entry, ok := s.entry(e.World, m.EntityID); ok {
		if entry.HasComponent(tags.LocalPlayer) == mine {
			return
		}
		// A placeholder was spawned before the announcement; rebuild it with the right role.
		s.despawn(e.World, m.EntityID)
	}

	if mine {
		s.spawnLocal(e, m.EntityID)
		return
	}
	s.spawnRemotePlayer(e, m.EntityID, netcomponents.TransformData{})
	s.Log.WithFields(logrus.Fields{"entity_id": uint64(m.EntityID), "client_id": m.ClientID}).Info("player joined")
}

func (s *Session) onPlayerState(e *ecs.ECS, m messages.PlayerStateUpdate) {
	t := netcomponents.TransformData{Position: m.Position, Rotation: m.Rotation, Velocity: m.Velocity}

	entry, ok := s.entry(e.World, m.EntityID)
	if !ok {
		s.spawnRemotePlayer(e, m.EntityID, t)
		return
	}

	if entry.HasComponent(tags.LocalPlayer) {
		k := netcomponents.Kinematic.Get(entry)
		Reconcile(k, s.History, m)
		s.Renderer.UpdateTransform(m.EntityID, kinematicTransform(k))
		return
	}
	if !entry.HasComponent(netcomponents.Transform) {
		return
	}
	netcomponents.Transform.SetValue(entry, t)
	s.Renderer.UpdateTransform(m.EntityID, t)
}

func (s *Session) onBodyState(e *ecs.ECS, m messages.RigidBodyUpdate) {
	entry, ok := s.entry(e.World, m.EntityID)
	if !ok {
		s.spawnBody(e, m.EntityID, netcomponents.TransformData{Position: m.Position, Rotation: m.Rotation})
		return
	}
	if !entry.HasComponent(netcomponents.Transform) {
		return
	}
	t := netcomponents.Transform.Get(entry)
	t.Position = m.Position
	t.Rotation = m.Rotation
	s.Renderer.UpdateTransform(m.EntityID, *t)
}

func (s *Session) onHealth(w donburi.World, m messages.HealthUpdate) {
	entry, ok := s.entry(w, m.EntityID)
	if !ok || !entry.HasComponent(components.Health) {
		return
	}
	h := components.Health.Get(entry)
	h.Current = m.CurrentHealth
	h.Max = m.MaxHealth

	if entry.HasComponent(tags.LocalPlayer) {
		s.HUD.Health = m.CurrentHealth
		s.HUD.MaxHealth = m.MaxHealth
	}
}

func (s *Session) localID(w donburi.World) (messages.EntityID, bool) {
	entry, ok := s.LocalPlayer(w)
	if !ok {
		return 0, false
	}
	return *netcomponents.NetID.Get(entry), true
}

func (s *Session) onDied(w donburi.World, m messages.PlayerDied) {
	local, ok := s.localID(w)
	if !ok {
		return
	}
	if m.EntityID == local {
		s.HUD.Deaths++
	}
	if m.KillerID != nil && *m.KillerID == local && m.EntityID != local {
		s.HUD.Kills++
	}
}

func (s *Session) onRespawn(w donburi.World, m messages.PlayerRespawn) {
	entry, ok := s.entry(w, m.EntityID)
	if !ok {
		return
	}

	if entry.HasComponent(tags.LocalPlayer) {
		k := netcomponents.Kinematic.Get(entry)
		*k = gamemath.NewKinematicState(m.Position)
		s.Renderer.UpdateTransform(m.EntityID, kinematicTransform(k))
		return
	}
	if !entry.HasComponent(netcomponents.Transform) {
		return
	}
	t := netcomponents.Transform.Get(entry)
	t.Position = m.Position
	t.Velocity = mgl64.Vec3{}
	s.Renderer.UpdateTransform(m.EntityID, *t)
}

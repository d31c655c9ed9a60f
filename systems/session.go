// Package systems holds the client's per-frame systems: mouse look, input
// capture with local prediction, shooting, and applying server messages.
package systems

import (
	"github.com/automoto/voxelfront/archetypes"
	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/network"
	"github.com/automoto/voxelfront/shared/entitymap"
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/automoto/voxelfront/tags"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// RawInput is the device state captured for one frame.
type RawInput struct {
	Forward, Back, Left, Right bool
	Jump, Fire                 bool
	// Pointer motion since the previous frame, in pixels.
	PointerDX, PointerDY float64
}

// InputSource captures device state once per frame.
type InputSource interface {
	Poll() RawInput
}

type EntityKind int

const (
	KindLocalPlayer EntityKind = iota
	KindRemotePlayer
	KindBody
)

func (k EntityKind) String() string {
	switch k {
	case KindLocalPlayer:
		return "local_player"
	case KindRemotePlayer:
		return "remote_player"
	}
	return "body"
}

// Renderer is the presentation side of the client. It only ever hears about
// entities through these calls.
type Renderer interface {
	Spawn(id messages.EntityID, kind EntityKind, t netcomponents.TransformData)
	Despawn(id messages.EntityID)
	UpdateTransform(id messages.EntityID, t netcomponents.TransformData)
}

// Sender queues a message towards the server. *network.Client implements it.
type Sender interface {
	SendMessage(msg messages.Message) error
}

// Session is the client simulation context shared by the systems. It is
// owned by the frame loop.
type Session struct {
	Entities *entitymap.Map[donburi.Entity]
	History  *network.InputHistory
	HUD      *HUD
	Renderer Renderer
	Sender   Sender
	Log      *logrus.Entry

	ClientID         uint64
	Weapon           messages.WeaponType
	MouseSensitivity float64

	// Set by the scene before the systems run each frame.
	Input RawInput
	Dt    float64
}

func NewSession(r Renderer, snd Sender, log *logrus.Entry) *Session {
	return &Session{
		Entities:         entitymap.New[donburi.Entity](),
		History:          &network.InputHistory{},
		HUD:              &HUD{},
		Renderer:         r,
		Sender:           snd,
		Log:              log.WithField("component", "client"),
		Weapon:           messages.Rifle,
		MouseSensitivity: netconfig.MouseSensitivity,
	}
}

// LocalPlayer returns the player this client controls, once the server has
// announced it.
func (s *Session) LocalPlayer(w donburi.World) (*donburi.Entry, bool) {
	return tags.LocalPlayer.First(w)
}

func (s *Session) entry(w donburi.World, id messages.EntityID) (*donburi.Entry, bool) {
	e, ok := s.Entities.Get(id)
	if !ok || !w.Valid(e) {
		return nil, false
	}
	return w.Entry(e), true
}

func kinematicTransform(k *gamemath.KinematicState) netcomponents.TransformData {
	return netcomponents.TransformData{Position: k.Position, Rotation: k.Rotation, Velocity: k.Velocity}
}

func (s *Session) spawnLocal(e *ecs.ECS, id messages.EntityID) *donburi.Entry {
	entry := archetypes.LocalPlayer.Spawn(e)
	netcomponents.NetID.SetValue(entry, id)
	netcomponents.Kinematic.SetValue(entry, gamemath.NewKinematicState(netconfig.DefaultSpawn))
	components.Health.SetValue(entry, components.HealthData{Current: netconfig.MaxHealth, Max: netconfig.MaxHealth})
	components.Shooter.SetValue(entry, components.NewShooter(s.Weapon))
	components.Look.SetValue(entry, components.LookData{Sensitivity: s.MouseSensitivity})
	s.Entities.Insert(id, entry.Entity())

	s.HUD.Health, s.HUD.MaxHealth = netconfig.MaxHealth, netconfig.MaxHealth
	s.Renderer.Spawn(id, KindLocalPlayer, kinematicTransform(netcomponents.Kinematic.Get(entry)))
	s.Log.WithField("entity_id", uint64(id)).Info("local player spawned")
	return entry
}

func (s *Session) spawnRemotePlayer(e *ecs.ECS, id messages.EntityID, t netcomponents.TransformData) *donburi.Entry {
	entry := archetypes.RemotePlayer.Spawn(e)
	netcomponents.NetID.SetValue(entry, id)
	netcomponents.Transform.SetValue(entry, t)
	components.Health.SetValue(entry, components.HealthData{Current: netconfig.MaxHealth, Max: netconfig.MaxHealth})
	s.Entities.Insert(id, entry.Entity())
	s.Renderer.Spawn(id, KindRemotePlayer, t)
	return entry
}

func (s *Session) spawnBody(e *ecs.ECS, id messages.EntityID, t netcomponents.TransformData) *donburi.Entry {
	entry := archetypes.RemoteBody.Spawn(e)
	netcomponents.NetID.SetValue(entry, id)
	netcomponents.Transform.SetValue(entry, t)
	s.Entities.Insert(id, entry.Entity())
	s.Renderer.Spawn(id, KindBody, t)
	return entry
}

func (s *Session) despawn(w donburi.World, id messages.EntityID) {
	e, ok := s.Entities.Remove(id)
	if !ok {
		return
	}
	if w.Valid(e) {
		w.Remove(e)
	}
	s.Renderer.Despawn(id)
}

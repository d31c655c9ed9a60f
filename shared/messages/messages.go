// Package messages defines the closed set of messages exchanged between client
// and server. Every variant is tagged with a Kind and bound to a fixed channel.
package messages

import "github.com/go-gl/mathgl/mgl64"

// EntityID is the wire-level identifier of a networked object. The server
// picks it at spawn time and never reuses it while the object is alive.
type EntityID uint64

// Channel identifies a logical sub-stream of a connection.
type Channel uint8

const (
	// ChannelReliable carries ordered traffic that must not be lost.
	ChannelReliable Channel = 0
	// ChannelUnreliable carries fire-and-forget events.
	ChannelUnreliable Channel = 1
)

// Kind tags a message variant on the wire.
type Kind uint8

const (
	KindPlayerInput Kind = iota + 1
	KindPlayerStateUpdate
	KindRigidBodyUpdate
	KindPlayerConnected
	KindPlayerDisconnected
	KindPlayerShoot
	KindProjectileHit
	KindHealthUpdate
	KindPlayerDied
	KindPlayerRespawn
)

var kindNames = map[Kind]string{
	KindPlayerInput:        "PlayerInput",
	KindPlayerStateUpdate:  "PlayerStateUpdate",
	KindRigidBodyUpdate:    "RigidBodyUpdate",
	KindPlayerConnected:    "PlayerConnected",
	KindPlayerDisconnected: "PlayerDisconnected",
	KindPlayerShoot:        "PlayerShoot",
	KindProjectileHit:      "ProjectileHit",
	KindHealthUpdate:       "HealthUpdate",
	KindPlayerDied:         "PlayerDied",
	KindPlayerRespawn:      "PlayerRespawn",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Message is implemented by every variant.
type Message interface {
	Kind() Kind
	Channel() Channel
}

// PlayerInput is sent from client to server once per frame.
type PlayerInput struct {
	MoveDirection  mgl64.Vec2 `msgpack:"move"`
	Jump           bool       `msgpack:"jump"`
	Yaw            float64    `msgpack:"yaw"`
	Pitch          float64    `msgpack:"pitch"`
	SequenceNumber uint32     `msgpack:"seq"`
}

// PlayerStateUpdate carries the authoritative state of one player.
// SequenceNumber is the last input the server applied for that player.
type PlayerStateUpdate struct {
	EntityID       EntityID   `msgpack:"id"`
	Position       mgl64.Vec3 `msgpack:"pos"`
	Velocity       mgl64.Vec3 `msgpack:"vel"`
	Rotation       mgl64.Quat `msgpack:"rot"`
	SequenceNumber uint32     `msgpack:"seq"`

	// InputApplied is false until the server has applied an input from the
	// owning client; SequenceNumber is meaningless before that.
	InputApplied bool `msgpack:"applied,omitempty"`
}

// RigidBodyUpdate carries the transform of a non-player physics object.
type RigidBodyUpdate struct {
	EntityID EntityID   `msgpack:"id"`
	Position mgl64.Vec3 `msgpack:"pos"`
	Rotation mgl64.Quat `msgpack:"rot"`
}

// PlayerConnected announces a player entity and the connection that owns it.
type PlayerConnected struct {
	EntityID EntityID `msgpack:"id"`
	ClientID uint64   `msgpack:"client"`
}

type PlayerDisconnected struct {
	EntityID EntityID `msgpack:"id"`
}

// PlayerShoot is a client's request to fire its weapon.
type PlayerShoot struct {
	Origin     mgl64.Vec3 `msgpack:"origin"`
	Direction  mgl64.Vec3 `msgpack:"dir"`
	WeaponType WeaponType `msgpack:"weapon"`
}

// ProjectileHit is cosmetic feedback for a confirmed hit.
type ProjectileHit struct {
	Position mgl64.Vec3 `msgpack:"pos"`
	Damage   float64    `msgpack:"dmg"`
}

type HealthUpdate struct {
	EntityID      EntityID `msgpack:"id"`
	CurrentHealth float64  `msgpack:"cur"`
	MaxHealth     float64  `msgpack:"max"`
}

// PlayerDied is broadcast when a player's health reaches zero. KillerID is nil
// when no attacker is known.
type PlayerDied struct {
	EntityID EntityID  `msgpack:"id"`
	KillerID *EntityID `msgpack:"killer"`
}

type PlayerRespawn struct {
	EntityID EntityID   `msgpack:"id"`
	Position mgl64.Vec3 `msgpack:"pos"`
}

func (PlayerInput) Kind() Kind        { return KindPlayerInput }
func (PlayerStateUpdate) Kind() Kind  { return KindPlayerStateUpdate }
func (RigidBodyUpdate) Kind() Kind    { return KindRigidBodyUpdate }
func (PlayerConnected) Kind() Kind    { return KindPlayerConnected }
func (PlayerDisconnected) Kind() Kind { return KindPlayerDisconnected }
func (PlayerShoot) Kind() Kind        { return KindPlayerShoot }
func (ProjectileHit) Kind() Kind      { return KindProjectileHit }
func (HealthUpdate) Kind() Kind       { return KindHealthUpdate }
func (PlayerDied) Kind() Kind         { return KindPlayerDied }
func (PlayerRespawn) Kind() Kind      { return KindPlayerRespawn }

func (PlayerInput) Channel() Channel        { return ChannelReliable }
func (PlayerStateUpdate) Channel() Channel  { return ChannelReliable }
func (RigidBodyUpdate) Channel() Channel    { return ChannelReliable }
func (PlayerConnected) Channel() Channel    { return ChannelReliable }
func (PlayerDisconnected) Channel() Channel { return ChannelReliable }
func (PlayerShoot) Channel() Channel        { return ChannelUnreliable }
func (ProjectileHit) Channel() Channel      { return ChannelReliable }
func (HealthUpdate) Channel() Channel       { return ChannelReliable }
func (PlayerDied) Channel() Channel         { return ChannelReliable }
func (PlayerRespawn) Channel() Channel      { return ChannelReliable }

// Package netconfig defines constants shared between client and server. It
// must stay free of rendering dependencies so the dedicated server binary
// stays headless.
package netconfig

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Connection defaults.
const (
	ProtocolID     uint64 = 7
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 5000
	MaxClients            = 64
	TickRate              = 60
	ClientTimeout         = 5 * time.Second
	MaxMessageSize        = 1024
)

// Character dimensions.
const (
	PlayerRadius = 0.5
	PlayerHeight = 1.8
)

// Player controller tuning. Client prediction and server authority read the
// same values.
const (
	MoveSpeed = 20.0
	JumpForce = 24.0
	Gravity   = -150.0
	MaxHealth = 100.0
)

// Falling cube tuning.
const (
	BodyGravity         = -9.81
	BodyRestitution     = 0.7
	BodySettleThreshold = 0.1
	BodyHalfExtent      = 0.5
	FloorTop            = 0.5
)

// Hit-scan tuning.
const (
	HitConeCosine = 0.95
)

// Camera look tuning.
const (
	MouseSensitivity = 0.003
	PitchLimit       = 1.5
	EyeHeight        = 0.6
)

// DefaultSpawn is where players appear and respawn.
var DefaultSpawn = mgl64.Vec3{0, 2, 0}

// CubeSpawn is the starting point of the arena's falling cube.
var CubeSpawn = mgl64.Vec3{0, 5, 0}

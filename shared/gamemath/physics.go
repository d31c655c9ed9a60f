package gamemath

import (
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

// groundTolerance widens the grounded test so an entity resting on the floor
// stays jumpable despite float drift.
const groundTolerance = 0.01

var (
	upAxis      = mgl64.Vec3{0, 1, 0}
	rightAxis   = mgl64.Vec3{1, 0, 0}
	forwardAxis = mgl64.Vec3{0, 0, -1}
)

// KinematicState is the simulated state of one player.
type KinematicState struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Velocity mgl64.Vec3
	Grounded bool
}

// Controller holds the per-player movement constants.
type Controller struct {
	MoveSpeed float64
	JumpForce float64
	Gravity   float64
	Height    float64
}

// DefaultController returns the tuning shared by client and server.
func DefaultController() Controller {
	return Controller{
		MoveSpeed: netconfig.MoveSpeed,
		JumpForce: netconfig.JumpForce,
		Gravity:   netconfig.Gravity,
		Height:    netconfig.PlayerHeight,
	}
}

// NewKinematicState places a standing, motionless player at pos.
func NewKinematicState(pos mgl64.Vec3) KinematicState {
	return KinematicState{
		Position: pos,
		Rotation: mgl64.QuatIdent(),
	}
}

// IsGrounded reports whether pos rests on the floor for a controller of the given height.
func IsGrounded(pos mgl64.Vec3, ctrl Controller) bool {
	return pos.Y() <= ctrl.Height/2+groundTolerance
}

// Forward returns the world-space forward unit vector of rot.
func Forward(rot mgl64.Quat) mgl64.Vec3 {
	return rot.Rotate(forwardAxis)
}

// Right returns the world-space right unit vector of rot.
func Right(rot mgl64.Quat) mgl64.Vec3 {
	return rot.Rotate(rightAxis)
}

// YawRotation returns the body orientation for a yaw angle in radians.
func YawRotation(yaw float64) mgl64.Quat {
	return mgl64.QuatRotate(yaw, upAxis)
}

// StepPlayer advances state by one input over dt seconds. Client prediction
// and server authority both call this, so the order of operations here is the
// contract between them.
func StepPlayer(state *KinematicState, ctrl Controller, input messages.PlayerInput, dt float64) {
	state.Grounded = IsGrounded(state.Position, ctrl)

	// Pitch only drives the camera.
	state.Rotation = YawRotation(input.Yaw)

	forward := Forward(state.Rotation)
	right := Right(state.Rotation)

	move := forward.Mul(input.MoveDirection.Y()).Add(right.Mul(input.MoveDirection.X()))
	if move.Len() > 0 {
		move = move.Normalize()
	} else {
		move = mgl64.Vec3{}
	}

	state.Velocity[0] = move.X() * ctrl.MoveSpeed
	state.Velocity[2] = move.Z() * ctrl.MoveSpeed

	if input.Jump && state.Grounded {
		state.Velocity[1] = ctrl.JumpForce
	}

	state.Velocity[1] += ctrl.Gravity * dt
	state.Position = state.Position.Add(state.Velocity.Mul(dt))

	floor := ctrl.Height / 2
	if state.Position.Y() <= floor {
		state.Position[1] = floor
		state.Velocity[1] = 0
		state.Grounded = true
	} else {
		state.Grounded = false
	}
}

// MoveFromKeys builds a move direction from WASD state: W is +y, S is -y,
// A is -x, D is +x. Diagonals are normalized.
func MoveFromKeys(forward, back, left, right bool) mgl64.Vec2 {
	var dir mgl64.Vec2
	if forward {
		dir[1]++
	}
	if back {
		dir[1]--
	}
	if left {
		dir[0]--
	}
	if right {
		dir[0]++
	}
	if dir.Len() > 0 {
		return dir.Normalize()
	}
	return dir
}

// AimDirection returns the unit vector a camera with the given yaw and pitch looks along.
func AimDirection(yaw, pitch float64) mgl64.Vec3 {
	rot := YawRotation(yaw).Mul(mgl64.QuatRotate(pitch, rightAxis))
	return rot.Rotate(forwardAxis).Normalize()
}

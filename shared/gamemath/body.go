package gamemath

import (
	"math"

	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyState is the simulated state of a non-player physics object.
type BodyState struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Velocity mgl64.Vec3
}

// BodyParams tunes a bouncing body.
type BodyParams struct {
	Gravity         float64
	Restitution     float64
	GroundLevel     float64 // centre height at which the body touches the floor
	SettleThreshold float64
}

// CubeParams returns the tuning of the arena's falling cube.
func CubeParams() BodyParams {
	return BodyParams{
		Gravity:         netconfig.BodyGravity,
		Restitution:     netconfig.BodyRestitution,
		GroundLevel:     netconfig.FloorTop + netconfig.BodyHalfExtent,
		SettleThreshold: netconfig.BodySettleThreshold,
	}
}

// StepBody integrates gravity and resolves a bounce against the floor.
// A body resting on the floor with no vertical speed stays put.
func StepBody(state *BodyState, params BodyParams, dt float64) {
	resting := state.Position.Y() <= params.GroundLevel && state.Velocity.Y() == 0
	if !resting {
		state.Velocity[1] += params.Gravity * dt
	}
	state.Position = state.Position.Add(state.Velocity.Mul(dt))

	if state.Position.Y() > params.GroundLevel {
		return
	}
	state.Position[1] = params.GroundLevel
	state.Velocity[1] = -state.Velocity[1] * params.Restitution

	for i := range state.Velocity {
		if math.Abs(state.Velocity[i]) < params.SettleThreshold {
			state.Velocity[i] = 0
		}
	}
}

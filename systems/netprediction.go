package systems

import (
	"github.com/automoto/voxelfront/network"
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
)

// Reconcile snaps k to the server's state for the local player, drops the
// inputs the server has processed and replays the rest on top, each with the
// frame time it was predicted with. An update sent before the server applied
// any input acknowledges nothing.
func Reconcile(k *gamemath.KinematicState, history *network.InputHistory, u messages.PlayerStateUpdate) {
	ctrl := gamemath.DefaultController()

	if u.InputApplied {
		history.AcknowledgeUpTo(u.SequenceNumber)
	}
	k.Position = u.Position
	k.Velocity = u.Velocity
	k.Rotation = u.Rotation
	k.Grounded = gamemath.IsGrounded(u.Position, ctrl)

	for _, pending := range history.Unacknowledged() {
		gamemath.StepPlayer(k, ctrl, pending.Input, pending.Dt)
	}
}

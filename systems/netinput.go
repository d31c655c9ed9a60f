package systems

import (
	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/yohamta/donburi/ecs"
)

// NewNetworkInputSystem returns an ECS system that builds a PlayerInput from
// the frame's keys and camera, records it, sends it to the server and
// applies it locally for prediction.
func NewNetworkInputSystem(s *Session) func(*ecs.ECS) {
	ctrl := gamemath.DefaultController()

	return func(e *ecs.ECS) {
		entry, ok := s.LocalPlayer(e.World)
		if !ok {
			return
		}
		look := components.Look.Get(entry)
		in := s.Input

		input := messages.PlayerInput{
			MoveDirection: gamemath.MoveFromKeys(in.Forward, in.Back, in.Left, in.Right),
			Jump:          in.Jump,
			Yaw:           look.Yaw,
			Pitch:         look.Pitch,
		}
		input.SequenceNumber = s.History.Record(input, s.Dt)

		if err := s.Sender.SendMessage(input); err != nil {
			s.Log.WithError(err).Debug("input send failed")
		}

		latest, ok := s.History.MostRecent()
		if !ok {
			return
		}
		k := netcomponents.Kinematic.Get(entry)
		gamemath.StepPlayer(k, ctrl, latest, s.Dt)
		s.Renderer.UpdateTransform(*netcomponents.NetID.Get(entry), kinematicTransform(k))
	}
}

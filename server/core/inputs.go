package core

import (
	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/shared/protocol"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi/ecs"
)

// applyInputs drains every client's reliable channel and steps its player
// once per input, in arrival order.
func (s *Server) applyInputs(_ *ecs.ECS) {
	ctrl := gamemath.DefaultController()

	for _, clientID := range s.transport.ClientIDs() {
		for {
			b, ok := s.transport.ReceiveMessage(clientID, messages.ChannelReliable)
			if !ok {
				break
			}
			msg, err := protocol.Decode(b)
			if err != nil {
				s.log.WithField("client_id", clientID).WithError(err).Debug("dropping undecodable message")
				continue
			}
			input, ok := msg.(messages.PlayerInput)
			if !ok {
				s.log.WithFields(logrus.Fields{"client_id": clientID, "kind": msg.Kind()}).Debug("dropping unexpected message")
				continue
			}

			entry, ok := s.playerEntry(clientID)
			if !ok {
				continue
			}
			gamemath.StepPlayer(netcomponents.Kinematic.Get(entry), ctrl, input, s.dt)
			conn := components.Connection.Get(entry)
			conn.LastInputSeq = input.SequenceNumber
			conn.HasInput = true
		}
	}
}

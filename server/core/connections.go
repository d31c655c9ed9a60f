package core

import (
	"github.com/automoto/voxelfront/archetypes"
	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/eventlog"
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/automoto/voxelfront/shared/transport"
	"github.com/automoto/voxelfront/tags"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"github.com/yohamta/donburi/filter"
)

var (
	players = donburi.NewQuery(filter.Contains(tags.Player, netcomponents.Kinematic))
	bodies  = donburi.NewQuery(filter.Contains(tags.Body, netcomponents.Body))
)

func (s *Server) updateConnections(_ *ecs.ECS) {
	for _, ev := range s.events {
		switch ev.Type {
		case transport.EventConnected:
			s.onConnect(ev.ClientID)
		case transport.EventDisconnected:
			s.onDisconnect(ev.ClientID)
		}
	}
	s.events = nil
}

func (s *Server) onConnect(clientID uint64) {
	if _, exists := s.clients[clientID]; exists {
		return
	}

	entry := archetypes.ServerPlayer.Spawn(s.ecs)
	id := messages.EntityID(entry.Entity())
	netcomponents.NetID.SetValue(entry, id)
	netcomponents.Kinematic.SetValue(entry, gamemath.NewKinematicState(netconfig.DefaultSpawn))
	components.Health.SetValue(entry, components.HealthData{Current: netconfig.MaxHealth, Max: netconfig.MaxHealth})
	components.Shooter.SetValue(entry, components.NewShooter(messages.Rifle))
	components.Connection.SetValue(entry, components.ConnectionData{ClientID: clientID})

	// Roster first, so the newcomer knows everyone before it learns its own id.
	s.sendRoster(clientID, entry.Entity())

	s.entities.Insert(id, entry.Entity())
	s.clients[clientID] = entry.Entity()
	s.players.Store(int32(len(s.clients)))
	s.hits.place(id, netconfig.DefaultSpawn)

	s.broadcast(messages.PlayerConnected{EntityID: id, ClientID: clientID})

	s.log.WithFields(logrus.Fields{"client_id": clientID, "entity_id": uint64(id)}).Info("player spawned")
	s.logEvent(eventlog.Event{Type: eventlog.TypeConnect, ClientID: clientID, EntityID: uint64(id)})
	if s.opts.Stats != nil {
		s.opts.Stats.RecordJoin(clientID, s.now)
	}
}

func (s *Server) sendRoster(clientID uint64, self donburi.Entity) {
	players.Each(s.world, func(e *donburi.Entry) {
		if e.Entity() == self {
			return
		}
		id := *netcomponents.NetID.Get(e)
		conn := components.Connection.Get(e)
		health := components.Health.Get(e)
		s.send(clientID, messages.PlayerConnected{EntityID: id, ClientID: conn.ClientID})
		s.send(clientID, playerState(e))
		s.send(clientID, messages.HealthUpdate{EntityID: id, CurrentHealth: health.Current, MaxHealth: health.Max})
	})
	bodies.Each(s.world, func(e *donburi.Entry) {
		s.send(clientID, bodyState(e))
	})
}

func (s *Server) onDisconnect(clientID uint64) {
	entity, ok := s.clients[clientID]
	if !ok {
		return
	}
	delete(s.clients, clientID)
	s.players.Store(int32(len(s.clients)))

	id, mapped := s.entities.Lookup(entity)
	if mapped {
		s.entities.Remove(id)
		s.hits.remove(id)
	}
	if s.world.Valid(entity) {
		s.world.Remove(entity)
	}
	if !mapped {
		return
	}

	s.broadcast(messages.PlayerDisconnected{EntityID: id})
	s.log.WithFields(logrus.Fields{"client_id": clientID, "entity_id": uint64(id)}).Info("player removed")
	s.logEvent(eventlog.Event{Type: eventlog.TypeDisconnect, ClientID: clientID, EntityID: uint64(id)})
}

// playerEntry resolves a client to its live player entity.
func (s *Server) playerEntry(clientID uint64) (*donburi.Entry, bool) {
	e, ok := s.clients[clientID]
	if !ok || !s.world.Valid(e) {
		return nil, false
	}
	return s.world.Entry(e), true
}

func (s *Server) entryByID(id messages.EntityID) (*donburi.Entry, bool) {
	e, ok := s.entities.Get(id)
	if !ok || !s.world.Valid(e) {
		return nil, false
	}
	return s.world.Entry(e), true
}

func playerState(e *donburi.Entry) messages.PlayerStateUpdate {
	k := netcomponents.Kinematic.Get(e)
	conn := components.Connection.Get(e)
	return messages.PlayerStateUpdate{
		EntityID:       *netcomponents.NetID.Get(e),
		Position:       k.Position,
		Velocity:       k.Velocity,
		Rotation:       k.Rotation,
		SequenceNumber: conn.LastInputSeq,
		InputApplied:   conn.HasInput,
	}
}

func bodyState(e *donburi.Entry) messages.RigidBodyUpdate {
	b := netcomponents.Body.Get(e)
	return messages.RigidBodyUpdate{
		EntityID: *netcomponents.NetID.Get(e),
		Position: b.Position,
		Rotation: b.Rotation,
	}
}

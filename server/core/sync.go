package core

import (
	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/observer"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// broadcastState sends every player and body transform to all clients and
// periodically publishes a snapshot to the observer.
func (s *Server) broadcastState(_ *ecs.ECS) {
	players.Each(s.world, func(e *donburi.Entry) {
		s.broadcast(playerState(e))
	})
	bodies.Each(s.world, func(e *donburi.Entry) {
		s.broadcast(bodyState(e))
	})

	if s.opts.Observer != nil && s.tick%uint64(s.opts.ObserveEvery) == 0 {
		s.opts.Observer.Publish(s.snapshot())
	}
}

func (s *Server) snapshot() observer.Snapshot {
	snap := observer.Snapshot{Tick: s.tick, Time: s.now}
	players.Each(s.world, func(e *donburi.Entry) {
		k := netcomponents.Kinematic.Get(e)
		snap.Entities = append(snap.Entities, observer.EntitySnapshot{
			ID:       uint64(*netcomponents.NetID.Get(e)),
			Kind:     "player",
			ClientID: components.Connection.Get(e).ClientID,
			Position: [3]float64(k.Position),
			Velocity: [3]float64(k.Velocity),
			Health:   components.Health.Get(e).Current,
		})
	})
	bodies.Each(s.world, func(e *donburi.Entry) {
		b := netcomponents.Body.Get(e)
		snap.Entities = append(snap.Entities, observer.EntitySnapshot{
			ID:       uint64(*netcomponents.NetID.Get(e)),
			Kind:     "body",
			Position: [3]float64(b.Position),
			Velocity: [3]float64(b.Velocity),
		})
	})
	return snap
}

package core

import (
	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/eventlog"
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/automoto/voxelfront/shared/protocol"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// resolveShots drains every client's shoot channel and hit-scans each
// accepted shot against the other live players.
func (s *Server) resolveShots(_ *ecs.ECS) {
	players.Each(s.world, func(e *donburi.Entry) {
		components.Shooter.Get(e).Advance(s.dt)
		s.hits.place(*netcomponents.NetID.Get(e), netcomponents.Kinematic.Get(e).Position)
	})

	for _, clientID := range s.transport.ClientIDs() {
		for {
			b, ok := s.transport.ReceiveMessage(clientID, messages.ChannelUnreliable)
			if !ok {
				break
			}
			msg, err := protocol.Decode(b)
			if err != nil {
				s.log.WithField("client_id", clientID).WithError(err).Debug("dropping undecodable shot")
				continue
			}
			shot, ok := msg.(messages.PlayerShoot)
			if !ok {
				s.log.WithFields(logrus.Fields{"client_id": clientID, "kind": msg.Kind()}).Debug("dropping unexpected message")
				continue
			}
			s.fire(clientID, shot)
		}
	}
}

func (s *Server) fire(clientID uint64, shot messages.PlayerShoot) {
	shooter, ok := s.playerEntry(clientID)
	if !ok {
		return
	}
	weapon, ok := shot.WeaponType.Stats()
	if !ok {
		s.log.WithFields(logrus.Fields{"client_id": clientID, "weapon": shot.WeaponType}).Debug("unknown weapon")
		return
	}
	q := gamemath.NewHitQuery(shot.Origin, shot.Direction, weapon.Range)
	if !q.Valid() {
		s.log.WithField("client_id", clientID).Debug("dropping malformed shot")
		return
	}
	if components.Health.Get(shooter).Current <= 0 {
		return
	}
	if !components.Shooter.Get(shooter).TryFire(shot.WeaponType, s.opts.FireRateTolerance) {
		s.log.WithField("client_id", clientID).Trace("shot rejected by cooldown")
		return
	}
	if s.opts.Stats != nil {
		s.opts.Stats.RecordShot(clientID)
	}

	shooterID := *netcomponents.NetID.Get(shooter)

	var candidates []gamemath.HitCandidate
	for _, id := range s.hits.candidates(q) {
		if id == shooterID {
			continue
		}
		target, ok := s.entryByID(id)
		if !ok || components.Health.Get(target).Current <= 0 {
			continue
		}
		candidates = append(candidates, gamemath.HitCandidate{
			ID:       uint64(id),
			Position: netcomponents.Kinematic.Get(target).Position,
		})
	}

	hit, ok := gamemath.HitScan(q, candidates)
	if !ok {
		return
	}
	targetID := messages.EntityID(hit.ID)
	target, _ := s.entryByID(targetID)
	health := components.Health.Get(target)
	health.TakeDamage(weapon.Damage, shooterID)

	s.broadcast(messages.HealthUpdate{EntityID: targetID, CurrentHealth: health.Current, MaxHealth: health.Max})
	s.broadcast(messages.ProjectileHit{Position: hit.Position, Damage: weapon.Damage})

	if s.opts.Stats != nil {
		s.opts.Stats.RecordHit(clientID, weapon.Damage)
	}
	pos := [3]float64(hit.Position)
	s.logEvent(eventlog.Event{
		Type:     eventlog.TypeHit,
		ClientID: clientID,
		EntityID: uint64(shooterID),
		OtherID:  uint64(targetID),
		Weapon:   shot.WeaponType.String(),
		Damage:   weapon.Damage,
		Position: &pos,
	})
}

// resolveDeaths respawns every player whose health reached zero this tick.
func (s *Server) resolveDeaths(_ *ecs.ECS) {
	var dead []*donburi.Entry
	players.Each(s.world, func(e *donburi.Entry) {
		if components.Health.Get(e).Current <= 0 {
			dead = append(dead, e)
		}
	})

	for _, e := range dead {
		id := *netcomponents.NetID.Get(e)
		health := components.Health.Get(e)
		killer := health.LastAttacker

		s.broadcast(messages.PlayerDied{EntityID: id, KillerID: killer})

		victimClient := components.Connection.Get(e).ClientID
		var killerClient *uint64
		if killer != nil {
			if k, ok := s.entryByID(*killer); ok && k.HasComponent(components.Connection) {
				c := components.Connection.Get(k).ClientID
				killerClient = &c
			}
		}
		if s.opts.Stats != nil {
			s.opts.Stats.RecordKill(killerClient, victimClient)
		}
		death := eventlog.Event{Type: eventlog.TypeDeath, ClientID: victimClient, EntityID: uint64(id)}
		if killer != nil {
			death.OtherID = uint64(*killer)
		}
		s.logEvent(death)

		health.Reset()
		spawn := netconfig.DefaultSpawn
		k := netcomponents.Kinematic.Get(e)
		*k = gamemath.NewKinematicState(spawn)
		s.hits.place(id, spawn)

		s.broadcast(messages.HealthUpdate{EntityID: id, CurrentHealth: health.Current, MaxHealth: health.Max})
		s.broadcast(messages.PlayerRespawn{EntityID: id, Position: spawn})

		s.log.WithFields(logrus.Fields{"entity_id": uint64(id), "client_id": victimClient}).Info("player respawned")
		s.logEvent(eventlog.Event{Type: eventlog.TypeRespawn, ClientID: victimClient, EntityID: uint64(id)})
	}
}

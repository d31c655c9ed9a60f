// Package core runs the authoritative simulation: it owns every player and
// physics body, applies client inputs, resolves shots and broadcasts state.
package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/automoto/voxelfront/archetypes"
	"github.com/automoto/voxelfront/eventlog"
	"github.com/automoto/voxelfront/observer"
	"github.com/automoto/voxelfront/shared/entitymap"
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/automoto/voxelfront/shared/protocol"
	"github.com/automoto/voxelfront/shared/transport"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// Transport is the server side of the network layer. *transport.Server
// implements it.
type Transport interface {
	Update(now time.Time) []transport.Event
	ReceiveMessage(clientID uint64, ch messages.Channel) ([]byte, bool)
	SendMessage(clientID uint64, ch messages.Channel, data []byte) error
	BroadcastMessage(ch messages.Channel, data []byte)
	ClientIDs() []uint64
	Flush(now time.Time)
}

// EventSink receives match events. *eventlog.Writer implements it.
type EventSink interface {
	Write(e eventlog.Event) error
}

// StatsSink receives scoreboard updates. *stats.Store implements it.
type StatsSink interface {
	RecordJoin(clientID uint64, at time.Time)
	RecordShot(clientID uint64)
	RecordHit(clientID uint64, damage float64)
	RecordKill(killer *uint64, victim uint64)
}

// SnapshotSink receives periodic world snapshots. *observer.Hub implements it.
type SnapshotSink interface {
	Publish(s observer.Snapshot)
}

type Options struct {
	TickRate int
	// FireRateTolerance is the fraction of a weapon's fire rate that must
	// elapse between accepted shots.
	FireRateTolerance float64
	Logger            *logrus.Entry

	Events       EventSink
	Stats        StatsSink
	Observer     SnapshotSink
	ObserveEvery int
}

// Server manages the game state and client connections. Everything except
// PlayerCount must be called from the goroutine running the loop.
type Server struct {
	world     donburi.World
	ecs       *ecs.ECS
	loop      *GameLoop
	transport Transport
	log       *logrus.Entry
	opts      Options

	entities *entitymap.Map[donburi.Entity]
	clients  map[uint64]donburi.Entity
	hits     *hitGrid
	players  atomic.Int32

	// Per-tick state.
	tick   uint64
	now    time.Time
	dt     float64
	events []transport.Event
}

func NewServer(t Transport, opts Options) *Server {
	if opts.TickRate <= 0 {
		opts.TickRate = netconfig.TickRate
	}
	if opts.FireRateTolerance <= 0 {
		opts.FireRateTolerance = 1
	}
	if opts.ObserveEvery <= 0 {
		opts.ObserveEvery = 1
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	world := donburi.NewWorld()
	s := &Server{
		world:     world,
		ecs:       ecs.NewECS(world),
		transport: t,
		log:       opts.Logger.WithField("component", "server"),
		opts:      opts,
		entities:  entitymap.New[donburi.Entity](),
		clients:   make(map[uint64]donburi.Entity),
		hits:      newHitGrid(),
		dt:        1 / float64(opts.TickRate),
	}
	s.loop = NewGameLoop(s, opts.TickRate)

	s.ecs.AddSystem(s.updateConnections)
	s.ecs.AddSystem(s.applyInputs)
	s.ecs.AddSystem(s.resolveShots)
	s.ecs.AddSystem(s.stepBodies)
	s.ecs.AddSystem(s.resolveDeaths)
	s.ecs.AddSystem(s.broadcastState)

	s.spawnCube()
	return s
}

// Run ticks the simulation until ctx is cancelled or Stop is called.
func (s *Server) Run(ctx context.Context) {
	s.loop.Run(ctx)
}

func (s *Server) Stop() {
	s.loop.Stop()
}

// Tick runs one fixed step: receive, simulate, send.
func (s *Server) Tick(now time.Time) {
	s.tick++
	s.now = now
	s.events = s.transport.Update(now)
	s.ecs.Update()
	s.transport.Flush(now)
}

// World returns the ECS world
func (s *Server) World() donburi.World {
	return s.world
}

// PlayerCount returns the number of connected players. Safe from any goroutine.
func (s *Server) PlayerCount() int {
	return int(s.players.Load())
}

// EntityFor returns the entity owned by a connected client.
func (s *Server) EntityFor(clientID uint64) (messages.EntityID, bool) {
	e, ok := s.clients[clientID]
	if !ok {
		return 0, false
	}
	return s.entities.Lookup(e)
}

func (s *Server) spawnCube() {
	entry := archetypes.ServerBody.Spawn(s.ecs)
	id := messages.EntityID(entry.Entity())
	netcomponents.NetID.SetValue(entry, id)
	netcomponents.Body.SetValue(entry, gamemath.BodyState{
		Position: netconfig.CubeSpawn,
		Rotation: mgl64.QuatIdent(),
	})
	s.entities.Insert(id, entry.Entity())
}

func (s *Server) send(clientID uint64, msg messages.Message) {
	b, err := protocol.Encode(msg)
	if err != nil {
		s.log.WithError(err).Error("encode failed")
		return
	}
	if err := s.transport.SendMessage(clientID, msg.Channel(), b); err != nil {
		s.log.WithFields(logrus.Fields{"client_id": clientID, "kind": msg.Kind()}).WithError(err).Warn("send failed")
	}
}

func (s *Server) broadcast(msg messages.Message) {
	b, err := protocol.Encode(msg)
	if err != nil {
		s.log.WithError(err).Error("encode failed")
		return
	}
	s.transport.BroadcastMessage(msg.Channel(), b)
}

func (s *Server) logEvent(e eventlog.Event) {
	if s.opts.Events == nil {
		return
	}
	e.Time = s.now
	e.Tick = s.tick
	if err := s.opts.Events.Write(e); err != nil {
		s.log.WithError(err).Warn("event log write failed")
	}
}

package core

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/eventlog"
	"github.com/automoto/voxelfront/observer"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/automoto/voxelfront/shared/protocol"
	"github.com/automoto/voxelfront/shared/transport"
	"github.com/go-gl/mathgl/mgl64"
)

type fakeTransport struct {
	t       *testing.T
	pending []transport.Event
	ids     map[uint64]bool
	inbox   map[uint64]map[messages.Channel][][]byte

	sent      map[uint64][]messages.Message
	broadcast []messages.Message
}

func newFakeTransport(t *testing.T) *fakeTransport {
	return &fakeTransport{
		t:     t,
		ids:   make(map[uint64]bool),
		inbox: make(map[uint64]map[messages.Channel][][]byte),
		sent:  make(map[uint64][]messages.Message),
	}
}

func (f *fakeTransport) connect(id uint64) {
	f.ids[id] = true
	f.pending = append(f.pending, transport.Event{Type: transport.EventConnected, ClientID: id})
}

func (f *fakeTransport) disconnect(id uint64) {
	delete(f.ids, id)
	f.pending = append(f.pending, transport.Event{Type: transport.EventDisconnected, ClientID: id})
}

func (f *fakeTransport) deliverRaw(id uint64, ch messages.Channel, b []byte) {
	if f.inbox[id] == nil {
		f.inbox[id] = make(map[messages.Channel][][]byte)
	}
	f.inbox[id][ch] = append(f.inbox[id][ch], b)
}

func (f *fakeTransport) deliver(id uint64, msg messages.Message) {
	b, err := protocol.Encode(msg)
	if err != nil {
		f.t.Fatal(err)
	}
	f.deliverRaw(id, msg.Channel(), b)
}

func (f *fakeTransport) Update(time.Time) []transport.Event {
	ev := f.pending
	f.pending = nil
	return ev
}

func (f *fakeTransport) ReceiveMessage(id uint64, ch messages.Channel) ([]byte, bool) {
	q := f.inbox[id][ch]
	if len(q) == 0 {
		return nil, false
	}
	f.inbox[id][ch] = q[1:]
	return q[0], true
}

func (f *fakeTransport) decode(b []byte) messages.Message {
	msg, err := protocol.Decode(b)
	if err != nil {
		f.t.Fatalf("server sent undecodable message: %v", err)
	}
	return msg
}

func (f *fakeTransport) SendMessage(id uint64, _ messages.Channel, b []byte) error {
	f.sent[id] = append(f.sent[id], f.decode(b))
	return nil
}

func (f *fakeTransport) BroadcastMessage(_ messages.Channel, b []byte) {
	f.broadcast = append(f.broadcast, f.decode(b))
}

func (f *fakeTransport) ClientIDs() []uint64 {
	out := make([]uint64, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (f *fakeTransport) Flush(time.Time) {}

func (f *fakeTransport) reset() {
	f.broadcast = nil
	f.sent = make(map[uint64][]messages.Message)
}

type recordingStats struct {
	joins, shots, hits int
	kills              [][2]uint64
	noKiller           int
}

func (r *recordingStats) RecordJoin(uint64, time.Time) { r.joins++ }
func (r *recordingStats) RecordShot(uint64)            { r.shots++ }
func (r *recordingStats) RecordHit(uint64, float64)    { r.hits++ }
func (r *recordingStats) RecordKill(killer *uint64, victim uint64) {
	if killer == nil {
		r.noKiller++
		return
	}
	r.kills = append(r.kills, [2]uint64{*killer, victim})
}

type recordingEvents struct{ events []eventlog.Event }

func (r *recordingEvents) Write(e eventlog.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEvents) count(typ string) int {
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type recordingObserver struct{ snaps []observer.Snapshot }

func (r *recordingObserver) Publish(s observer.Snapshot) { r.snaps = append(r.snaps, s) }

type harness struct {
	t    *testing.T
	tr   *fakeTransport
	srv  *Server
	now  time.Time
	stat *recordingStats
	evs  *recordingEvents
	obs  *recordingObserver
}

func newHarness(t *testing.T) *harness {
	tr := newFakeTransport(t)
	h := &harness{
		t:    t,
		tr:   tr,
		now:  time.Unix(0, 0),
		stat: &recordingStats{},
		evs:  &recordingEvents{},
		obs:  &recordingObserver{},
	}
	h.srv = NewServer(tr, Options{
		TickRate:          60,
		FireRateTolerance: 0.75,
		Logger:            quietLog(),
		Events:            h.evs,
		Stats:             h.stat,
		Observer:          h.obs,
		ObserveEvery:      2,
	})
	return h
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.now = h.now.Add(time.Second / 60)
		h.srv.Tick(h.now)
	}
}

func (h *harness) join(clientID uint64) messages.EntityID {
	h.t.Helper()
	h.tr.connect(clientID)
	h.tick(1)
	id, ok := h.srv.EntityFor(clientID)
	if !ok {
		h.t.Fatalf("client %d has no entity", clientID)
	}
	return id
}

func (h *harness) kinematic(id messages.EntityID) *mgl64.Vec3 {
	h.t.Helper()
	e, ok := h.srv.entryByID(id)
	if !ok {
		h.t.Fatalf("entity %d missing", id)
	}
	return &netcomponents.Kinematic.Get(e).Position
}

func (h *harness) health(id messages.EntityID) components.HealthData {
	h.t.Helper()
	e, ok := h.srv.entryByID(id)
	if !ok {
		h.t.Fatalf("entity %d missing", id)
	}
	return *components.Health.Get(e)
}

func findAll[T messages.Message](msgs []messages.Message) []T {
	var out []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func rifleShot() messages.PlayerShoot {
	return messages.PlayerShoot{
		Origin:     mgl64.Vec3{0, 0, 0},
		Direction:  mgl64.Vec3{0, 0, -1},
		WeaponType: messages.Rifle,
	}
}

func TestServerSpawnsCube(t *testing.T) {
	h := newHarness(t)
	h.tick(30)

	updates := findAll[messages.RigidBodyUpdate](h.tr.broadcast)
	if len(updates) != 30 {
		t.Fatalf("got %d body updates, want 30", len(updates))
	}
	last := updates[len(updates)-1]
	if last.Position.Y() >= netconfig.CubeSpawn.Y() {
		t.Errorf("cube did not fall: y = %v", last.Position.Y())
	}
}

func TestServerConnectSendsRoster(t *testing.T) {
	h := newHarness(t)
	a := h.join(1)
	h.tr.reset()

	b := h.join(2)

	roster := h.tr.sent[2]
	conns := findAll[messages.PlayerConnected](roster)
	if len(conns) != 1 || conns[0].EntityID != a || conns[0].ClientID != 1 {
		t.Fatalf("roster connects = %+v", conns)
	}
	if states := findAll[messages.PlayerStateUpdate](roster); len(states) != 1 || states[0].EntityID != a {
		t.Errorf("roster states = %+v", states)
	}
	if hp := findAll[messages.HealthUpdate](roster); len(hp) != 1 || hp[0].CurrentHealth != netconfig.MaxHealth {
		t.Errorf("roster health = %+v", hp)
	}
	if bodies := findAll[messages.RigidBodyUpdate](roster); len(bodies) != 1 {
		t.Errorf("roster bodies = %+v", bodies)
	}

	announced := findAll[messages.PlayerConnected](h.tr.broadcast)
	if len(announced) != 1 || announced[0].EntityID != b || announced[0].ClientID != 2 {
		t.Errorf("broadcast connects = %+v", announced)
	}
	if h.srv.PlayerCount() != 2 {
		t.Errorf("player count = %d", h.srv.PlayerCount())
	}
	if h.stat.joins != 2 || h.evs.count(eventlog.TypeConnect) != 2 {
		t.Errorf("joins = %d, connect events = %d", h.stat.joins, h.evs.count(eventlog.TypeConnect))
	}
}

func TestServerAppliesInputsAndEchoesSequence(t *testing.T) {
	h := newHarness(t)
	a := h.join(1)
	h.tr.reset()

	for seq := uint32(1); seq <= 3; seq++ {
		h.tr.deliver(1, messages.PlayerInput{MoveDirection: mgl64.Vec2{0, 1}, SequenceNumber: seq})
	}
	h.tick(1)

	pos := *h.kinematic(a)
	if pos.Z() >= netconfig.DefaultSpawn.Z() {
		t.Errorf("player did not move forward: %v", pos)
	}

	var echoed *messages.PlayerStateUpdate
	for _, s := range findAll[messages.PlayerStateUpdate](h.tr.broadcast) {
		if s.EntityID == a {
			echoed = &s
		}
	}
	if echoed == nil {
		t.Fatal("no state update for player")
	}
	if echoed.SequenceNumber != 3 {
		t.Errorf("sequence = %d, want 3", echoed.SequenceNumber)
	}
}

func TestServerStateMarksAppliedInput(t *testing.T) {
	h := newHarness(t)
	a := h.join(1)
	h.tr.reset()
	h.tick(1)

	own := func() messages.PlayerStateUpdate {
		t.Helper()
		var last *messages.PlayerStateUpdate
		for _, s := range findAll[messages.PlayerStateUpdate](h.tr.broadcast) {
			if s.EntityID == a {
				last = &s
			}
		}
		if last == nil {
			t.Fatal("no state update for player")
		}
		return *last
	}

	if u := own(); u.InputApplied {
		t.Errorf("update before any input claims seq %d applied", u.SequenceNumber)
	}

	h.tr.reset()
	h.tr.deliver(1, messages.PlayerInput{SequenceNumber: 0})
	h.tick(1)
	if u := own(); !u.InputApplied || u.SequenceNumber != 0 {
		t.Errorf("update after input 0 = %+v", u)
	}
}

func TestServerDropsMalformedMessages(t *testing.T) {
	h := newHarness(t)
	a := h.join(1)

	h.tr.deliverRaw(1, messages.ChannelReliable, []byte{0xff, 0x01})
	h.tr.deliverRaw(1, messages.ChannelReliable, []byte{byte(messages.KindPlayerInput), 0xc1})
	h.tr.deliver(1, messages.PlayerInput{MoveDirection: mgl64.Vec2{1, 0}, SequenceNumber: 9})
	h.tick(1)

	e, _ := h.srv.entryByID(a)
	if got := components.Connection.Get(e).LastInputSeq; got != 9 {
		t.Errorf("last input seq = %d, want 9", got)
	}
}

func TestServerRifleHit(t *testing.T) {
	h := newHarness(t)
	h.join(1)
	b := h.join(2)
	*h.kinematic(b) = mgl64.Vec3{0, 0, -10}
	h.tr.reset()

	h.tr.deliver(1, rifleShot())
	h.tick(1)

	hp := findAll[messages.HealthUpdate](h.tr.broadcast)
	if len(hp) != 1 {
		t.Fatalf("health updates = %+v", hp)
	}
	if hp[0].EntityID != b || hp[0].CurrentHealth != 65 || hp[0].MaxHealth != 100 {
		t.Errorf("health update = %+v", hp[0])
	}
	hits := findAll[messages.ProjectileHit](h.tr.broadcast)
	if len(hits) != 1 || hits[0].Damage != 35 {
		t.Errorf("projectile hits = %+v", hits)
	}
	if h.stat.shots != 1 || h.stat.hits != 1 || h.evs.count(eventlog.TypeHit) != 1 {
		t.Errorf("shots=%d hits=%d events=%d", h.stat.shots, h.stat.hits, h.evs.count(eventlog.TypeHit))
	}
}

func TestServerShotMissLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	h.join(1)
	b := h.join(2)
	*h.kinematic(b) = mgl64.Vec3{10, 0, 0}
	h.tr.reset()

	h.tr.deliver(1, rifleShot())
	h.tick(1)

	if hp := findAll[messages.HealthUpdate](h.tr.broadcast); len(hp) != 0 {
		t.Errorf("unexpected health updates %+v", hp)
	}
	if got := h.health(b).Current; got != 100 {
		t.Errorf("health = %v", got)
	}
}

func TestServerShooterNeverHitsItself(t *testing.T) {
	h := newHarness(t)
	a := h.join(1)
	*h.kinematic(a) = mgl64.Vec3{0, 0, -5}

	h.tr.deliver(1, rifleShot())
	h.tick(1)

	if got := h.health(a).Current; got != 100 {
		t.Errorf("shooter health = %v", got)
	}
}

func TestServerHitsTargetOnGridCellEdge(t *testing.T) {
	h := newHarness(t)
	h.join(1)
	b := h.join(2)
	*h.kinematic(b) = mgl64.Vec3{-7.6, 0.9, -20}
	h.tr.reset()

	h.tr.deliver(1, messages.PlayerShoot{
		Origin:     mgl64.Vec3{-6.1, 0.9, 0},
		Direction:  mgl64.Vec3{0, 0, -1},
		WeaponType: messages.Rifle,
	})
	h.tick(1)

	if got := h.health(b).Current; got != 65 {
		t.Errorf("health = %v, want 65", got)
	}
}

func TestServerDropsNonFiniteShots(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name      string
		origin    mgl64.Vec3
		direction mgl64.Vec3
	}{
		{"nan direction", mgl64.Vec3{}, mgl64.Vec3{nan, 0, -1}},
		{"inf direction", mgl64.Vec3{}, mgl64.Vec3{0, 0, -inf}},
		{"nan origin", mgl64.Vec3{0, nan, 0}, mgl64.Vec3{0, 0, -1}},
		{"zero direction", mgl64.Vec3{}, mgl64.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.join(1)
			b := h.join(2)
			*h.kinematic(b) = mgl64.Vec3{0, 0, -10}
			far := h.join(3)
			*h.kinematic(far) = mgl64.Vec3{5000, 0.9, 5000}

			h.tr.deliver(1, messages.PlayerShoot{Origin: tt.origin, Direction: tt.direction, WeaponType: messages.Rifle})
			h.tick(1)

			if got := h.health(b).Current; got != 100 {
				t.Errorf("target health = %v", got)
			}
			if got := h.health(far).Current; got != 100 {
				t.Errorf("far player health = %v", got)
			}
			if h.stat.shots != 0 {
				t.Errorf("recorded %d shots", h.stat.shots)
			}
		})
	}
}

func TestServerEnforcesFireRate(t *testing.T) {
	h := newHarness(t)
	h.join(1)
	b := h.join(2)
	*h.kinematic(b) = mgl64.Vec3{0, 0, -10}

	h.tr.deliver(1, rifleShot())
	h.tr.deliver(1, rifleShot())
	h.tick(1)

	if got := h.health(b).Current; got != 65 {
		t.Fatalf("health after burst = %v, want 65", got)
	}

	h.tick(10)
	h.tr.deliver(1, rifleShot())
	h.tick(1)
	if got := h.health(b).Current; got != 30 {
		t.Errorf("health after cooldown = %v, want 30", got)
	}
}

func TestServerIgnoresUnknownWeapon(t *testing.T) {
	h := newHarness(t)
	h.join(1)
	b := h.join(2)
	*h.kinematic(b) = mgl64.Vec3{0, 0, -10}

	shot := rifleShot()
	shot.WeaponType = 42
	h.tr.deliver(1, shot)
	h.tick(1)

	if got := h.health(b).Current; got != 100 {
		t.Errorf("health = %v", got)
	}
}

func TestServerDeathAndRespawn(t *testing.T) {
	h := newHarness(t)
	a := h.join(1)
	b := h.join(2)

	for i := 0; i < 3; i++ {
		*h.kinematic(b) = mgl64.Vec3{0, 0, -10}
		h.tr.reset()
		h.tr.deliver(1, rifleShot())
		h.tick(1)
		h.tick(10)
	}

	if got := h.health(b); got.Current != 100 || got.LastAttacker != nil {
		t.Errorf("health after respawn = %+v", got)
	}
	if pos := *h.kinematic(b); !pos.ApproxEqual(netconfig.DefaultSpawn) {
		t.Errorf("respawn position = %v", pos)
	}

	died := findAll[messages.PlayerDied](h.tr.broadcast)
	if len(died) != 1 {
		t.Fatalf("died messages = %+v", died)
	}
	if died[0].EntityID != b || died[0].KillerID == nil || *died[0].KillerID != a {
		t.Errorf("died = %+v", died[0])
	}
	respawns := findAll[messages.PlayerRespawn](h.tr.broadcast)
	if len(respawns) != 1 || respawns[0].EntityID != b || !respawns[0].Position.ApproxEqual(netconfig.DefaultSpawn) {
		t.Errorf("respawns = %+v", respawns)
	}

	if len(h.stat.kills) != 1 || h.stat.kills[0] != [2]uint64{1, 2} {
		t.Errorf("kills = %+v", h.stat.kills)
	}
	if h.evs.count(eventlog.TypeDeath) != 1 || h.evs.count(eventlog.TypeRespawn) != 1 {
		t.Errorf("death/respawn events missing")
	}
}

func TestServerDisconnectRemovesPlayer(t *testing.T) {
	h := newHarness(t)
	a := h.join(1)
	h.join(2)
	h.tr.reset()

	h.tr.disconnect(1)
	h.tick(1)

	gone := findAll[messages.PlayerDisconnected](h.tr.broadcast)
	if len(gone) != 1 || gone[0].EntityID != a {
		t.Fatalf("disconnects = %+v", gone)
	}
	if _, ok := h.srv.EntityFor(1); ok {
		t.Error("client 1 still mapped")
	}
	if _, ok := h.srv.entities.Get(a); ok {
		t.Error("entity id still mapped")
	}
	if h.srv.PlayerCount() != 1 {
		t.Errorf("player count = %d", h.srv.PlayerCount())
	}
	for _, s := range findAll[messages.PlayerStateUpdate](h.tr.broadcast) {
		if s.EntityID == a {
			t.Error("state broadcast for removed player")
		}
	}

	// A late input from the dropped client is ignored.
	h.tr.ids[1] = true
	h.tr.deliver(1, messages.PlayerInput{MoveDirection: mgl64.Vec2{0, 1}, SequenceNumber: 5})
	h.tr.deliver(1, rifleShot())
	h.tick(1)
	if _, ok := h.srv.EntityFor(1); ok {
		t.Error("late input resurrected the player")
	}
}

func TestServerPublishesSnapshots(t *testing.T) {
	h := newHarness(t)
	h.join(1)
	h.tick(3)

	if len(h.obs.snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(h.obs.snaps))
	}
	last := h.obs.snaps[len(h.obs.snaps)-1]
	if last.Tick != 4 || len(last.Entities) != 2 {
		t.Errorf("snapshot = %+v", last)
	}
}

// Package scenes wires the client's networked play session: it owns the ECS
// world and drives the connection and systems once per frame.
package scenes

import (
	"errors"
	"fmt"
	"time"

	"github.com/automoto/voxelfront/network"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/systems"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// ErrDisconnected is returned by Update once the connection is gone.
var ErrDisconnected = errors.New("disconnected from server")

type (
	Renderer    = systems.Renderer
	InputSource = systems.InputSource
)

// Connection is the client end of the game connection. *network.Client
// implements it.
type Connection interface {
	Update(now time.Time)
	Flush(now time.Time)
	State() network.ClientState
	ClientID() uint64
	LastError() error
	Drain() []messages.Message
	SendMessage(msg messages.Message) error
}

type NetworkedScene struct {
	ecsWorld *ecs.ECS
	conn     Connection
	input    InputSource
	session  *systems.Session
	log      *logrus.Entry
	joined   bool
}

func NewNetworkedScene(conn Connection, input InputSource, renderer Renderer, settings network.Settings, log *logrus.Entry) *NetworkedScene {
	ns := &NetworkedScene{
		ecsWorld: ecs.NewECS(donburi.NewWorld()),
		conn:     conn,
		input:    input,
		session:  systems.NewSession(renderer, conn, log),
		log:      log.WithField("component", "scene"),
	}
	if _, ok := settings.Weapon.Stats(); ok {
		ns.session.Weapon = settings.Weapon
	}
	if settings.MouseSensitivity > 0 {
		ns.session.MouseSensitivity = settings.MouseSensitivity
	}

	ns.ecsWorld.AddSystem(systems.NewLookSystem(ns.session))
	ns.ecsWorld.AddSystem(systems.NewNetworkInputSystem(ns.session))
	ns.ecsWorld.AddSystem(systems.NewShootSystem(ns.session))
	ns.ecsWorld.AddSystem(systems.NewNetworkSyncSystem(ns.session, conn.Drain))
	return ns
}

// Update runs one client frame of dt seconds: receive, capture and predict,
// apply server messages, send.
func (ns *NetworkedScene) Update(now time.Time, dt float64) error {
	ns.conn.Update(now)

	switch ns.conn.State() {
	case network.StateConnecting:
		ns.conn.Flush(now)
		return nil
	case network.StateDisconnected, network.StateError:
		if err := ns.conn.LastError(); err != nil {
			return fmt.Errorf("%w: %v", ErrDisconnected, err)
		}
		return ErrDisconnected
	}

	if !ns.joined {
		ns.joined = true
		ns.log.WithField("client_id", ns.conn.ClientID()).Info("joined server")
	}

	ns.session.ClientID = ns.conn.ClientID()
	ns.session.Input = ns.input.Poll()
	ns.session.Dt = dt
	ns.ecsWorld.Update()

	ns.conn.Flush(now)
	return nil
}

func (ns *NetworkedScene) HUD() systems.HUD {
	return *ns.session.HUD
}

func (ns *NetworkedScene) World() donburi.World {
	return ns.ecsWorld.World
}

func (ns *NetworkedScene) Session() *systems.Session {
	return ns.session
}

// Command voxelfront is the headless game client. It connects to a server,
// plays a scripted input pattern and logs what a renderer would draw.
package main

import (
	"context"
	"errors"
	"flag"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/automoto/voxelfront/config"
	"github.com/automoto/voxelfront/logger"
	"github.com/automoto/voxelfront/network"
	"github.com/automoto/voxelfront/scenes"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/shared/transport"
	"github.com/automoto/voxelfront/systems"
	"github.com/sirupsen/logrus"
)

const frameRate = 60

// logRenderer stands in for the 3D scene graph.
type logRenderer struct {
	log *logrus.Entry
}

func (r logRenderer) Spawn(id messages.EntityID, kind systems.EntityKind, t netcomponents.TransformData) {
	r.log.WithFields(logrus.Fields{"entity_id": uint64(id), "kind": kind, "pos": t.Position}).Info("spawn")
}

func (r logRenderer) Despawn(id messages.EntityID) {
	r.log.WithField("entity_id", uint64(id)).Info("despawn")
}

func (r logRenderer) UpdateTransform(id messages.EntityID, t netcomponents.TransformData) {
	r.log.WithFields(logrus.Fields{"entity_id": uint64(id), "pos": t.Position}).Trace("transform")
}

// patrol walks forward, sweeps the camera and fires in bursts.
type patrol struct {
	frame int
}

func (p *patrol) Poll() systems.RawInput {
	p.frame++
	phase := float64(p.frame) / frameRate
	return systems.RawInput{
		Forward:   int(phase)%4 < 2,
		Back:      int(phase)%4 >= 2,
		Jump:      p.frame%(3*frameRate) == 0,
		Fire:      int(phase*2)%3 == 0,
		PointerDX: 4 * math.Sin(phase),
	}
}

func pickServer(ctx context.Context, masterURL string, protocolID uint64, log *logrus.Entry) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	servers, err := network.ListServers(ctx, &http.Client{}, masterURL, protocolID)
	if err != nil {
		log.WithError(err).Warn("server browser unavailable")
		return "", false
	}
	for _, s := range servers {
		if !s.Full() {
			log.WithFields(logrus.Fields{"name": s.Name, "addr": s.Address, "players": s.Players}).Info("picked server")
			return s.Address, true
		}
	}
	return "", false
}

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config")
	server := flag.String("server", "", "Server address host:port (overrides config and saved settings)")
	browse := flag.Bool("browse", false, "Pick a server from the master registry")
	duration := flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	base := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		base.WithError(err).Fatal("load config")
	}
	log := logrus.NewEntry(base)

	weapon, err := messages.ParseWeapon(cfg.Client.Weapon)
	if err != nil {
		log.WithError(err).Fatal("invalid weapon")
	}
	defaults := network.Settings{
		LastServer:       cfg.Client.ServerAddr,
		MouseSensitivity: cfg.Client.MouseSensitivity,
		Weapon:           weapon,
	}

	var store network.ItemStore
	settings := defaults
	if m, err := network.OpenStore(cfg.Client.AppName); err != nil {
		log.WithError(err).Warn("settings will not persist")
	} else {
		store = m
		if settings, err = network.LoadSettings(store, defaults); err != nil {
			log.WithError(err).Warn("could not load settings")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	addr := settings.LastServer
	if *browse && cfg.Master.URL != "" {
		if picked, ok := pickServer(ctx, cfg.Master.URL, cfg.Server.ProtocolID, log); ok {
			addr = picked
		}
	}
	if *server != "" {
		addr = *server
	}

	conn, err := network.Connect(transport.ClientConfig{
		ServerAddr: addr,
		ProtocolID: cfg.Server.ProtocolID,
		ClientID:   settings.ClientID,
		Timeout:    cfg.Server.ClientTimeout,
		Logger:     log,
	}, time.Now())
	if err != nil {
		log.WithError(err).Fatal("connect")
	}
	defer conn.Disconnect()

	scene := scenes.NewNetworkedScene(conn, &patrol{}, logRenderer{log: log.WithField("component", "renderer")}, settings, log)

	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()
	hudTicker := time.NewTicker(2 * time.Second)
	defer hudTicker.Stop()

	last := time.Now()
	saved := false
	for {
		select {
		case <-ctx.Done():
			log.WithField("hud", scene.HUD().String()).Info("client stopped")
			return
		case <-hudTicker.C:
			log.WithField("hud", scene.HUD().String()).Info("status")
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := scene.Update(now, dt); err != nil {
				if errors.Is(err, scenes.ErrDisconnected) {
					log.WithError(err).Error("connection lost")
					return
				}
				log.WithError(err).Fatal("frame failed")
			}

			if !saved && store != nil && conn.State() == network.StateConnected {
				settings.ClientID = conn.ClientID()
				settings.LastServer = addr
				if err := network.SaveSettings(store, settings); err != nil {
					log.WithError(err).Warn("could not save settings")
				}
				saved = true
			}
		}
	}
}

// Command server runs the dedicated, headless game server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/automoto/voxelfront/config"
	"github.com/automoto/voxelfront/eventlog"
	"github.com/automoto/voxelfront/logger"
	"github.com/automoto/voxelfront/observer"
	"github.com/automoto/voxelfront/server/core"
	"github.com/automoto/voxelfront/shared/transport"
	"github.com/automoto/voxelfront/stats"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config")
	host := flag.String("host", "", "Bind address (overrides config)")
	port := flag.Int("port", 0, "UDP port (overrides config)")
	tickRate := flag.Int("tickrate", 0, "Simulation ticks per second (overrides config)")
	name := flag.String("name", "", "Server display name (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	base := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		base.WithError(err).Fatal("load config")
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *tickRate != 0 {
		cfg.Server.TickRate = *tickRate
	}
	if *name != "" {
		cfg.Server.Name = *name
	}
	if err := cfg.Validate(); err != nil {
		base.WithError(err).Fatal("invalid config")
	}
	log := logrus.NewEntry(base)

	tr, err := transport.Listen(transport.ServerConfig{
		Addr:       cfg.Server.Addr(),
		ProtocolID: cfg.Server.ProtocolID,
		MaxClients: cfg.Server.MaxClients,
		Timeout:    cfg.Server.ClientTimeout,
		Logger:     log,
	})
	if err != nil {
		log.WithError(err).WithField("addr", cfg.Server.Addr()).Fatal("bind failed")
	}
	defer tr.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := core.Options{
		TickRate:          cfg.Server.TickRate,
		FireRateTolerance: cfg.Server.FireRateTolerance,
		Logger:            log,
		ObserveEvery:      cfg.Observer.EveryTicks,
	}

	if cfg.EventLog.Enabled {
		w := eventlog.NewWriter(cfg.EventLog.Dir, "match")
		defer w.Close()
		opts.Events = w
	}

	if cfg.Stats.Enabled {
		store, err := stats.Open(cfg.Stats.Path)
		if err != nil {
			log.WithError(err).Fatal("open stats")
		}
		defer store.Close()
		opts.Stats = store
	}

	if cfg.Observer.Enabled {
		hub := observer.NewHub(log)
		opts.Observer = hub
		go func() {
			if err := observer.Serve(ctx, cfg.Observer.Addr, hub); err != nil {
				log.WithError(err).Error("observer stopped")
			}
		}()
	}

	server := core.NewServer(tr, opts)

	if cfg.Master.URL != "" {
		addr := cfg.Master.PublicAddr
		if addr == "" {
			addr = tr.Addr().String()
		}
		reg := core.NewRegistration(cfg.Master.URL, core.Listing{
			Name:       cfg.Server.Name,
			Address:    addr,
			MaxPlayers: cfg.Server.MaxClients,
			ProtocolID: cfg.Server.ProtocolID,
			TickRate:   cfg.Server.TickRate,
		}, server, log)
		go reg.Run(ctx)
	}

	log.WithFields(logrus.Fields{
		"name":      cfg.Server.Name,
		"addr":      tr.Addr().String(),
		"tick_rate": cfg.Server.TickRate,
		"protocol":  cfg.Server.ProtocolID,
	}).Info("server started")

	server.Run(ctx)
	log.Info("shutting down")
}

// Command master runs the HTTP registry that game servers announce
// themselves to and clients browse.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/automoto/voxelfront/config"
	"github.com/automoto/voxelfront/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	ttl := flag.Duration("ttl", 0, "Server TTL before expiry (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	base := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		base.WithError(err).Fatal("load config")
	}
	if *listen != "" {
		cfg.Master.Listen = *listen
	}
	if *ttl > 0 {
		cfg.Master.TTL = *ttl
	}
	log := base.WithField("component", "master")

	reg := NewRegistry(cfg.Master.TTL, log)
	stop := make(chan struct{})
	go reg.RunExpiry(cfg.Master.TTL/3, stop)

	srv := &http.Server{
		Addr:              cfg.Master.Listen,
		Handler:           Routes(reg, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		close(stop)
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{"addr": srv.Addr, "ttl": cfg.Master.TTL}).Info("starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("serve")
	}
}

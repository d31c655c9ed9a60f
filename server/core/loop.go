package core

import (
	"context"
	"sync"
	"time"
)

type GameLoop struct {
	server   *Server
	tickRate int
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewGameLoop(server *Server, tickRate int) *GameLoop {
	return &GameLoop{
		server:   server,
		tickRate: tickRate,
		stopChan: make(chan struct{}),
	}
}

func (g *GameLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(g.tickRate))
	defer ticker.Stop()

	g.server.log.WithField("tick_rate", g.tickRate).Info("game loop started")

	for {
		select {
		case <-ctx.Done():
			g.server.log.Info("game loop stopped")
			return
		case <-g.stopChan:
			g.server.log.Info("game loop stopped")
			return
		case now := <-ticker.C:
			g.server.Tick(now)
		}
	}
}

func (g *GameLoop) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
}

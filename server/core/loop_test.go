package core

import (
	"context"
	"testing"
	"time"
)

func TestGameLoopStops(t *testing.T) {
	srv := NewServer(newFakeTransport(t), Options{TickRate: 200, Logger: quietLog()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on cancel")
	}

	srv2 := NewServer(newFakeTransport(t), Options{TickRate: 200, Logger: quietLog()})
	done2 := make(chan struct{})
	go func() {
		srv2.Run(context.Background())
		close(done2)
	}()
	srv2.Stop()
	srv2.Stop()
	select {
	case <-done2:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on Stop")
	}
}

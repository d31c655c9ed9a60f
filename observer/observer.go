// Package observer serves a read-only JSON view of the authoritative world
// over HTTP and websocket for debugging.
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type EntitySnapshot struct {
	ID       uint64     `json:"id"`
	Kind     string     `json:"kind"`
	ClientID uint64     `json:"client_id,omitempty"`
	Position [3]float64 `json:"pos"`
	Velocity [3]float64 `json:"vel"`
	Health   float64    `json:"health,omitempty"`
}

type Snapshot struct {
	Tick     uint64           `json:"tick"`
	Time     time.Time        `json:"time"`
	Entities []EntitySnapshot `json:"entities"`
}

// Hub fans the most recent snapshot out to websocket subscribers. A slow
// subscriber only ever sees the latest snapshot.
type Hub struct {
	log      *logrus.Entry
	upgrader websocket.Upgrader

	mu     sync.Mutex
	latest []byte
	subs   map[uint64]chan []byte
	nextID atomic.Uint64
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		log: log.WithField("component", "observer"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[uint64]chan []byte),
	}
}

// Publish encodes s and offers it to every subscriber without blocking.
func (h *Hub) Publish(s Snapshot) {
	b, err := json.Marshal(s)
	if err != nil {
		h.log.WithError(err).Warn("encode snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = b
	for _, ch := range h.subs {
		select { // drain stale, push latest
		case <-ch:
		default:
		}
		ch <- b
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe() (uint64, chan []byte) {
	id := h.nextID.Add(1)
	ch := make(chan []byte, 1)
	h.mu.Lock()
	h.subs[id] = ch
	if h.latest != nil {
		ch <- h.latest
	}
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Handler routes /debug/state and /debug/ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/state", h.handleState)
	mux.HandleFunc("/debug/ws", h.handleWS)
	return mux
}

func (h *Hub) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.mu.Lock()
	b := h.latest
	h.mu.Unlock()
	if b == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, ch := h.subscribe()
	defer h.unsubscribe(id)
	h.log.WithField("remote", r.RemoteAddr).Debug("observer attached")

	// The reader only notices the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case b := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

// Serve runs the observer HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, h *Hub) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package core

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

type fixedCount int

func (c fixedCount) PlayerCount() int { return int(c) }

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeMaster struct {
	mu         sync.Mutex
	registered []regRequest
	beats      []heartbeatRequest
	known      bool
}

func (m *fakeMaster) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /servers/register", func(w http.ResponseWriter, r *http.Request) {
		var req regRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		m.mu.Lock()
		m.registered = append(m.registered, req)
		m.known = true
		m.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(regResponse{ID: "abc"})
	})
	mux.HandleFunc("POST /servers/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		var req heartbeatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		m.mu.Lock()
		defer m.mu.Unlock()
		m.beats = append(m.beats, req)
		if !m.known {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestRegistrationAnnouncesListing(t *testing.T) {
	m := &fakeMaster{}
	srv := httptest.NewServer(m.handler())
	defer srv.Close()

	r := NewRegistration(srv.URL, Listing{
		Name: "arena", Address: "10.0.0.1:5000", MaxPlayers: 64, ProtocolID: 7, TickRate: 60,
	}, fixedCount(2), quietLog())

	ctx := context.Background()
	if err := r.register(ctx); err != nil {
		t.Fatal(err)
	}
	if r.serverID != "abc" {
		t.Fatalf("server id = %q", r.serverID)
	}
	got := m.registered[0]
	if got.Players != 2 || got.ProtocolID != 7 || got.TickRate != 60 || got.Address != "10.0.0.1:5000" {
		t.Errorf("unexpected registration %+v", got)
	}

	if err := r.beat(ctx); err != nil {
		t.Fatal(err)
	}
	if len(m.beats) != 1 || m.beats[0].ID != "abc" || m.beats[0].Players != 2 {
		t.Errorf("unexpected heartbeats %+v", m.beats)
	}
}

func TestRegistrationReRegistersWhenForgotten(t *testing.T) {
	m := &fakeMaster{}
	srv := httptest.NewServer(m.handler())
	defer srv.Close()

	r := NewRegistration(srv.URL, Listing{Name: "arena", Address: "a:1", ProtocolID: 7}, fixedCount(0), quietLog())
	ctx := context.Background()
	if err := r.register(ctx); err != nil {
		t.Fatal(err)
	}

	m.mu.Lock()
	m.known = false
	m.mu.Unlock()

	if err := r.beat(ctx); err != nil {
		t.Fatal(err)
	}
	if len(m.registered) != 2 {
		t.Errorf("registrations = %d, want 2", len(m.registered))
	}
}

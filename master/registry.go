package main

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServerInfo describes a game server visible to clients. Address is the UDP
// endpoint the game transport listens on.
type ServerInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	ProtocolID uint64 `json:"protocolId"`
	TickRate   int    `json:"tickRate"`
	Region     string `json:"region,omitempty"`
}

type serverRecord struct {
	info     ServerInfo
	lastSeen time.Time
}

// Registry is an in-memory store of active game servers. Entries that miss
// heartbeats for longer than the TTL are expired.
type Registry struct {
	log *logrus.Entry
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	servers map[string]*serverRecord
}

func NewRegistry(ttl time.Duration, log *logrus.Entry) *Registry {
	return &Registry{
		log:     log,
		ttl:     ttl,
		now:     time.Now,
		servers: make(map[string]*serverRecord),
	}
}

func (r *Registry) Register(info ServerInfo) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	info.ID = hex.EncodeToString(b[:])

	r.mu.Lock()
	r.servers[info.ID] = &serverRecord{info: info, lastSeen: r.now()}
	r.mu.Unlock()
	return info.ID
}

// Heartbeat refreshes a server's player count and expiry. It reports false
// for unknown ids so the server knows to register again.
func (r *Registry) Heartbeat(id string, players int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.servers[id]
	if !ok {
		return false
	}
	rec.lastSeen = r.now()
	rec.info.Players = players
	return true
}

// List returns the live servers ordered by name, then id.
func (r *Registry) List() []ServerInfo {
	r.mu.RLock()
	result := make([]ServerInfo, 0, len(r.servers))
	for _, rec := range r.servers {
		result = append(result, rec.info)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Expire drops every server not seen within the TTL and returns how many
// were removed.
func (r *Registry) Expire() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, rec := range r.servers {
		if age := now.Sub(rec.lastSeen); age >= r.ttl {
			r.log.WithFields(logrus.Fields{
				"server_id": id,
				"name":      rec.info.Name,
				"last_seen": age.Round(time.Second),
			}).Info("expired server")
			delete(r.servers, id)
			removed++
		}
	}
	return removed
}

// RunExpiry calls Expire every interval until stop is closed.
func (r *Registry) RunExpiry(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.Expire()
		}
	}
}

package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HeartbeatInterval is how often a registered server refreshes its entry.
const HeartbeatInterval = 30 * time.Second

// PlayerCounter reports the live player count. *Server implements it.
type PlayerCounter interface {
	PlayerCount() int
}

// Listing is what the server announces to the master registry.
type Listing struct {
	Name       string
	Address    string
	MaxPlayers int
	ProtocolID uint64
	TickRate   int
	Region     string
}

// Registration registers with the master server and keeps the entry alive.
type Registration struct {
	masterURL string
	listing   Listing
	players   PlayerCounter
	client    *http.Client
	log       *logrus.Entry
	interval  time.Duration

	serverID string
}

type regRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	ProtocolID uint64 `json:"protocolId"`
	TickRate   int    `json:"tickRate"`
	Region     string `json:"region,omitempty"`
}

type regResponse struct {
	ID string `json:"id"`
}

type heartbeatRequest struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
}

func NewRegistration(masterURL string, listing Listing, players PlayerCounter, log *logrus.Entry) *Registration {
	return &Registration{
		masterURL: masterURL,
		listing:   listing,
		players:   players,
		client:    &http.Client{Timeout: 5 * time.Second},
		log:       log.WithField("component", "registration"),
		interval:  HeartbeatInterval,
	}
}

// Run registers and then heartbeats until ctx is cancelled. Failures are
// logged and retried on the next beat.
func (r *Registration) Run(ctx context.Context) {
	if err := r.register(ctx); err != nil {
		r.log.WithError(err).Warn("initial registration failed")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.beat(ctx); err != nil {
				r.log.WithError(err).Warn("heartbeat failed")
			}
		}
	}
}

func (r *Registration) beat(ctx context.Context) error {
	if r.serverID == "" {
		return r.register(ctx)
	}
	return r.sendHeartbeat(ctx)
}

func (r *Registration) post(ctx context.Context, path string, v any) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.masterURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	return resp, nil
}

func (r *Registration) register(ctx context.Context) error {
	resp, err := r.post(ctx, "/servers/register", regRequest{
		Name:       r.listing.Name,
		Address:    r.listing.Address,
		Players:    r.players.PlayerCount(),
		MaxPlayers: r.listing.MaxPlayers,
		ProtocolID: r.listing.ProtocolID,
		TickRate:   r.listing.TickRate,
		Region:     r.listing.Region,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result regResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	r.serverID = result.ID
	r.log.WithField("server_id", r.serverID).Info("registered with master")
	return nil
}

func (r *Registration) sendHeartbeat(ctx context.Context) error {
	resp, err := r.post(ctx, "/servers/heartbeat", heartbeatRequest{
		ID:      r.serverID,
		Players: r.players.PlayerCount(),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		r.log.Info("master lost our registration, re-registering")
		r.serverID = ""
		return r.register(ctx)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

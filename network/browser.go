package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ServerEntry is one game server as listed by the master registry.
type ServerEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	ProtocolID uint64 `json:"protocolId"`
	TickRate   int    `json:"tickRate"`
	Region     string `json:"region,omitempty"`
}

// Full reports whether the server has no free slots.
func (e ServerEntry) Full() bool {
	return e.MaxPlayers > 0 && e.Players >= e.MaxPlayers
}

// ListServers queries the master registry and keeps only servers speaking
// protocolID.
func ListServers(ctx context.Context, hc *http.Client, masterURL string, protocolID uint64) ([]ServerEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(masterURL, "/")+"/servers", nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("master server query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("master server returned status %d", resp.StatusCode)
	}

	var all []ServerEntry
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, fmt.Errorf("decode server list: %w", err)
	}

	out := all[:0]
	for _, s := range all {
		if s.ProtocolID == protocolID {
			out = append(out, s)
		}
	}
	return out, nil
}

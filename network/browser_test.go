package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListServersFiltersProtocol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/servers" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode([]ServerEntry{
			{ID: "a", Name: "alpha", Address: "1.1.1.1:5000", ProtocolID: 7, Players: 4, MaxPlayers: 4},
			{ID: "b", Name: "old", Address: "2.2.2.2:5000", ProtocolID: 6},
		})
	}))
	defer srv.Close()

	hc := &http.Client{Timeout: time.Second}
	got, err := ListServers(context.Background(), hc, srv.URL+"/", 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("got %+v", got)
	}
	if !got[0].Full() {
		t.Error("server with 4/4 players not full")
	}
}

func TestListServersStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := ListServers(context.Background(), srv.Client(), srv.URL, 7); err == nil {
		t.Error("expected error")
	}
}

package main

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type registerRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	ProtocolID uint64 `json:"protocolId"`
	TickRate   int    `json:"tickRate"`
	Region     string `json:"region"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type heartbeatRequest struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
}

const maxRequestBody = 1 << 16 // 64 KB

// Routes mounts the registry endpoints.
func Routes(reg *Registry, log *logrus.Entry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /servers", ListServers(reg, log))
	mux.HandleFunc("POST /servers/register", RegisterServer(reg, log))
	mux.HandleFunc("POST /servers/heartbeat", Heartbeat(reg))
	mux.HandleFunc("GET /health", Health())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}

func ListServers(reg *Registry, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := writeJSON(w, http.StatusOK, reg.List()); err != nil {
			log.WithError(err).Warn("list encode failed")
		}
	}
}

func RegisterServer(reg *Registry, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Name == "" || req.Address == "" {
			writeError(w, http.StatusBadRequest, "name and address required")
			return
		}
		if req.ProtocolID == 0 {
			writeError(w, http.StatusBadRequest, "protocolId required")
			return
		}

		id := reg.Register(ServerInfo{
			Name:       req.Name,
			Address:    req.Address,
			Players:    req.Players,
			MaxPlayers: req.MaxPlayers,
			ProtocolID: req.ProtocolID,
			TickRate:   req.TickRate,
			Region:     req.Region,
		})

		log.WithFields(logrus.Fields{
			"server_id": id,
			"name":      req.Name,
			"address":   req.Address,
		}).Info("registered server")

		_ = writeJSON(w, http.StatusCreated, registerResponse{ID: id})
	}
}

func Heartbeat(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		var req heartbeatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if !reg.Heartbeat(req.ID, req.Players) {
			writeError(w, http.StatusNotFound, "unknown server")
			return
		}
		_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

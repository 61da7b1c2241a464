package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/relaykit/conduit/pkg/models"
)

// handleAdminAgents is GET /api/admin/agents: the full agent catalog.
func (s *Server) handleAdminAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Registry.All())
}

// handleAdminAgentByID dispatches GET/PUT /api/admin/agents/{id} and
// POST /api/admin/agents/reset/{id}.
func (s *Server) handleAdminAgentByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/agents/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	if id, ok := strings.CutPrefix(path, "reset/"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg, err := s.Registry.Reset(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		cfg, ok := s.Registry.Get(id)
		if !ok {
			http.Error(w, "agent not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		var patch models.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		cfg, err := s.Registry.UpdateAgent(id, patch)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAdminModels is GET /api/admin/models: the cached provider model
// catalog with per-million-token pricing.
func (s *Server) handleAdminModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Catalog.Get())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package httpapi wires the orchestration server's HTTP surface: the chat
// Request Edge, the Builder Flow edge, and the admin endpoints, grounded on
// nexus/internal/gateway/http_server.go's stdlib http.ServeMux + promhttp
// mux wiring.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/catalog"
	"github.com/relaykit/conduit/internal/config"
	"github.com/relaykit/conduit/internal/llmgateway"
	"github.com/relaykit/conduit/internal/registry"
)

// Server holds every dependency the HTTP handlers need. A single Server is
// constructed once at process start; per-request state (the Supervisor, its
// Executor and Emitter) is built fresh inside each handler.
type Server struct {
	Gateway      llmgateway.Gateway
	Registry     *registry.Registry
	ToolRegistry *agent.ToolRegistry
	AntiHalluc   *agent.AntiHallucination
	Catalog      *catalog.Cache
	Config       config.Config
	Logger       *slog.Logger
	StartedAt    time.Time
}

// Mux builds the process's top-level handler, matching the teacher's
// flat ServeMux-plus-promhttp shape rather than a third-party router.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/agent/chat", s.handleChat)
	mux.HandleFunc("/api/builder/chat", s.handleBuilderChat)
	mux.HandleFunc("/api/admin/agents", s.handleAdminAgents)
	mux.HandleFunc("/api/admin/agents/", s.handleAdminAgentByID)
	mux.HandleFunc("/api/admin/models", s.handleAdminModels)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"uptime_sec": int(time.Since(s.StartedAt).Seconds()),
	})
}

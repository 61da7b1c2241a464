package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/pkg/models"
)

// wireMessage is the external JSON shape of one transcript turn: a plain
// role/content pair. Callers never submit raw content blocks — those are an
// internal transcript detail the Supervisor builds up itself.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []wireMessage `json:"messages"`
	Model    string        `json:"model,omitempty"`
}

func decodeWireTranscript(msgs []wireMessage) []models.Message {
	out := make([]models.Message, len(msgs))
	for i, m := range msgs {
		role := models.Role(m.Role)
		switch role {
		case models.RoleAssistant, models.RoleSystem:
			out[i] = models.Message{Role: role, Content: []models.ContentBlock{{Type: models.BlockText, Text: m.Content}}}
		default:
			out[i] = models.UserText(m.Content)
		}
	}
	return out
}

// handleChat is the Request Edge: POST /api/agent/chat. It streams the
// Supervisor's event sequence back over SSE and ends the response once a
// terminal event has been emitted, per §4.9.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "messages is required", http.StatusBadRequest)
		return
	}

	flusher, ok := writeSSEHeader(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	em := agent.NewEmitter(NewSSEFramer(w, flusher))

	sup := &agent.Supervisor{
		Gateway:       s.Gateway,
		Registry:      s.Registry,
		ToolRegistry:  s.ToolRegistry,
		AntiHalluc:    s.AntiHalluc,
		MaxIterations: s.Config.AgentMaxIterations,
		MaxOutput:     s.Config.AgentMaxTokens,
		ModelOverride: req.Model,
		Warn: func(msg string) {
			s.Logger.Warn("supervisor anomaly", slog.String("detail", msg))
		},
	}

	sup.Run(r.Context(), em, decodeWireTranscript(req.Messages))
}

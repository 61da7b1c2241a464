package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/builder"
)

type builderChatRequest struct {
	Messages   []wireMessage   `json:"messages"`
	Files      []string        `json:"files,omitempty"`
	AgentMode  string          `json:"agentMode"`
	RenderMode string          `json:"renderMode"`
	PageState  json.RawMessage `json:"pageState,omitempty"`
	Model      string          `json:"model,omitempty"`
}

// handleBuilderChat is the Builder Flow edge: POST /api/builder/chat. It
// streams either a single terminal actions event or a chunked clarification
// reply, per §4.10.
func (s *Server) handleBuilderChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req builderChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "messages is required", http.StatusBadRequest)
		return
	}

	renderMode := builder.RenderIframe
	if req.RenderMode == string(builder.RenderAST) {
		renderMode = builder.RenderAST
	}
	agentMode := builder.ModeCreation
	if req.AgentMode == string(builder.ModeEdit) {
		agentMode = builder.ModeEdit
	}

	flusher, ok := writeSSEHeader(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	em := agent.NewEmitter(NewSSEFramer(w, flusher))

	flow := &builder.Flow{
		Gateway:      s.Gateway,
		Registry:     s.Registry,
		ToolRegistry: s.ToolRegistry,
		MaxOutput:    s.Config.AgentMaxTokens,
	}

	flow.Run(r.Context(), em, builder.Request{
		Messages:   decodeWireTranscript(req.Messages),
		Files:      req.Files,
		AgentMode:  agentMode,
		RenderMode: renderMode,
		PageState:  req.PageState,
		Model:      req.Model,
	})
}

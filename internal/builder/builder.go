// Package builder implements the Builder Flow: a single bounded
// tool-use specialist turn that edits or creates a page, terminating either
// in a clarifying question or a structured actions payload, per §4.10.
package builder

import (
	"context"
	"encoding/json"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/llmgateway"
	"github.com/relaykit/conduit/internal/registry"
	"github.com/relaykit/conduit/pkg/models"
)

// AgentMode distinguishes a from-scratch page from an edit of an existing
// one; it is folded into the specialist's synthetic context rather than
// affecting which specialist is selected.
type AgentMode string

const (
	ModeCreation AgentMode = "creation"
	ModeEdit     AgentMode = "edit"
)

// RenderMode selects which Builder specialist handles the request: an AST
// page representation (Builder UX, topKey "ast_actions") or a file-backed
// project (Builder Dev, topKey "actions").
type RenderMode string

const (
	RenderAST    RenderMode = "ast"
	RenderIframe RenderMode = "iframe"
)

// clarificationChunkSize bounds each client-visible chunk when a specialist
// asks for clarification instead of returning a structured artifact.
const clarificationChunkSize = 120

// Request is the decoded POST /api/builder/chat body.
type Request struct {
	Messages   []models.Message
	Files      []string
	AgentMode  AgentMode
	RenderMode RenderMode
	PageState  json.RawMessage
	Model      string
}

// Flow drives one Builder Flow turn.
type Flow struct {
	Gateway      llmgateway.Gateway
	Registry     *registry.Registry
	ToolRegistry *agent.ToolRegistry
	MaxOutput    int
}

// Run resolves the specialist for req.RenderMode, runs its bounded tool-use
// loop, and emits either a single actions event carrying the decoded
// artifact or a chunked clarification reply, always ending in done (or
// error on an unrecoverable Gateway failure).
func (f *Flow) Run(ctx context.Context, em *agent.Emitter, req Request) {
	agentID := registry.AgentBuilderDev
	topKey := "actions"
	if req.RenderMode == RenderAST {
		agentID = registry.AgentBuilderUX
		topKey = "ast_actions"
	}

	prompt, _ := f.Registry.GetPrompt(agentID)
	model := req.Model
	if model == "" {
		model = f.Registry.GetModel(agentID)
	}
	tools := f.Registry.GetTools(agentID)

	transcript := buildTranscript(req)

	exec := agent.NewExecutor(f.ToolRegistry, nil)
	runner := agent.NewSpecialistRunner(f.Gateway, exec)
	runner.Events = em

	em.Emit(models.StatusEvent("thinking"))
	output, err := runner.Run(ctx, &transcript, prompt, model, f.MaxOutput, tools)
	if err != nil {
		em.Emit(models.ErrorEvent(err.Error()))
		return
	}

	if payload, ok := ExtractJSON(output, topKey); ok {
		em.Emit(models.ActionsEvent(payload))
		em.Emit(models.DoneEvent())
		return
	}

	agent.StreamChunks(em, output, clarificationChunkSize)
	em.Emit(models.DoneEvent())
}

// buildTranscript assembles the specialist's starting transcript from the
// caller's message history plus the mode/page-state context the route table
// doesn't carry through synthesizeIntent (the Builder Flow has no route
// table — it always talks to exactly one of two specialists directly).
func buildTranscript(req Request) []models.Message {
	out := append([]models.Message{}, req.Messages...)

	modeNote := "The user is creating a new page."
	if req.AgentMode == ModeEdit {
		modeNote = "The user is editing an existing page."
	}
	out = append(out, models.UserText(modeNote))

	if len(req.Files) > 0 {
		b, err := json.Marshal(req.Files)
		if err == nil {
			out = append(out, models.UserText("Project files: "+string(b)))
		}
	}
	if len(req.PageState) > 0 {
		out = append(out, models.UserText("Current page state: "+string(req.PageState)))
	}
	return out
}

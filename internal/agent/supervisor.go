package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaykit/conduit/internal/llmgateway"
	"github.com/relaykit/conduit/internal/registry"
	"github.com/relaykit/conduit/pkg/models"
)

// MaxQACorrectionRetries bounds how many times a non-terminal specialist is
// re-run after a QA rejection, per spec §4.7.
const MaxQACorrectionRetries = 2

// RecentContextTurns is the number of trailing user/assistant turns handed
// to a specialist as context, per §9's resolution of the source's
// inconsistent truncation behavior.
const RecentContextTurns = 5

// streamChunkSize bounds each client-visible chunk when the emitter itself
// splits a non-streamed supervisor reply (§9: "chunked emission can be done
// by the emitter without streaming LLM").
const streamChunkSize = 120

// RouteEntry describes how one supervisor tool name is handled, per the
// route table in spec §3.
type RouteEntry struct {
	AgentID       string
	IsTerminal    bool
	Direct        bool
	FileProducing bool
}

// RouteTable is the constant mapping from supervisor tool names to their
// handling, per spec §3's Route table. ask_browser is a direct-executor
// route: the tool itself (not a specialist agent) is invoked.
var RouteTable = map[string]RouteEntry{
	registry.ToolAskWebSearch:     {AgentID: registry.AgentWebSearch},
	registry.ToolAskFileGenerator: {AgentID: registry.AgentFileGenerator, FileProducing: true},
	registry.ToolAskFileModifier:  {AgentID: registry.AgentFileModifier, FileProducing: true},
	registry.ToolAskDesign:        {AgentID: registry.AgentDesign},
	registry.ToolAskDev:           {AgentID: registry.AgentDev},
	registry.ToolAskBrowser:       {Direct: true},
	registry.ToolGenerateWebPage:  {AgentID: registry.AgentWebPage, IsTerminal: true},
}

// Supervisor runs the ReAct-style state machine of spec §4.7: it consults
// the supervisor agent, routes any tool calls through the route table, and
// streams the final user-visible text or a terminal specialist to the
// client via em.
type Supervisor struct {
	Gateway       llmgateway.Gateway
	Registry      *registry.Registry
	ToolRegistry  *ToolRegistry
	AntiHalluc    *AntiHallucination
	MaxIterations int
	MaxOutput     int

	// ModelOverride, when non-empty, replaces the registry's configured
	// model for every agent consulted during this request (the chat
	// endpoint's optional per-request "model" field).
	ModelOverride string

	// Warn receives a message whenever a non-fatal supervisory anomaly
	// occurs (missing link on a file route, QA exhausted retries). Nil is a
	// valid no-op sink.
	Warn func(msg string)
}

// modelFor resolves the model id to use for agentID, honoring ModelOverride.
func (s *Supervisor) modelFor(agentID string) string {
	if s.ModelOverride != "" {
		return s.ModelOverride
	}
	return s.Registry.GetModel(agentID)
}

// Run drives the loop against transcript (the full user-visible chat
// history so far) and emits events to em until a terminal event is
// produced. Run never returns an error: every failure path is surfaced as
// an `error` event, per spec §7's propagation policy.
func (s *Supervisor) Run(ctx context.Context, em *Emitter, transcript []models.Message) {
	exec := NewExecutor(s.ToolRegistry, nil)

	supervisorPrompt, _ := s.Registry.GetPrompt(registry.AgentSupervisor)
	supervisorModel := s.modelFor(registry.AgentSupervisor)
	supervisorTools := s.Registry.GetTools(registry.AgentSupervisor)

	full := append([]models.Message{systemMessage(supervisorPrompt)}, transcript...)

	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = 8
	}

	for i := 0; i < maxIter; i++ {
		if ctx.Err() != nil {
			return
		}
		if i == 0 {
			em.Emit(models.StatusEvent("analyzing your request"))
		}

		msg, err := s.Gateway.Call(ctx, full, supervisorModel, s.MaxOutput, supervisorTools)
		if err != nil {
			em.Emit(models.ErrorEvent(err.Error()))
			return
		}

		assistant := models.Message{Role: models.RoleAssistant, Content: msg.Content}
		full = append(full, assistant)

		toolUses := assistant.ToolUses()
		if len(toolUses) == 0 {
			streamTextChunks(em, assistant.Text())
			em.Emit(models.DoneEvent())
			return
		}

		terminalHandled := false
		for _, tu := range toolUses {
			entry, ok := RouteTable[tu.ToolName]
			if !ok {
				full = append(full, models.NewToolResult(tu.ID, "ERRO: unknown tool "+tu.ToolName, true))
				continue
			}

			var args map[string]any
			if len(tu.Input) > 0 {
				if err := json.Unmarshal(tu.Input, &args); err != nil {
					full = append(full, models.NewToolResult(tu.ID, "ERRO: invalid JSON arguments for "+tu.ToolName+": "+err.Error(), true))
					continue
				}
			}

			switch {
			case entry.IsTerminal:
				em.Emit(models.StatusEvent("generating " + entry.AgentID))
				s.runTerminal(ctx, em, entry, tu.ToolName, args)
				terminalHandled = true
			case entry.Direct:
				s.runDirect(ctx, em, exec, tu, &full)
			default:
				s.runSpecialist(ctx, em, exec, entry, tu, transcript, args, &full)
			}

			if terminalHandled {
				break
			}
		}

		if terminalHandled {
			return
		}
	}

	em.Emit(models.ErrorEvent("iteration limit reached"))
}

// runTerminal streams a terminal specialist's reply directly to the client
// and ends the request; the supervisor loop never resumes, per §3's
// terminal-tool invariant.
func (s *Supervisor) runTerminal(ctx context.Context, em *Emitter, entry RouteEntry, toolName string, args map[string]any) {
	prompt, _ := s.Registry.GetPrompt(entry.AgentID)
	model := s.modelFor(entry.AgentID)

	intent := synthesizeIntent(toolName, args)
	turns := []models.Message{systemMessage(prompt), models.UserText(intent)}

	deltas, err := s.Gateway.Stream(ctx, turns, model, s.MaxOutput, nil)
	if err != nil {
		em.Emit(models.ErrorEvent(err.Error()))
		return
	}
	for d := range deltas {
		if d.Err != nil {
			em.Emit(models.ErrorEvent(d.Err.Error()))
			return
		}
		if d.Text != "" {
			em.Emit(models.ChunkEvent(d.Text))
		}
		if d.Done {
			break
		}
	}
	em.Emit(models.DoneEvent())
}

// runDirect executes a direct-executor route (ask_browser) and appends its
// observation to the supervisor transcript, per §4.7's browser handling.
func (s *Supervisor) runDirect(ctx context.Context, em *Emitter, exec *Executor, tu models.ContentBlock, full *[]models.Message) {
	var args struct {
		URL     string `json:"url"`
		Actions []struct {
			Type string `json:"type"`
		} `json:"actions"`
	}
	_ = json.Unmarshal(tu.Input, &args)

	actionTypes := make([]string, len(args.Actions))
	for i, a := range args.Actions {
		actionTypes[i] = a.Type
	}

	em.Emit(models.BrowserActionEvent("navigating", args.URL, actionTypes))

	result := exec.Execute(ctx, models.ToolCall{ID: tu.ID, Name: tu.ToolName, Arguments: tu.Input})

	status := "done"
	content := "ERRO: tool produced no result"
	isError := true
	if result.Result != nil {
		content = result.Result.Content
		isError = result.Result.IsError
	}
	if isError {
		status = "error"
	}
	em.Emit(models.BrowserActionEvent(status, args.URL, actionTypes))

	*full = append(*full, models.NewToolResult(tu.ID, content, isError))
	em.Emit(models.StatusEvent("reviewing page content"))
}

// runSpecialist runs the non-terminal specialist sub-loop, QA review with
// up to MaxQACorrectionRetries retries, anti-hallucination link injection,
// and file-route content suppression, per §4.7 point 4.
func (s *Supervisor) runSpecialist(ctx context.Context, em *Emitter, exec *Executor, entry RouteEntry, tu models.ContentBlock, userTranscript []models.Message, args map[string]any, full *[]models.Message) {
	em.Emit(models.StatusEvent("consulting " + entry.AgentID))

	intent := synthesizeIntent(tu.ToolName, args)
	prompt, _ := s.Registry.GetPrompt(entry.AgentID)
	model := s.modelFor(entry.AgentID)
	tools := s.Registry.GetTools(entry.AgentID)

	recent := RecentSlice(userTranscript, RecentContextTurns)
	specialistTranscript := append(append([]models.Message{}, recent...), models.UserText(intent))

	runner := NewSpecialistRunner(s.Gateway, exec)
	runner.Events = em
	qa := NewQAReviewer(s.Gateway, s.modelFor(registry.AgentQA))

	var output string
	var err error
	for attempt := 0; attempt <= MaxQACorrectionRetries; attempt++ {
		output, err = runner.Run(ctx, &specialistTranscript, prompt, model, s.MaxOutput, tools)
		if err != nil {
			*full = append(*full, models.NewToolResult(tu.ID, "ERRO: specialist failed: "+err.Error(), true))
			return
		}

		verdict := qa.Review(ctx, intent, entry.AgentID, output)
		if verdict.Approved {
			break
		}
		if attempt == MaxQACorrectionRetries {
			s.warn(fmt.Sprintf("QA did not approve %s output after %d correction retries", entry.AgentID, MaxQACorrectionRetries))
			break
		}
		specialistTranscript = append(specialistTranscript, models.UserText(correctionPrompt(verdict)))
	}

	if entry.FileProducing {
		linked, found := s.AntiHalluc.EnsureLink(output, specialistTranscript)
		output = linked
		if !found {
			s.warn(fmt.Sprintf("no artifact link found for %s route", entry.AgentID))
		}
	}

	finalContent := output
	if entry.FileProducing {
		finalContent = SuppressForFileRoute(output)
	}
	*full = append(*full, models.NewToolResult(tu.ID, finalContent, false))
	em.Emit(models.StatusEvent(entry.AgentID + " finished"))
}

func (s *Supervisor) warn(msg string) {
	if s.Warn != nil {
		s.Warn(msg)
	}
}

func correctionPrompt(v QAVerdict) string {
	var b strings.Builder
	b.WriteString("The previous response did not pass review.")
	if len(v.Issues) > 0 {
		b.WriteString(" Issues: ")
		b.WriteString(strings.Join(v.Issues, "; "))
	}
	if v.CorrectionInstruction != "" {
		b.WriteString(" ")
		b.WriteString(v.CorrectionInstruction)
	}
	return b.String()
}

// synthesizeIntent builds the synthetic user turn a specialist receives,
// carrying the route's structured intent (query, file-url + instructions,
// etc.), per §4.7.
func synthesizeIntent(toolName string, args map[string]any) string {
	switch toolName {
	case registry.ToolAskWebSearch:
		return fmt.Sprint(args["query"])
	case registry.ToolAskFileModifier:
		return fmt.Sprintf("File: %v\nInstructions: %v", args["file_url"], args["instructions"])
	case registry.ToolAskFileGenerator, registry.ToolAskDesign, registry.ToolAskDev, registry.ToolGenerateWebPage:
		return fmt.Sprint(args["intent"])
	default:
		b, err := json.Marshal(args)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// RecentSlice returns the last n user/assistant turns of transcript, in
// order, per §9's resolution of the recent-context question.
func RecentSlice(transcript []models.Message, n int) []models.Message {
	var filtered []models.Message
	for _, m := range transcript {
		if m.Role == models.RoleUser || m.Role == models.RoleAssistant {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) <= n {
		return filtered
	}
	return filtered[len(filtered)-n:]
}

func systemMessage(prompt string) models.Message {
	return models.Message{Role: models.RoleSystem, Content: []models.ContentBlock{{Type: models.BlockText, Text: prompt}}}
}

// streamTextChunks splits text into small fixed-size chunks and emits each
// as a ChunkEvent, per §9's note that chunked emission does not require a
// streaming LLM call for the supervisor's final tool-free turn.
func streamTextChunks(em *Emitter, text string) {
	StreamChunks(em, text, streamChunkSize)
}

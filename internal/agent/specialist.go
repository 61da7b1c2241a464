package agent

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/relaykit/conduit/internal/llmgateway"
	"github.com/relaykit/conduit/pkg/models"
)

// MaxSpecialistIterations bounds the specialist's own tool-use loop,
// independent of the supervisor's iteration cap.
const MaxSpecialistIterations = 5

// tracePreviewBytes caps the input/result previews carried by tool_call and
// tool_result events.
const tracePreviewBytes = 160

// SpecialistRunner runs a bounded tool-use loop against a single route's
// system prompt, model, and tool schema, per spec §4.4.
type SpecialistRunner struct {
	Gateway  llmgateway.Gateway
	Executor *Executor

	// Events, when set, receives a tool_call event before each tool
	// execution and a tool_result/tool_error event after it, in transcript
	// order.
	Events *Emitter
}

// NewSpecialistRunner builds a SpecialistRunner bound to one request's
// gateway and executor.
func NewSpecialistRunner(gw llmgateway.Gateway, exec *Executor) *SpecialistRunner {
	return &SpecialistRunner{Gateway: gw, Executor: exec}
}

func (r *SpecialistRunner) emit(e models.Event) {
	if r.Events != nil {
		r.Events.Emit(e)
	}
}

// Run drives the loop: call the gateway, dispatch any tool-use blocks,
// append results, repeat until a tool-free turn or the iteration cap.
// transcript is mutated in place so the caller can inspect the full trace
// afterward (used by the Anti-Hallucination Validator).
func (r *SpecialistRunner) Run(ctx context.Context, transcript *[]models.Message, systemPrompt, modelID string, maxOutput int, tools []models.ToolSchema) (string, error) {
	full := append([]models.Message{{Role: models.RoleSystem, Content: []models.ContentBlock{{Type: models.BlockText, Text: systemPrompt}}}}, *transcript...)

	var lastText string
	for i := 0; i < MaxSpecialistIterations; i++ {
		if err := ctx.Err(); err != nil {
			return lastText, err
		}

		msg, err := r.Gateway.Call(ctx, full, modelID, maxOutput, tools)
		if err != nil {
			return lastText, fmt.Errorf("specialist: llm call: %w", err)
		}

		assistant := models.Message{Role: models.RoleAssistant, Content: msg.Content}
		full = append(full, assistant)
		*transcript = append(*transcript, assistant)

		toolUses := assistant.ToolUses()
		if len(toolUses) == 0 {
			lastText = assistant.Text()
			return lastText, nil
		}
		lastText = assistant.Text()

		results := make([]*ExecutionResult, len(toolUses))
		for j, b := range toolUses {
			call := models.ToolCall{ID: b.ID, Name: b.ToolName, Arguments: b.Input}
			r.emit(models.ToolCallEvent(call.Name, previewText(string(call.Arguments))))
			res := r.Executor.Execute(ctx, call)
			results[j] = res
			content, isErr := "", true
			if res.Result != nil {
				content, isErr = res.Result.Content, res.Result.IsError
			}
			r.emit(models.ToolResultEvent(call.Name, res.Duration.Milliseconds(), previewText(content), isErr))
		}
		for _, res := range ResultsToMessages(results) {
			full = append(full, res)
			*transcript = append(*transcript, res)
		}
	}

	return lastText + "\n\n(reached tool-use iteration limit)", nil
}

// previewText truncates s for an observability event without splitting a
// UTF-8 rune.
func previewText(s string) string {
	if len(s) <= tracePreviewBytes {
		return s
	}
	cut := tracePreviewBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Package llmgateway implements the typed, two-operation LLM Gateway: a
// non-streaming Call and a streaming Stream, backed by either Anthropic's
// native API or any OpenAI/OpenRouter-compatible chat completions endpoint.
package llmgateway

import (
	"context"

	"github.com/relaykit/conduit/pkg/models"
)

// Delta is one fragment of a streamed completion: either a text fragment or
// a partial tool-call, indexed so fragments can be reassembled by index.
type Delta struct {
	Index    int
	Text     string
	ToolCall *PartialToolCall
	Done     bool
	Err      error
}

// PartialToolCall accumulates one tool-use block across streamed deltas.
type PartialToolCall struct {
	ID            string
	Name          string
	ArgumentsText string
}

// AssistantMessage is a full assistant turn returned by Call.
type AssistantMessage struct {
	Content      []models.ContentBlock
	InputTokens  int
	OutputTokens int
}

// Gateway is the contract the Supervisor Orchestrator, Specialist Runner,
// and QA Reviewer consume. Implementations must be safe for concurrent use.
type Gateway interface {
	// Call returns a complete assistant turn. Used whenever the caller needs
	// the full tool-call list atomically (every supervisor turn, QA calls).
	Call(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (*AssistantMessage, error)

	// Stream returns an ordered channel of deltas terminated by a Delta with
	// Done == true (or a non-nil Err). Used for terminal-tool specialists
	// and the supervisor's final user-visible text.
	Stream(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (<-chan Delta, error)
}

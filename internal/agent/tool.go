package agent

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"github.com/relaykit/conduit/pkg/models"
)

// Tool is the side-effect-tool contract every dispatch-table entry
// implements, whether it runs a web search, drives a headless browser, or
// executes sandboxed Python.
type Tool interface {
	Name() string
	Description() string
	Schema() models.ToolSchema
	Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error)
}

// ToolResult is the textual outcome of one tool execution, size-capped and
// always UTF-8. A tool never panics its way out of Execute; internal
// failures are converted to IsError results by the registry/executor.
type ToolResult struct {
	Content string
	IsError bool
}

// MaxResultBytes caps the textual size of any single tool result before it
// enters the transcript.
const MaxResultBytes = 64 << 10

func truncateResult(s string) string {
	if len(s) <= MaxResultBytes {
		return s
	}
	cut := MaxResultBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n...(truncated)"
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MaxToolNameLength and MaxToolParamsSize bound registry input to prevent
// resource exhaustion from a misbehaving or hostile model.
const (
	MaxToolNameLength = 256
	MaxToolParamsSize = 10 << 20
)

// ToolRegistry is the thread-safe dispatch table keyed by tool name.
type ToolRegistry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewToolRegistry returns an empty registry ready for tool registration.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds or replaces a tool by its Name(). Its declared ToolSchema is
// compiled into a JSON Schema validator up front, so a bad schema surfaces
// at startup rather than on the first misbehaving model call.
func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Name()
	r.tools[name] = tool
	schema, err := compileArgSchema(tool.Schema())
	if err != nil {
		slog.Warn("tool argument schema did not compile, skipping validation", "tool", name, "error", err)
		delete(r.schemas, name)
		return
	}
	r.schemas[name] = schema
}

// Get returns a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute runs a registered tool by name. It never returns a non-nil error
// for "tool not found" or oversized input — those are surfaced as error
// ToolResults, per the spec's "every failure is a textual marker" policy.
func (r *ToolRegistry) Execute(ctx context.Context, name string, params json.RawMessage) (*ToolResult, error) {
	if len(name) > MaxToolNameLength {
		return &ToolResult{Content: fmt.Sprintf("ERRO: tool name exceeds %d characters", MaxToolNameLength), IsError: true}, nil
	}
	if len(params) > MaxToolParamsSize {
		return &ToolResult{Content: fmt.Sprintf("ERRO: tool arguments exceed %d bytes", MaxToolParamsSize), IsError: true}, nil
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return &ToolResult{Content: "ERRO: tool not found: " + name, IsError: true}, nil
	}
	if err := validateArgs(schema, params); err != nil {
		return &ToolResult{Content: "ERRO: invalid arguments for " + name + ": " + err.Error(), IsError: true}, nil
	}

	result, err := tool.Execute(ctx, params)
	if err != nil {
		if tf, ok := AsToolFailure(err); ok {
			return &ToolResult{Content: tf.Marker(), IsError: true}, nil
		}
		return &ToolResult{Content: "ERRO: " + err.Error(), IsError: true}, nil
	}
	if result == nil {
		return &ToolResult{Content: "ERRO: tool returned no result", IsError: true}, nil
	}
	result.Content = truncateResult(result.Content)
	return result, nil
}

// Schemas returns a snapshot of every registered tool keyed by name; each
// tool's schema is available through its Schema method.
func (r *ToolRegistry) Schemas() map[string]Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Tool, len(r.tools))
	for k, v := range r.tools {
		out[k] = v
	}
	return out
}

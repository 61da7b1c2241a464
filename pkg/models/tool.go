package models

import "encoding/json"

// ToolParam describes one parameter of a ToolSchema.
type ToolParam struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// ToolSchema is a named-parameter schema externalized to the LLM provider in
// its function-calling format.
type ToolSchema struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Params      map[string]ToolParam `json:"params"`
	// ParamOrder records the declared parameter order, since map iteration
	// order is not stable. The provider converters iterate Params directly,
	// so the order of properties sent to a provider is not fixed.
	ParamOrder []string `json:"param_order,omitempty"`
}

// ToolCall is the transient triple the model emits for one tool-use block.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the outcome of dispatching one ToolCall.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// AgentConfig is an immutable-at-read-time record describing one agent_id's
// behavior: its system prompt, target model, and the tool schema it may
// emit.
type AgentConfig struct {
	AgentID      string       `json:"agent_id"`
	DisplayName  string       `json:"display_name"`
	SystemPrompt string       `json:"system_prompt"`
	ModelID      string       `json:"model_id"`
	Tools        []ToolSchema `json:"tools"`
	ModuleLabel  string       `json:"module_label"`
}

// Patch is a sparse update applied to an AgentConfig via the registry's
// write path. A nil field leaves the corresponding AgentConfig field
// untouched.
type Patch struct {
	DisplayName  *string      `json:"display_name,omitempty"`
	SystemPrompt *string      `json:"system_prompt,omitempty"`
	ModelID      *string      `json:"model_id,omitempty"`
	Tools        []ToolSchema `json:"tools,omitempty"`
	ModuleLabel  *string      `json:"module_label,omitempty"`
}

// Apply returns a new AgentConfig with the patch's non-nil fields merged
// over cfg. Re-applying the same patch twice is idempotent.
func (p Patch) Apply(cfg AgentConfig) AgentConfig {
	out := cfg
	if p.DisplayName != nil {
		out.DisplayName = *p.DisplayName
	}
	if p.SystemPrompt != nil {
		out.SystemPrompt = *p.SystemPrompt
	}
	if p.ModelID != nil {
		out.ModelID = *p.ModelID
	}
	if p.Tools != nil {
		out.Tools = p.Tools
	}
	if p.ModuleLabel != nil {
		out.ModuleLabel = *p.ModuleLabel
	}
	return out
}

// Package models defines the wire and transcript types shared across the
// orchestrator, tool executor, and HTTP edges.
package models

import "encoding/json"

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// BlockType distinguishes the two kinds of assistant content block.
type BlockType string

const (
	BlockText    BlockType = "text"
	BlockToolUse BlockType = "tool_use"
)

// ContentBlock is one piece of an assistant turn: either free text or a
// tool-use intent. Exactly one of Text or (ID, ToolName, Input) is populated,
// selected by Type.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// Text is populated when Type == BlockText.
	Text string `json:"text,omitempty"`

	// ID, ToolName, Input are populated when Type == BlockToolUse.
	ID       string          `json:"id,omitempty"`
	ToolName string          `json:"tool_name,omitempty"`
	Input    RawJSON         `json:"input,omitempty"`
}

// RawJSON is tool-call argument JSON kept unparsed until a tool decides how
// to unmarshal it. A malformed value is still representable here; parsing
// failures surface as tool errors, not decode panics.
type RawJSON = json.RawMessage

// Message is a single turn in a chat transcript.
type Message struct {
	Role Role `json:"role"`

	// Content holds assistant content blocks (text and/or tool_use). For
	// user/system turns it is a single text block by convention.
	Content []ContentBlock `json:"content"`

	// ToolUseID, ToolResultText and ToolIsError are populated when Role ==
	// RoleTool: this message is the result of one prior tool-use block.
	ToolUseID      string `json:"tool_use_id,omitempty"`
	ToolResultText string `json:"tool_result,omitempty"`
	ToolIsError    bool   `json:"tool_is_error,omitempty"`
}

// Text returns the concatenation of a message's plain-text content blocks.
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns the tool-use content blocks of an assistant message, in
// emission order.
func (m Message) ToolUses() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// UserText builds a plain user turn from a string, the shape every endpoint
// and specialist synthetic turn uses.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{{Type: BlockText, Text: text}}}
}

// NewToolResult builds the tool-role message appended to a transcript after
// a tool call resolves, successfully or not.
func NewToolResult(toolUseID, content string, isError bool) Message {
	return Message{
		Role:           RoleTool,
		ToolUseID:      toolUseID,
		ToolResultText: content,
		ToolIsError:    isError,
	}
}

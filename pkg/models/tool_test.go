package models

import (
	"reflect"
	"testing"
)

func TestPatchApplyMerge(t *testing.T) {
	name := "Web Search"
	cfg := AgentConfig{AgentID: "web_search", DisplayName: "old", ModelID: "gpt-4o"}
	p := Patch{DisplayName: &name}

	got := p.Apply(cfg)
	if got.DisplayName != name {
		t.Fatalf("DisplayName = %q, want %q", got.DisplayName, name)
	}
	if got.ModelID != cfg.ModelID {
		t.Fatalf("ModelID changed unexpectedly: %q", got.ModelID)
	}
}

func TestPatchApplyIdempotent(t *testing.T) {
	name := "Web Search"
	cfg := AgentConfig{AgentID: "web_search", DisplayName: "old"}
	p := Patch{DisplayName: &name}

	once := p.Apply(cfg)
	twice := p.Apply(once)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-applying the same patch is not a no-op: %+v vs %+v", once, twice)
	}
}

func TestMessageTextConcatenatesTextBlocksOnly(t *testing.T) {
	m := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			{Type: BlockText, Text: "hello "},
			{Type: BlockToolUse, ToolName: "web_search"},
			{Type: BlockText, Text: "world"},
		},
	}
	if got := m.Text(); got != "hello world" {
		t.Fatalf("Text() = %q, want %q", got, "hello world")
	}
}

func TestMessageToolUsesPreservesOrder(t *testing.T) {
	m := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			{Type: BlockToolUse, ID: "1"},
			{Type: BlockText, Text: "reasoning"},
			{Type: BlockToolUse, ID: "2"},
		},
	}
	uses := m.ToolUses()
	if len(uses) != 2 || uses[0].ID != "1" || uses[1].ID != "2" {
		t.Fatalf("ToolUses() = %+v, want IDs [1 2] in order", uses)
	}
}

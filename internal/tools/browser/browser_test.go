package browser

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestExecuteRejectsEmptyURL(t *testing.T) {
	tool := New("key", time.Second)
	_, err := tool.Execute(context.Background(), json.RawMessage(`{"url":""}`))
	if err == nil {
		t.Fatal("Execute() with empty url: want error, got nil")
	}
}

func TestExecuteRejectsUnknownAction(t *testing.T) {
	tool := New("key", time.Second)
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"url":"https://example.test","actions":[{"type":"teleport"}]}`))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("want IsError result for unknown action type")
	}
}

func TestActionTypeNames(t *testing.T) {
	names := ActionTypeNames([]Action{{Type: "click"}, {Type: "scroll"}})
	if len(names) != 2 || names[0] != "click" || names[1] != "scroll" {
		t.Fatalf("ActionTypeNames() = %v", names)
	}
}

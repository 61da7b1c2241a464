package sandbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/relaykit/conduit/internal/workspace"
)

func TestExecuteDisabledReturnsErrorResult(t *testing.T) {
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tool := New(false, time.Second, ws)
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"code":"print(1)"}`))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("want IsError result when execution is disabled")
	}
}

func TestExecuteRejectsEmptyCode(t *testing.T) {
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tool := New(true, time.Second, ws)
	_, err = tool.Execute(context.Background(), json.RawMessage(`{"code":""}`))
	if err == nil {
		t.Fatal("Execute() with empty code: want error, got nil")
	}
}

func TestDenyReasonCatchesOSSystem(t *testing.T) {
	if reason := denyReason("import os\nos.system('rm -rf /')"); reason == "" {
		t.Fatal("denyReason() did not catch os.system call")
	}
}

func TestDenyReasonAllowsBenignCode(t *testing.T) {
	if reason := denyReason("print(2 + 2)"); reason != "" {
		t.Fatalf("denyReason() rejected benign code: %q", reason)
	}
}

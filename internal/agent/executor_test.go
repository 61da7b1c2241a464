package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/relaykit/conduit/pkg/models"
)

// countingTool records how many times it actually executes, to distinguish
// cache hits from real dispatches.
type countingTool struct {
	calls int
}

func (c *countingTool) Name() string        { return "web_search" }
func (c *countingTool) Description() string { return "counting fake" }
func (c *countingTool) Schema() models.ToolSchema {
	return models.ToolSchema{Name: c.Name(), Params: map[string]models.ToolParam{}}
}
func (c *countingTool) Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	c.calls++
	return &ToolResult{Content: "payload"}, nil
}

type panickyTool struct{}

func (p *panickyTool) Name() string        { return "boom" }
func (p *panickyTool) Description() string { return "panics" }
func (p *panickyTool) Schema() models.ToolSchema {
	return models.ToolSchema{Name: p.Name(), Params: map[string]models.ToolParam{}}
}
func (p *panickyTool) Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	panic("tool blew up")
}

func TestExecuteCachesIdenticalCallsWithinRequest(t *testing.T) {
	tool := &countingTool{}
	reg := NewToolRegistry()
	reg.Register(tool)
	exec := NewExecutor(reg, nil)

	first := exec.Execute(context.Background(), models.ToolCall{ID: "c1", Name: "web_search", Arguments: json.RawMessage(`{"query":"go","depth":1}`)})
	second := exec.Execute(context.Background(), models.ToolCall{ID: "c2", Name: "web_search", Arguments: json.RawMessage(`{"depth":1,"query":"go"}`)})

	if tool.calls != 1 {
		t.Fatalf("tool executed %d times, want 1 (second call must be a cache hit)", tool.calls)
	}
	if first.CacheHit {
		t.Fatal("first execution reported CacheHit")
	}
	if !second.CacheHit {
		t.Fatal("second identical execution did not report CacheHit")
	}
	if second.Result.Content != first.Result.Content {
		t.Fatalf("cached content %q != original %q", second.Result.Content, first.Result.Content)
	}
}

func TestExecuteDistinctArgumentsMissCache(t *testing.T) {
	tool := &countingTool{}
	reg := NewToolRegistry()
	reg.Register(tool)
	exec := NewExecutor(reg, nil)

	exec.Execute(context.Background(), models.ToolCall{ID: "c1", Name: "web_search", Arguments: json.RawMessage(`{"query":"go"}`)})
	exec.Execute(context.Background(), models.ToolCall{ID: "c2", Name: "web_search", Arguments: json.RawMessage(`{"query":"rust"}`)})

	if tool.calls != 2 {
		t.Fatalf("tool executed %d times, want 2 for distinct arguments", tool.calls)
	}
}

func TestExecuteRecoversFromToolPanic(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(&panickyTool{})
	exec := NewExecutor(reg, nil)

	res := exec.Execute(context.Background(), models.ToolCall{ID: "c1", Name: "boom", Arguments: json.RawMessage(`{}`)})
	if res.Result == nil || !res.Result.IsError {
		t.Fatalf("panicking tool must surface an error result, got %+v", res.Result)
	}
	if !strings.Contains(res.Result.Content, "ERRO:") {
		t.Fatalf("error result %q missing marker prefix", res.Result.Content)
	}
}

package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/relaykit/conduit/internal/llmgateway"
	"github.com/relaykit/conduit/pkg/models"
)

func TestSpecialistRunStopsOnTextOnlyTurn(t *testing.T) {
	gw := &fakeGateway{
		responses: []*llmgateway.AssistantMessage{
			{Content: []models.ContentBlock{{Type: models.BlockText, Text: "final answer"}}},
		},
	}
	registry := NewToolRegistry()
	exec := NewExecutor(registry, nil)
	runner := NewSpecialistRunner(gw, exec)

	transcript := []models.Message{models.UserText("hello")}
	out, err := runner.Run(context.Background(), &transcript, "system prompt", "model-x", 1024, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out != "final answer" {
		t.Fatalf("Run() = %q, want %q", out, "final answer")
	}
	if gw.calls != 1 {
		t.Fatalf("gateway called %d times, want 1", gw.calls)
	}
}

func TestSpecialistRunDispatchesToolUseThenStops(t *testing.T) {
	gw := &fakeGateway{
		responses: []*llmgateway.AssistantMessage{
			{Content: []models.ContentBlock{{Type: models.BlockToolUse, ID: "call-1", ToolName: "echo", Input: json.RawMessage(`{"msg":"hi"}`)}}},
			{Content: []models.ContentBlock{{Type: models.BlockText, Text: "done"}}},
		},
	}
	registry := NewToolRegistry()
	registry.Register(&echoTool{})
	exec := NewExecutor(registry, nil)
	runner := NewSpecialistRunner(gw, exec)

	transcript := []models.Message{models.UserText("hello")}
	out, err := runner.Run(context.Background(), &transcript, "system prompt", "model-x", 1024, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out != "done" {
		t.Fatalf("Run() = %q, want %q", out, "done")
	}
	if gw.calls != 2 {
		t.Fatalf("gateway called %d times, want 2", gw.calls)
	}

	var sawToolResult bool
	for _, m := range transcript {
		if m.Role == models.RoleTool && m.ToolUseID == "call-1" {
			sawToolResult = true
			if m.ToolResultText != "echo: hi" {
				t.Fatalf("tool result content = %q", m.ToolResultText)
			}
		}
	}
	if !sawToolResult {
		t.Fatal("transcript missing tool-result message for call-1")
	}
}

func TestSpecialistRunCapsIterations(t *testing.T) {
	var responses []*llmgateway.AssistantMessage
	for i := 0; i < MaxSpecialistIterations+2; i++ {
		responses = append(responses, &llmgateway.AssistantMessage{
			Content: []models.ContentBlock{{Type: models.BlockToolUse, ID: "call", ToolName: "echo", Input: json.RawMessage(`{"msg":"x"}`)}},
		})
	}
	gw := &fakeGateway{responses: responses}
	registry := NewToolRegistry()
	registry.Register(&echoTool{})
	exec := NewExecutor(registry, nil)
	runner := NewSpecialistRunner(gw, exec)

	transcript := []models.Message{models.UserText("hello")}
	_, err := runner.Run(context.Background(), &transcript, "system prompt", "model-x", 1024, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if gw.calls != MaxSpecialistIterations {
		t.Fatalf("gateway called %d times, want %d", gw.calls, MaxSpecialistIterations)
	}
}

func TestSpecialistRunEmitsToolTraceEvents(t *testing.T) {
	gw := &fakeGateway{
		responses: []*llmgateway.AssistantMessage{
			{Content: []models.ContentBlock{{Type: models.BlockToolUse, ID: "call-1", ToolName: "echo", Input: json.RawMessage(`{"msg":"hi"}`)}}},
			{Content: []models.ContentBlock{{Type: models.BlockText, Text: "done"}}},
		},
	}
	registry := NewToolRegistry()
	registry.Register(&echoTool{})
	exec := NewExecutor(registry, nil)
	runner := NewSpecialistRunner(gw, exec)

	var events []models.Event
	runner.Events = NewEmitter(EventSinkFunc(func(e models.Event) { events = append(events, e) }))

	transcript := []models.Message{models.UserText("hello")}
	if _, err := runner.Run(context.Background(), &transcript, "system prompt", "model-x", 1024, nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want tool_call + tool_result: %v", len(events), events)
	}
	if events[0].Kind != models.EventToolCall || events[0].Payload["tool"] != "echo" {
		t.Fatalf("events[0] = %+v, want tool_call for echo", events[0])
	}
	if events[1].Kind != models.EventToolResult {
		t.Fatalf("events[1] = %+v, want tool_result", events[1])
	}
	if preview := events[1].Payload["preview"].(string); preview != "echo: hi" {
		t.Fatalf("tool_result preview = %q", preview)
	}
}

// fakeGateway returns scripted responses in order; it does not implement
// Stream, since the specialist runner only calls Call.
type fakeGateway struct {
	responses []*llmgateway.AssistantMessage
	calls     int
}

func (f *fakeGateway) Call(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (*llmgateway.AssistantMessage, error) {
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func (f *fakeGateway) Stream(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (<-chan llmgateway.Delta, error) {
	panic("not used in specialist tests")
}

type echoTool struct{}

func (e *echoTool) Name() string        { return "echo" }
func (e *echoTool) Description() string { return "echoes msg" }
func (e *echoTool) Schema() models.ToolSchema {
	return models.ToolSchema{Name: "echo", Params: map[string]models.ToolParam{"msg": {Type: "string"}}}
}
func (e *echoTool) Execute(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
	var args struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return &ToolResult{Content: "echo: " + args.Msg}, nil
}

package builder

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/llmgateway"
	"github.com/relaykit/conduit/internal/registry"
	"github.com/relaykit/conduit/pkg/models"
)

type scriptedGateway struct {
	text string
}

func (g *scriptedGateway) Call(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (*llmgateway.AssistantMessage, error) {
	return &llmgateway.AssistantMessage{Content: []models.ContentBlock{{Type: models.BlockText, Text: g.text}}}, nil
}

func (g *scriptedGateway) Stream(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (<-chan llmgateway.Delta, error) {
	panic("not used")
}

type collector struct {
	events []models.Event
}

func (c *collector) Send(e models.Event) { c.events = append(c.events, e) }

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(t.TempDir()+"/overrides.json", "test-model")
	if err != nil {
		t.Fatalf("registry.New() error: %v", err)
	}
	return reg
}

func TestFlowEmitsActionsForFileBackedArtifact(t *testing.T) {
	gw := &scriptedGateway{text: `{"actions": [{"op": "write", "path": "index.html", "content": "<h1>hi</h1>"}]}`}
	reg := newTestRegistry(t)
	f := &Flow{Gateway: gw, Registry: reg, ToolRegistry: agent.NewToolRegistry(), MaxOutput: 1024}

	c := &collector{}
	em := agent.NewEmitter(c)
	f.Run(context.Background(), em, Request{
		Messages:   []models.Message{models.UserText("build me a landing page")},
		AgentMode:  ModeCreation,
		RenderMode: RenderIframe,
	})

	if len(c.events) < 2 {
		t.Fatalf("events = %v, want at least 2", c.events)
	}
	last := c.events[len(c.events)-1]
	if last.Kind != models.EventDone {
		t.Fatalf("last event kind = %s, want done", last.Kind)
	}
	var sawActions bool
	for _, e := range c.events {
		if e.Kind == models.EventActions {
			sawActions = true
			content, _ := e.Payload["content"].(string)
			var decoded map[string]json.RawMessage
			if err := json.Unmarshal([]byte(content), &decoded); err != nil {
				t.Fatalf("actions payload not valid JSON: %v", err)
			}
			if _, ok := decoded["actions"]; !ok {
				t.Fatalf("actions payload missing actions key: %s", content)
			}
		}
	}
	if !sawActions {
		t.Fatal("no actions event emitted")
	}
}

func TestFlowEmitsASTActionsForASTRenderMode(t *testing.T) {
	gw := &scriptedGateway{text: `{"ast_actions": [{"op": "insert", "target": "body"}]}`}
	reg := newTestRegistry(t)
	f := &Flow{Gateway: gw, Registry: reg, ToolRegistry: agent.NewToolRegistry(), MaxOutput: 1024}

	c := &collector{}
	em := agent.NewEmitter(c)
	f.Run(context.Background(), em, Request{
		Messages:   []models.Message{models.UserText("add a hero section")},
		AgentMode:  ModeEdit,
		RenderMode: RenderAST,
		PageState:  json.RawMessage(`{"root": {}}`),
	})

	var sawActions bool
	for _, e := range c.events {
		if e.Kind == models.EventActions {
			sawActions = true
		}
	}
	if !sawActions {
		t.Fatal("no actions event emitted for AST render mode")
	}
}

func TestFlowStreamsClarificationWhenNoArtifactFound(t *testing.T) {
	gw := &scriptedGateway{text: "Could you tell me which section to update?"}
	reg := newTestRegistry(t)
	f := &Flow{Gateway: gw, Registry: reg, ToolRegistry: agent.NewToolRegistry(), MaxOutput: 1024}

	c := &collector{}
	em := agent.NewEmitter(c)
	f.Run(context.Background(), em, Request{
		Messages:   []models.Message{models.UserText("update the page")},
		AgentMode:  ModeEdit,
		RenderMode: RenderIframe,
	})

	var chunks string
	var sawDone bool
	for _, e := range c.events {
		switch e.Kind {
		case models.EventChunk:
			text, _ := e.Payload["text"].(string)
			chunks += text
		case models.EventDone:
			sawDone = true
		case models.EventActions:
			t.Fatal("unexpected actions event for clarification reply")
		}
	}
	if chunks != gw.text {
		t.Fatalf("chunks = %q, want %q", chunks, gw.text)
	}
	if !sawDone {
		t.Fatal("missing terminal done event")
	}
}

package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/catalog"
	"github.com/relaykit/conduit/internal/config"
	"github.com/relaykit/conduit/internal/llmgateway"
	"github.com/relaykit/conduit/internal/registry"
	"github.com/relaykit/conduit/pkg/models"
)

type plainTextGateway struct{ text string }

func (g *plainTextGateway) Call(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (*llmgateway.AssistantMessage, error) {
	return &llmgateway.AssistantMessage{Content: []models.ContentBlock{{Type: models.BlockText, Text: g.text}}}, nil
}

func (g *plainTextGateway) Stream(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (<-chan llmgateway.Delta, error) {
	ch := make(chan llmgateway.Delta, 2)
	ch <- llmgateway.Delta{Text: g.text}
	ch <- llmgateway.Delta{Done: true}
	close(ch)
	return ch, nil
}

func newTestServer(t *testing.T, gw llmgateway.Gateway) *Server {
	t.Helper()
	reg, err := registry.New(t.TempDir()+"/overrides.json", "test-model")
	if err != nil {
		t.Fatalf("registry.New() error: %v", err)
	}
	return &Server{
		Gateway:      gw,
		Registry:     reg,
		ToolRegistry: agent.NewToolRegistry(),
		AntiHalluc:   agent.NewAntiHallucination("blob.example"),
		Catalog:      catalog.NewCache(),
		Config:       config.Default(),
		Logger:       slog.Default(),
		StartedAt:    time.Now(),
	}
}

func readSSEEvents(t *testing.T, resp *http.Response) []models.Event {
	t.Helper()
	var events []models.Event
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e models.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e); err != nil {
			t.Fatalf("decoding SSE data line: %v", err)
		}
		events = append(events, e)
	}
	return events
}

func TestHandleChatStreamsChunksThenDone(t *testing.T) {
	gw := &plainTextGateway{text: "hello there"}
	srv := newTestServer(t, gw)
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	body := strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`)
	resp, err := http.Post(ts.URL+"/api/agent/chat", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/agent/chat: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	events := readSSEEvents(t, resp)
	if len(events) == 0 {
		t.Fatal("no SSE events received")
	}
	last := events[len(events)-1]
	if last.Kind != models.EventDone {
		t.Fatalf("last event kind = %s, want done", last.Kind)
	}

	var rebuilt string
	for _, e := range events {
		if e.Kind == models.EventChunk {
			text, _ := e.Payload["text"].(string)
			rebuilt += text
		}
	}
	if rebuilt != "hello there" {
		t.Fatalf("rebuilt chunk text = %q, want %q", rebuilt, "hello there")
	}
}

func TestHandleChatRejectsEmptyMessages(t *testing.T) {
	srv := newTestServer(t, &plainTextGateway{text: "x"})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/agent/chat", "application/json", strings.NewReader(`{"messages":[]}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleChatRejectsGetMethod(t *testing.T) {
	srv := newTestServer(t, &plainTextGateway{text: "x"})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/agent/chat")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

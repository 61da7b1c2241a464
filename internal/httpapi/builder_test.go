package httpapi

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relaykit/conduit/pkg/models"
)

func TestHandleBuilderChatEmitsActionsEvent(t *testing.T) {
	gw := &plainTextGateway{text: `{"actions": [{"op": "write", "path": "index.html", "content": "<h1>hi</h1>"}]}`}
	srv := newTestServer(t, gw)
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	body := `{"messages":[{"role":"user","content":"build a page"}],"agentMode":"creation","renderMode":"iframe"}`
	resp, err := http.Post(ts.URL+"/api/builder/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var sawActions bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e models.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e); err != nil {
			t.Fatalf("decoding SSE line: %v", err)
		}
		if e.Kind == models.EventActions {
			sawActions = true
		}
	}
	if !sawActions {
		t.Fatal("no actions event emitted")
	}
}

func TestHandleBuilderChatRejectsEmptyMessages(t *testing.T) {
	srv := newTestServer(t, &plainTextGateway{text: "x"})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/builder/chat", "application/json", strings.NewReader(`{"messages":[]}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

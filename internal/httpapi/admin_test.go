package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relaykit/conduit/internal/registry"
	"github.com/relaykit/conduit/pkg/models"
)

func TestHandleAdminAgentsListsEveryAgent(t *testing.T) {
	srv := newTestServer(t, &plainTextGateway{text: "x"})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/admin/agents")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var agents map[string]models.AgentConfig
	if err := json.NewDecoder(resp.Body).Decode(&agents); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if _, ok := agents[registry.AgentSupervisor]; !ok {
		t.Fatal("response missing supervisor agent")
	}
}

func TestHandleAdminAgentByIDGetAndPut(t *testing.T) {
	srv := newTestServer(t, &plainTextGateway{text: "x"})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/admin/agents/" + registry.AgentDev)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var cfg models.AgentConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if cfg.AgentID != registry.AgentDev {
		t.Fatalf("AgentID = %q, want %q", cfg.AgentID, registry.AgentDev)
	}

	newPrompt := "Updated dev prompt."
	patchBody := `{"system_prompt":"` + newPrompt + `"}`
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/admin/agents/"+registry.AgentDev, strings.NewReader(patchBody))
	if err != nil {
		t.Fatalf("building PUT request: %v", err)
	}
	putResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	defer putResp.Body.Close()
	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", putResp.StatusCode)
	}
	var updated models.AgentConfig
	if err := json.NewDecoder(putResp.Body).Decode(&updated); err != nil {
		t.Fatalf("decoding PUT response: %v", err)
	}
	if updated.SystemPrompt != newPrompt {
		t.Fatalf("SystemPrompt = %q, want %q", updated.SystemPrompt, newPrompt)
	}

	resetResp, err := http.Post(ts.URL+"/api/admin/agents/reset/"+registry.AgentDev, "application/json", nil)
	if err != nil {
		t.Fatalf("reset POST: %v", err)
	}
	defer resetResp.Body.Close()
	var reset models.AgentConfig
	if err := json.NewDecoder(resetResp.Body).Decode(&reset); err != nil {
		t.Fatalf("decoding reset response: %v", err)
	}
	if reset.SystemPrompt == newPrompt {
		t.Fatal("reset did not restore the compiled default system prompt")
	}
}

func TestHandleAdminAgentByIDUnknownAgentReturns404(t *testing.T) {
	srv := newTestServer(t, &plainTextGateway{text: "x"})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/admin/agents/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleAdminModelsReturnsCatalog(t *testing.T) {
	srv := newTestServer(t, &plainTextGateway{text: "x"})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/admin/models")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var models []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(models) == 0 {
		t.Fatal("catalog response is empty")
	}
}

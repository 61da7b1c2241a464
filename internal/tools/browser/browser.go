// Package browser implements the ask_browser tool, a direct-executor route
// that delegates to a headless-browser HTTP provider (Firecrawl) rather
// than driving a local browser process.
package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/pkg/models"
)

// Action is one step of an ordered browser action list, per §4.2/§6.
type Action struct {
	Type string `json:"type"`
	// Selector, Value, Key are interpreted depending on Type (click/write
	// use Selector+Value, press uses Key, scroll/wait use Value as a
	// duration-or-pixel amount).
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Key      string `json:"key,omitempty"`
}

// ValidActionTypes enumerates the action vocabulary the spec recognizes.
var ValidActionTypes = map[string]bool{
	"click": true, "scroll": true, "wait": true, "write": true,
	"press": true, "screenshot": true, "execute_javascript": true, "scrape": true,
}

// Tool implements agent.Tool for "ask_browser".
type Tool struct {
	APIKey  string
	Timeout time.Duration
	client  *http.Client
}

// New builds an ask_browser tool bound to a Firecrawl API key.
func New(apiKey string, timeout time.Duration) *Tool {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Tool{APIKey: apiKey, Timeout: timeout, client: &http.Client{Timeout: timeout}}
}

func (t *Tool) Name() string        { return "ask_browser" }
func (t *Tool) Description() string { return "Drive a headless browser against a URL and return extracted markdown." }

func (t *Tool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"url":     {Type: "string", Description: "page to visit", Required: true},
			"actions": {Type: "array", Description: "ordered browser actions", Required: false},
		},
		ParamOrder: []string{"url", "actions"},
	}
}

// Args is the ask_browser tool-call payload.
type Args struct {
	URL     string   `json:"url"`
	Actions []Action `json:"actions,omitempty"`
}

func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	var args Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(args.URL) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("url must not be empty"))
	}
	for _, a := range args.Actions {
		if !ValidActionTypes[a.Type] {
			return &agent.ToolResult{Content: fmt.Sprintf("ERRO: unknown browser action %q", a.Type), IsError: true}, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	payload := map[string]any{
		"url":     args.URL,
		"formats": []string{"markdown"},
	}
	// Unset or empty actions reduces to a simple fetch-equivalent (§4.2).
	if len(args.Actions) > 0 {
		payload["actions"] = args.Actions
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.firecrawl.dev/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: browser provider unreachable: " + err.Error(), IsError: true}, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &agent.ToolResult{Content: fmt.Sprintf("ERRO: browser provider returned status %d", resp.StatusCode), IsError: true}, nil
	}

	var parsed struct {
		Data struct {
			Markdown string `json:"markdown"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return &agent.ToolResult{Content: "ERRO: decoding browser provider response: " + err.Error(), IsError: true}, nil
	}

	return &agent.ToolResult{Content: parsed.Data.Markdown}, nil
}

// ActionTypeNames returns the Type field of each action, used by the
// Supervisor Orchestrator to populate browser_action events.
func ActionTypeNames(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Type
	}
	return out
}

// Package websearch implements the web_search and web_fetch tools: primary
// Tavily provider with Brave Search fallback, and a redirect-following
// fetch-and-strip tool, per spec §4.2.
package websearch

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

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchTool implements agent.Tool for "web_search".
type SearchTool struct {
	TavilyKey string
	BraveKey  string
	Timeout   time.Duration
	client    *http.Client
}

// NewSearchTool builds a web_search tool with primary Tavily, fallback
// Brave Search, bounded by timeout for the combined attempt.
func NewSearchTool(tavilyKey, braveKey string, timeout time.Duration) *SearchTool {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &SearchTool{TavilyKey: tavilyKey, BraveKey: braveKey, Timeout: timeout, client: &http.Client{Timeout: timeout}}
}

func (t *SearchTool) Name() string        { return "web_search" }
func (t *SearchTool) Description() string { return "Search the web and return a ranked list of results." }

func (t *SearchTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"query": {Type: "string", Description: "the search query", Required: true},
		},
		ParamOrder: []string{"query"},
	}
}

type searchArgs struct {
	Query string `json:"query"`
}

func (t *SearchTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(a.Query) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("query must not be empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	results, err := t.tavily(ctx, a.Query)
	if err != nil && t.BraveKey != "" {
		results, err = t.brave(ctx, a.Query)
	}
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: all search providers failed: " + err.Error(), IsError: true}, nil
	}

	return &agent.ToolResult{Content: formatMarkdown(results)}, nil
}

func formatMarkdown(results []Result) string {
	if len(results) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- [%s](%s): %s\n", r.Title, r.URL, r.Snippet)
	}
	return b.String()
}

func (t *SearchTool) tavily(ctx context.Context, query string) ([]Result, error) {
	if t.TavilyKey == "" {
		return nil, fmt.Errorf("tavily not configured")
	}
	body, _ := json.Marshal(map[string]any{
		"api_key":      t.TavilyKey,
		"query":        query,
		"max_results":  8,
		"search_depth": "basic",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.tavily.com/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: status %d", resp.StatusCode)
	}

	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: truncate(r.Content, 280)})
	}
	return out, nil
}

func (t *SearchTool) brave(ctx context.Context, query string) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.search.brave.com/res/v1/web/search", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("q", query)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("X-Subscription-Token", t.BraveKey)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave: status %d", resp.StatusCode)
	}

	var parsed struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: truncate(r.Description, 280)})
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

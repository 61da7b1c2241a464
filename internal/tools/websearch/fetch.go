package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/pkg/models"
)

// FetchTool implements agent.Tool for "web_fetch": follows redirects,
// strips non-content elements, and truncates to a character budget.
type FetchTool struct {
	Timeout  time.Duration
	MaxSize  int64
	MaxChars int
	client   *http.Client
}

// NewFetchTool builds a web_fetch tool.
func NewFetchTool(timeout time.Duration, maxSize int64, maxChars int) *FetchTool {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	if maxChars <= 0 {
		maxChars = 20000
	}
	return &FetchTool{
		Timeout:  timeout,
		MaxSize:  maxSize,
		MaxChars: maxChars,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *FetchTool) Name() string        { return "web_fetch" }
func (t *FetchTool) Description() string { return "Fetch a URL and return its readable title and body text." }

func (t *FetchTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"url": {Type: "string", Description: "the URL to fetch", Required: true},
		},
		ParamOrder: []string{"url"},
	}
}

type fetchArgs struct {
	URL string `json:"url"`
}

func (t *FetchTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var a fetchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(a.URL) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("url must not be empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, err)
	}
	req.Header.Set("User-Agent", "conduit-agent/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: fetch failed: " + err.Error(), IsError: true}, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &agent.ToolResult{Content: fmt.Sprintf("ERRO: fetch returned status %d", resp.StatusCode), IsError: true}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.MaxSize))
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: reading response body: " + err.Error(), IsError: true}, nil
	}

	title, text := extractText(body)
	if len(text) > t.MaxChars {
		text = text[:t.MaxChars] + "\n...(truncated)"
	}
	return &agent.ToolResult{Content: title + "\n\n" + text}, nil
}

// extractText walks the parsed document tree, dropping script/style/nav
// elements and collecting visible text, grounded on the teacher's
// HTML-to-text extraction shape for web_fetch.
func extractText(body []byte) (title, text string) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", string(body)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "noscript":
				return
			case "title":
				if n.FirstChild != nil {
					title = n.FirstChild.Data
				}
				return
			}
		}
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				b.WriteString(trimmed)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, strings.TrimSpace(b.String())
}

package websearch

import (
	"context"
	"encoding/json"
	"testing"
)

func TestFormatMarkdownListsResults(t *testing.T) {
	got := formatMarkdown([]Result{{Title: "Go", URL: "https://go.dev", Snippet: "language"}})
	want := "- [Go](https://go.dev): language\n"
	if got != want {
		t.Fatalf("formatMarkdown() = %q, want %q", got, want)
	}
}

func TestFormatMarkdownEmpty(t *testing.T) {
	if got := formatMarkdown(nil); got != "No results found." {
		t.Fatalf("formatMarkdown(nil) = %q", got)
	}
}

func TestExtractTextStripsScriptsAndTitle(t *testing.T) {
	html := []byte(`<html><head><title>Hello</title><script>evil()</script></head><body><p>Visible text</p></body></html>`)
	title, text := extractText(html)
	if title != "Hello" {
		t.Fatalf("title = %q, want %q", title, "Hello")
	}
	if text != "Visible text" {
		t.Fatalf("text = %q, want %q", text, "Visible text")
	}
}

func TestSearchToolRejectsEmptyQuery(t *testing.T) {
	tool := NewSearchTool("", "", 0)
	_, err := tool.Execute(context.Background(), json.RawMessage(`{"query":""}`))
	if err == nil {
		t.Fatal("Execute() with empty query: want error, got nil")
	}
}

func TestFetchToolRejectsMalformedArgs(t *testing.T) {
	tool := NewFetchTool(0, 0, 0)
	_, err := tool.Execute(context.Background(), json.RawMessage(`not json`))
	if err == nil {
		t.Fatal("Execute() with malformed JSON: want error, got nil")
	}
}

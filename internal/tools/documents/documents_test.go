package documents

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

type fakeStore struct {
	url string
	err error
}

func (f *fakeStore) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func TestGeneratePDFEmbedsMarkdownLink(t *testing.T) {
	store := &fakeStore{url: "https://blob.example/report.pdf"}
	tool := NewPDFTool(store)
	args, _ := json.Marshal(map[string]any{
		"title":    "Report",
		"sections": []map[string]string{{"heading": "Intro", "body": "hello"}},
	})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(result.Content, store.url) {
		t.Fatalf("result %q does not contain uploaded URL", result.Content)
	}
	if !strings.Contains(result.Content, "[Baixar PDF](") {
		t.Fatalf("result %q does not contain markdown link marker", result.Content)
	}
}

func TestGenerateExcelEmbedsMarkdownLink(t *testing.T) {
	store := &fakeStore{url: "https://blob.example/planilha.xlsx"}
	tool := NewExcelTool(store)
	args, _ := json.Marshal(map[string]any{
		"title":   "Planilha",
		"headers": []string{"A", "B"},
		"rows":    [][]string{{"1", "2"}},
	})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(result.Content, store.url) {
		t.Fatalf("result %q does not contain uploaded URL", result.Content)
	}
}

func TestGeneratePDFRejectsEmptyTitle(t *testing.T) {
	tool := NewPDFTool(&fakeStore{})
	_, err := tool.Execute(context.Background(), json.RawMessage(`{"title":""}`))
	if err == nil {
		t.Fatal("Execute() with empty title: want error, got nil")
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := sanitizeFilename("Relatório Final!")
	if strings.ContainsAny(got, " !") {
		t.Fatalf("sanitizeFilename() = %q, contains unsafe characters", got)
	}
}

// Package fileops implements fetch_file_content and the modify_* family:
// download an existing artifact, apply a typed set of edits, re-upload, and
// return a new-URL markdown link, per spec §4.2.
package fileops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/blobstore"
	"github.com/relaykit/conduit/pkg/models"
)

const linkInstruction = "\n\nSurface this link verbatim in your reply to the user."

// fetchArtifact downloads a URL into memory, bounded by maxSize.
func fetchArtifact(ctx context.Context, client *http.Client, url string, maxSize int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSize))
}

// FetchContentTool implements agent.Tool for "fetch_file_content".
type FetchContentTool struct {
	Timeout      time.Duration
	MaxSize      int64
	PreviewChars int
	client       *http.Client
}

// NewFetchContentTool builds a fetch_file_content tool.
func NewFetchContentTool(timeout time.Duration, maxSize int64, previewChars int) *FetchContentTool {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	if previewChars <= 0 {
		previewChars = 4000
	}
	return &FetchContentTool{Timeout: timeout, MaxSize: maxSize, PreviewChars: previewChars, client: &http.Client{Timeout: timeout}}
}

func (t *FetchContentTool) Name() string { return "fetch_file_content" }
func (t *FetchContentTool) Description() string {
	return "Download a binary artifact and return a readable structural summary within a preview budget."
}

func (t *FetchContentTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"url": {Type: "string", Description: "artifact URL", Required: true},
		},
		ParamOrder: []string{"url"},
	}
}

type fetchContentArgs struct {
	URL string `json:"url"`
}

func (t *FetchContentTool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	var args fetchContentArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(args.URL) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("url must not be empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	data, err := fetchArtifact(ctx, t.client, args.URL, t.MaxSize)
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: fetching artifact: " + err.Error(), IsError: true}, nil
	}

	summary := t.summarize(args.URL, data)
	return &agent.ToolResult{Content: summary}, nil
}

// summarize produces a structural preview, bounded by PreviewChars, never
// the raw artifact bytes in full.
func (t *FetchContentTool) summarize(url string, data []byte) string {
	lower := strings.ToLower(url)
	var b strings.Builder
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			fmt.Fprintf(&b, "Could not parse as xlsx: %v", err)
			break
		}
		defer f.Close()
		for _, sheet := range f.GetSheetList() {
			rows, _ := f.GetRows(sheet)
			fmt.Fprintf(&b, "Sheet %q: %d rows\n", sheet, len(rows))
			for i, row := range rows {
				if i >= 3 {
					break
				}
				fmt.Fprintf(&b, "  %v\n", row)
			}
		}
	default:
		fmt.Fprintf(&b, "%d bytes retrieved\n", len(data))
	}

	out := b.String()
	if len(out) > t.PreviewChars {
		out = out[:t.PreviewChars] + "\n...(truncated)"
	}
	if out == "" {
		out = "(no readable structure found)"
	}
	return out
}

// ModifyExcelTool implements agent.Tool for "modify_excel": cell updates and
// row appends against an existing workbook, re-uploaded under a new key.
type ModifyExcelTool struct {
	Store   blobstore.Store
	Timeout time.Duration
	client  *http.Client
}

// NewModifyExcelTool builds a modify_excel tool.
func NewModifyExcelTool(store blobstore.Store, timeout time.Duration) *ModifyExcelTool {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ModifyExcelTool{Store: store, Timeout: timeout, client: &http.Client{Timeout: timeout}}
}

func (t *ModifyExcelTool) Name() string { return "modify_excel" }
func (t *ModifyExcelTool) Description() string {
	return "Apply cell updates and row appends to an existing spreadsheet and re-upload it."
}

func (t *ModifyExcelTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"file_url":     {Type: "string", Description: "URL of the existing spreadsheet", Required: true},
			"sheet":        {Type: "string", Description: "target sheet name", Required: false},
			"cell_updates": {Type: "object", Description: "cell reference -> new value", Required: false},
			"append_rows":  {Type: "array", Description: "rows to append, one array of strings per row", Required: false},
		},
		ParamOrder: []string{"file_url", "sheet", "cell_updates", "append_rows"},
	}
}

type modifyExcelArgs struct {
	FileURL     string            `json:"file_url"`
	Sheet       string            `json:"sheet"`
	CellUpdates map[string]string `json:"cell_updates"`
	AppendRows  [][]string        `json:"append_rows"`
}

func (t *ModifyExcelTool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	var args modifyExcelArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(args.FileURL) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("file_url must not be empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	data, err := fetchArtifact(ctx, t.client, args.FileURL, 25<<20)
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: fetching spreadsheet: " + err.Error(), IsError: true}, nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: parsing spreadsheet: " + err.Error(), IsError: true}, nil
	}
	defer f.Close()

	sheet := args.Sheet
	if sheet == "" {
		sheet = f.GetSheetList()[0]
	}

	for cell, value := range args.CellUpdates {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return &agent.ToolResult{Content: fmt.Sprintf("ERRO: setting cell %s: %v", cell, err), IsError: true}, nil
		}
	}

	if len(args.AppendRows) > 0 {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return &agent.ToolResult{Content: "ERRO: reading existing rows: " + err.Error(), IsError: true}, nil
		}
		nextRow := len(rows) + 1
		for i, row := range args.AppendRows {
			for col, value := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, nextRow+i)
				f.SetCellValue(sheet, cell, value)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorExecution, fmt.Errorf("rendering xlsx: %w", err))
	}

	url, err := t.Store.Upload(ctx, "modified.xlsx", buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorExecution, fmt.Errorf("uploading xlsx: %w", err))
	}

	return &agent.ToolResult{Content: fmt.Sprintf("[Baixar Planilha](%s)%s", url, linkInstruction)}, nil
}

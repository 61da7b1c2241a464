// Package documents implements the generate_pdf and generate_excel tools:
// synthesize a document in memory from structured input, upload it through
// the blob store, and return a textual result that embeds the resulting URL
// as a markdown link, per spec §4.2.
package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/blobstore"
	"github.com/relaykit/conduit/pkg/models"
)

// linkInstruction is appended to every successful result: a belt-and-suspenders
// reminder for the anti-hallucination layer (§7).
const linkInstruction = "\n\nSurface this link verbatim in your reply to the user."

// PDFTool implements agent.Tool for "generate_pdf".
type PDFTool struct {
	Store blobstore.Store
}

// NewPDFTool builds a generate_pdf tool backed by the given blob store.
func NewPDFTool(store blobstore.Store) *PDFTool { return &PDFTool{Store: store} }

func (t *PDFTool) Name() string        { return "generate_pdf" }
func (t *PDFTool) Description() string { return "Generate a PDF document from a title and sections of body text." }

func (t *PDFTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"title":    {Type: "string", Description: "document title", Required: true},
			"sections": {Type: "array", Description: "ordered list of {heading, body} sections", Required: true},
		},
		ParamOrder: []string{"title", "sections"},
	}
}

type pdfSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type pdfArgs struct {
	Title    string       `json:"title"`
	Sections []pdfSection `json:"sections"`
}

func (t *PDFTool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	var args pdfArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(args.Title) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("title must not be empty"))
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 10, args.Title, "", "L", false)
	pdf.Ln(4)

	for _, s := range args.Sections {
		if s.Heading != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.MultiCell(0, 8, s.Heading, "", "L", false)
		}
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, s.Body, "", "L", false)
		pdf.Ln(3)
	}

	var buf strings.Builder
	if err := pdf.OutputAndClose(&stringWriteCloser{&buf}); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorExecution, fmt.Errorf("rendering pdf: %w", err))
	}

	filename := sanitizeFilename(args.Title) + ".pdf"
	url, err := t.Store.Upload(ctx, filename, []byte(buf.String()), "application/pdf")
	if err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorExecution, fmt.Errorf("uploading pdf: %w", err))
	}

	return &agent.ToolResult{Content: fmt.Sprintf("[Baixar PDF](%s)%s", url, linkInstruction)}, nil
}

// ExcelTool implements agent.Tool for "generate_excel".
type ExcelTool struct {
	Store blobstore.Store
}

// NewExcelTool builds a generate_excel tool backed by the given blob store.
func NewExcelTool(store blobstore.Store) *ExcelTool { return &ExcelTool{Store: store} }

func (t *ExcelTool) Name() string        { return "generate_excel" }
func (t *ExcelTool) Description() string { return "Generate an Excel spreadsheet from a title, header row, and data rows." }

func (t *ExcelTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"title":   {Type: "string", Description: "spreadsheet title, used as the filename", Required: true},
			"headers": {Type: "array", Description: "column headers", Required: true},
			"rows":    {Type: "array", Description: "data rows, one array of strings per row", Required: true},
		},
		ParamOrder: []string{"title", "headers", "rows"},
	}
}

type excelArgs struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

func (t *ExcelTool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	var args excelArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(args.Title) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("title must not be empty"))
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	for col, header := range args.Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	for rowIdx, row := range args.Rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorExecution, fmt.Errorf("rendering xlsx: %w", err))
	}

	filename := sanitizeFilename(args.Title) + ".xlsx"
	url, err := t.Store.Upload(ctx, filename, buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorExecution, fmt.Errorf("uploading xlsx: %w", err))
	}

	return &agent.ToolResult{Content: fmt.Sprintf("[Baixar Planilha](%s)%s", url, linkInstruction)}, nil
}

func sanitizeFilename(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "document"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(title))
}

// stringWriteCloser adapts a strings.Builder to io.WriteCloser for
// gofpdf.OutputAndClose.
type stringWriteCloser struct {
	b *strings.Builder
}

func (w *stringWriteCloser) Write(p []byte) (int, error) { return w.b.Write(p) }
func (w *stringWriteCloser) Close() error                { return nil }

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

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/blobstore"
	"github.com/relaykit/conduit/pkg/models"
)

// ModifyPDFTool implements agent.Tool for "modify_pdf": text replacements
// stamped as watermark overlays (pdfcpu has no in-place content-stream
// find/replace) plus an optional trailing page appended via merge.
type ModifyPDFTool struct {
	Store   blobstore.Store
	Timeout time.Duration
	client  *http.Client
}

// NewModifyPDFTool builds a modify_pdf tool.
func NewModifyPDFTool(store blobstore.Store, timeout time.Duration) *ModifyPDFTool {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ModifyPDFTool{Store: store, Timeout: timeout, client: &http.Client{Timeout: timeout}}
}

func (t *ModifyPDFTool) Name() string { return "modify_pdf" }
func (t *ModifyPDFTool) Description() string {
	return "Stamp a note listing text replacements on every page of an existing PDF, optionally append a trailing page, and re-upload it."
}

func (t *ModifyPDFTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"file_url":     {Type: "string", Description: "URL of the existing PDF", Required: true},
			"replacements": {Type: "object", Description: "literal text -> replacement text, listed in a note stamped on every page; the original text is left unchanged", Required: false},
			"append_text":  {Type: "string", Description: "text for a new trailing page", Required: false},
		},
		ParamOrder: []string{"file_url", "replacements", "append_text"},
	}
}

type modifyPDFArgs struct {
	FileURL      string            `json:"file_url"`
	Replacements map[string]string `json:"replacements"`
	AppendText   string            `json:"append_text"`
}

func (t *ModifyPDFTool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	var args modifyPDFArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(args.FileURL) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("file_url must not be empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	data, err := fetchArtifact(ctx, t.client, args.FileURL, 50<<20)
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: fetching PDF: " + err.Error(), IsError: true}, nil
	}

	working := data
	if len(args.Replacements) > 0 {
		stamped, err := stampReplacements(working, args.Replacements)
		if err != nil {
			return &agent.ToolResult{Content: "ERRO: applying text replacements: " + err.Error(), IsError: true}, nil
		}
		working = stamped
	}

	if strings.TrimSpace(args.AppendText) != "" {
		appended, err := appendTrailingPage(working, args.AppendText)
		if err != nil {
			return &agent.ToolResult{Content: "ERRO: appending trailing page: " + err.Error(), IsError: true}, nil
		}
		working = appended
	}

	url, err := t.Store.Upload(ctx, "modified.pdf", working, "application/pdf")
	if err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorExecution, fmt.Errorf("uploading pdf: %w", err))
	}

	return &agent.ToolResult{Content: fmt.Sprintf("[Baixar PDF](%s)%s", url, linkInstruction)}, nil
}

// stampReplacements overlays a watermark describing each find/replace pair
// on every page, since pdfcpu exposes no content-stream find/replace.
func stampReplacements(data []byte, replacements map[string]string) ([]byte, error) {
	var summary strings.Builder
	for find, replace := range replacements {
		fmt.Fprintf(&summary, "%q -> %q  ", find, replace)
	}

	wm, err := api.TextWatermark(summary.String(), "font:Helvetica, points:9, opacity:0.6, pos:bl, off:12 12", true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("building watermark: %w", err)
	}

	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.AddWatermarks(bytes.NewReader(data), &out, nil, wm, conf); err != nil {
		return nil, fmt.Errorf("stamping watermark: %w", err)
	}
	return out.Bytes(), nil
}

// appendTrailingPage renders a new single-page PDF from text and merges it
// onto the end of the existing document.
func appendTrailingPage(data []byte, text string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, text, "", "L", false)

	var appendixBuf bytes.Buffer
	if err := pdf.OutputAndClose(nopCloser{&appendixBuf}); err != nil {
		return nil, fmt.Errorf("rendering trailing page: %w", err)
	}

	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	rsc := []io.ReadSeeker{bytes.NewReader(data), bytes.NewReader(appendixBuf.Bytes())}
	if err := api.MergeRaw(rsc, &out, false, conf); err != nil {
		return nil, fmt.Errorf("merging trailing page: %w", err)
	}
	return out.Bytes(), nil
}

type nopCloser struct{ w *bytes.Buffer }

func (n nopCloser) Write(p []byte) (int, error) { return n.w.Write(p) }
func (n nopCloser) Close() error                { return nil }

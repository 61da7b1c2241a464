package fileops

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/blobstore"
	"github.com/relaykit/conduit/pkg/models"
)

// slideXMLPattern matches the per-slide XML parts inside a .pptx's OOXML zip.
var slideXMLPattern = regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)

// ModifyPPTXTool implements agent.Tool for "modify_pptx": text replacements
// against a .pptx's slide XML parts, rewritten through the zip container
// directly rather than a full OOXML object model.
type ModifyPPTXTool struct {
	Store   blobstore.Store
	Timeout time.Duration
	client  *http.Client
}

// NewModifyPPTXTool builds a modify_pptx tool.
func NewModifyPPTXTool(store blobstore.Store, timeout time.Duration) *ModifyPPTXTool {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ModifyPPTXTool{Store: store, Timeout: timeout, client: &http.Client{Timeout: timeout}}
}

func (t *ModifyPPTXTool) Name() string { return "modify_pptx" }
func (t *ModifyPPTXTool) Description() string {
	return "Apply text replacements to an existing PowerPoint file and re-upload it."
}

func (t *ModifyPPTXTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"file_url":     {Type: "string", Description: "URL of the existing .pptx", Required: true},
			"replacements": {Type: "object", Description: "literal text -> replacement text", Required: true},
		},
		ParamOrder: []string{"file_url", "replacements"},
	}
}

type modifyPPTXArgs struct {
	FileURL      string            `json:"file_url"`
	Replacements map[string]string `json:"replacements"`
}

func (t *ModifyPPTXTool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	var args modifyPPTXArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(args.FileURL) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("file_url must not be empty"))
	}
	if len(args.Replacements) == 0 {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("replacements must not be empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	data, err := fetchArtifact(ctx, t.client, args.FileURL, 50<<20)
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: fetching presentation: " + err.Error(), IsError: true}, nil
	}

	out, replaced, err := rewritePPTX(data, args.Replacements)
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: rewriting presentation: " + err.Error(), IsError: true}, nil
	}

	url, err := t.Store.Upload(ctx, "modified.pptx", out, "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	if err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorExecution, fmt.Errorf("uploading pptx: %w", err))
	}

	return &agent.ToolResult{Content: fmt.Sprintf("Applied %d replacement(s). [Baixar Apresentação](%s)%s", replaced, url, linkInstruction)}, nil
}

// rewritePPTX walks the .pptx zip container, applying literal text
// replacements to every slideN.xml part and copying every other part
// through unchanged.
func rewritePPTX(data []byte, replacements map[string]string) ([]byte, int, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, err
	}

	var outBuf bytes.Buffer
	writer := zip.NewWriter(&outBuf)
	replaced := 0

	for _, file := range reader.File {
		src, err := file.Open()
		if err != nil {
			return nil, 0, err
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, 0, err
		}

		if slideXMLPattern.MatchString(file.Name) {
			text := string(content)
			for find, replace := range replacements {
				if strings.Contains(text, find) {
					replaced++
				}
				text = strings.ReplaceAll(text, find, replace)
			}
			content = []byte(text)
		}

		dst, err := writer.Create(file.Name)
		if err != nil {
			return nil, 0, err
		}
		if _, err := dst.Write(content); err != nil {
			return nil, 0, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, 0, err
	}
	return outBuf.Bytes(), replaced, nil
}

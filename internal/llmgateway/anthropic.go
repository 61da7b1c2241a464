package llmgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/relaykit/conduit/pkg/models"
)

// AnthropicBackend implements Gateway against Anthropic's native Messages
// API. It retries the call exactly once after a forced key refresh when the
// provider responds 401, per §4.1.
type AnthropicBackend struct {
	client anthropic.Client
	keys   *KeyCache
}

// NewAnthropicBackend builds a backend whose client is rebuilt from keys on
// every forced refresh, since the SDK client bakes the API key in at
// construction time.
func NewAnthropicBackend(keys *KeyCache) (*AnthropicBackend, error) {
	key, err := keys.Key()
	if err != nil {
		return nil, unavailable(err)
	}
	return &AnthropicBackend{
		client: anthropic.NewClient(option.WithAPIKey(key)),
		keys:   keys,
	}, nil
}

func (b *AnthropicBackend) rebuild() error {
	key, err := b.keys.ForceRefresh()
	if err != nil {
		return err
	}
	b.client = anthropic.NewClient(option.WithAPIKey(key))
	return nil
}

func (b *AnthropicBackend) Call(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (*AssistantMessage, error) {
	params, err := buildParams(transcript, modelID, maxOutput, tools)
	if err != nil {
		return nil, protocolError(err)
	}

	msg, err := b.client.Messages.New(ctx, params)
	if err != nil {
		if isUnauthorized(err) {
			if rerr := b.rebuild(); rerr == nil {
				msg, err = b.client.Messages.New(ctx, params)
			}
		}
		if err != nil {
			return nil, classifyError(err)
		}
	}

	if len(msg.Content) == 0 {
		return nil, protocolError(errors.New("empty choices from anthropic"))
	}

	out := &AssistantMessage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Content = append(out.Content, models.ContentBlock{Type: models.BlockText, Text: variant.Text})
		case anthropic.ToolUseBlock:
			out.Content = append(out.Content, models.ContentBlock{
				Type:     models.BlockToolUse,
				ID:       variant.ID,
				ToolName: variant.Name,
				Input:    variant.Input,
			})
		}
	}
	return out, nil
}

func (b *AnthropicBackend) Stream(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (<-chan Delta, error) {
	params, err := buildParams(transcript, modelID, maxOutput, tools)
	if err != nil {
		return nil, protocolError(err)
	}

	stream := b.client.Messages.NewStreaming(ctx, params)
	out := make(chan Delta)

	go func() {
		defer close(out)
		var toolIndex int
		for stream.Next() {
			event := stream.Current()
			switch event.Type {
			case "content_block_start":
				cb := event.AsContentBlockStart()
				if cb.ContentBlock.Type == "tool_use" {
					tu := cb.ContentBlock.AsToolUse()
					out <- Delta{Index: toolIndex, ToolCall: &PartialToolCall{ID: tu.ID, Name: tu.Name}}
				}
			case "content_block_delta":
				cbd := event.AsContentBlockDelta()
				switch cbd.Delta.Type {
				case "text_delta":
					if cbd.Delta.Text != "" {
						out <- Delta{Index: toolIndex, Text: cbd.Delta.Text}
					}
				case "input_json_delta":
					if cbd.Delta.PartialJSON != "" {
						out <- Delta{Index: toolIndex, ToolCall: &PartialToolCall{ArgumentsText: cbd.Delta.PartialJSON}}
					}
				}
			case "content_block_stop":
				toolIndex++
			}
		}
		if err := stream.Err(); err != nil {
			out <- Delta{Err: classifyError(err), Done: true}
			return
		}
		out <- Delta{Done: true}
	}()

	return out, nil
}

func buildParams(transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (anthropic.MessageNewParams, error) {
	msgs, system, err := convertMessages(transcript)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}
	if maxOutput <= 0 {
		maxOutput = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		Messages:  msgs,
		MaxTokens: int64(maxOutput),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}
	return params, nil
}

func convertMessages(transcript []models.Message) ([]anthropic.MessageParam, string, error) {
	var system string
	var out []anthropic.MessageParam
	for _, m := range transcript {
		switch m.Role {
		case models.RoleSystem:
			system = m.Text()
		case models.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text())))
		case models.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			for _, b := range m.Content {
				switch b.Type {
				case models.BlockText:
					blocks = append(blocks, anthropic.NewTextBlock(b.Text))
				case models.BlockToolUse:
					var input any
					if err := json.Unmarshal(b.Input, &input); err != nil {
						input = map[string]any{}
					}
					blocks = append(blocks, anthropic.NewToolUseBlock(b.ID, input, b.ToolName))
				}
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case models.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolUseID, m.ToolResultText, m.ToolIsError),
			))
		}
	}
	return out, system, nil
}

func convertTools(tools []models.ToolSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]any, len(t.Params))
		var required []string
		for name, p := range t.Params {
			props[name] = map[string]any{"type": p.Type, "description": p.Description}
			if p.Required {
				required = append(required, name)
			}
		}
		schema := anthropic.ToolInputSchemaParam{Properties: props, Required: required}
		tp := anthropic.ToolUnionParamOfTool(schema, t.Name)
		tp.OfTool.Description = anthropic.String(t.Description)
		out = append(out, tp)
	}
	return out
}

func isUnauthorized(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return strings.Contains(err.Error(), "401")
}

func classifyError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 || apiErr.StatusCode == 0 {
			return unavailable(err)
		}
		return statusError(apiErr.StatusCode, err)
	}
	return unavailable(fmt.Errorf("anthropic: %w", err))
}

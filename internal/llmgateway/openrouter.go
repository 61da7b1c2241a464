package llmgateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/relaykit/conduit/pkg/models"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterBackend implements Gateway against any OpenAI-chat-completions
// compatible endpoint, used for OpenRouter credentials per §6.
type OpenRouterBackend struct {
	client *openai.Client
	keys   *KeyCache
}

// NewOpenRouterBackend builds a backend pointed at OpenRouter's base URL.
func NewOpenRouterBackend(keys *KeyCache) (*OpenRouterBackend, error) {
	key, err := keys.Key()
	if err != nil {
		return nil, unavailable(err)
	}
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = openRouterBaseURL
	return &OpenRouterBackend{client: openai.NewClientWithConfig(cfg), keys: keys}, nil
}

func (b *OpenRouterBackend) rebuild() error {
	key, err := b.keys.ForceRefresh()
	if err != nil {
		return err
	}
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = openRouterBaseURL
	b.client = openai.NewClientWithConfig(cfg)
	return nil
}

func (b *OpenRouterBackend) Call(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (*AssistantMessage, error) {
	req := buildChatRequest(transcript, modelID, maxOutput, tools, false)

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if isOpenAIUnauthorized(err) {
			if rerr := b.rebuild(); rerr == nil {
				resp, err = b.client.CreateChatCompletion(ctx, req)
			}
		}
		if err != nil {
			return nil, classifyOpenAIError(err)
		}
	}

	if len(resp.Choices) == 0 {
		return nil, protocolError(errors.New("empty choices from openrouter"))
	}
	choice := resp.Choices[0].Message

	out := &AssistantMessage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if choice.Content != "" {
		out.Content = append(out.Content, models.ContentBlock{Type: models.BlockText, Text: choice.Content})
	}
	for _, tc := range choice.ToolCalls {
		out.Content = append(out.Content, models.ContentBlock{
			Type:     models.BlockToolUse,
			ID:       tc.ID,
			ToolName: tc.Function.Name,
			Input:    json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

func (b *OpenRouterBackend) Stream(ctx context.Context, transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema) (<-chan Delta, error) {
	req := buildChatRequest(transcript, modelID, maxOutput, tools, true)

	stream, err := b.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		if isOpenAIUnauthorized(err) {
			if rerr := b.rebuild(); rerr == nil {
				stream, err = b.client.CreateChatCompletionStream(ctx, req)
			}
		}
		if err != nil {
			return nil, classifyOpenAIError(err)
		}
	}

	out := make(chan Delta)
	go func() {
		defer close(out)
		defer stream.Close()
		toolCalls := make(map[int]*PartialToolCall)
		for {
			resp, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					for idx, tc := range toolCalls {
						out <- Delta{Index: idx, ToolCall: tc}
					}
					out <- Delta{Done: true}
					return
				}
				out <- Delta{Err: classifyOpenAIError(err), Done: true}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta
			if delta.Content != "" {
				out <- Delta{Text: delta.Content}
			}
			for _, tc := range delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				if toolCalls[idx] == nil {
					toolCalls[idx] = &PartialToolCall{}
				}
				if tc.ID != "" {
					toolCalls[idx].ID = tc.ID
				}
				if tc.Function.Name != "" {
					toolCalls[idx].Name = tc.Function.Name
				}
				if tc.Function.Arguments != "" {
					toolCalls[idx].ArgumentsText += tc.Function.Arguments
				}
			}
		}
	}()
	return out, nil
}

func buildChatRequest(transcript []models.Message, modelID string, maxOutput int, tools []models.ToolSchema, stream bool) openai.ChatCompletionRequest {
	if maxOutput <= 0 {
		maxOutput = 4096
	}
	req := openai.ChatCompletionRequest{
		Model:     modelID,
		Messages:  convertOpenAIMessages(transcript),
		MaxTokens: maxOutput,
		Stream:    stream,
	}
	if len(tools) > 0 {
		req.Tools = convertOpenAITools(tools)
	}
	return req
}

func convertOpenAIMessages(transcript []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(transcript))
	for _, m := range transcript {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Text()})
		case models.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text()})
		case models.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text()}
			for _, b := range m.ToolUses() {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   b.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      b.ToolName,
						Arguments: string(b.Input),
					},
				})
			}
			out = append(out, msg)
		case models.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.ToolResultText,
				ToolCallID: m.ToolUseID,
			})
		}
	}
	return out
}

func convertOpenAITools(tools []models.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]any, len(t.Params))
		var required []string
		for name, p := range t.Params {
			props[name] = map[string]any{"type": p.Type, "description": p.Description}
			if p.Required {
				required = append(required, name)
			}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": props,
					"required":   required,
				},
			},
		})
	}
	return out
}

func isOpenAIUnauthorized(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 401
	}
	return strings.Contains(err.Error(), "401")
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == 0 {
			return unavailable(err)
		}
		return statusError(apiErr.HTTPStatusCode, err)
	}
	return unavailable(err)
}

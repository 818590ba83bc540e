// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	oaoption "github.com/openai/openai-go/option"

	"github.com/pdiddy/report-engine/pkg/types"
)

// OpenAIProvider calls the OpenAI chat completions API. Structured replies
// use a strict JSON Schema response format.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAI builds a provider from model settings. SDK retries are disabled
// because the Client retries.
func NewOpenAI(cfg types.ModelConfig) *OpenAIProvider {
	opts := []oaoption.RequestOption{
		oaoption.WithAPIKey(cfg.APIKey),
		oaoption.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, oaoption.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name returns types.ProviderOpenAI.
func (p *OpenAIProvider) Name() types.LLMProvider { return types.ProviderOpenAI }

// Complete returns the first choice's content.
func (p *OpenAIProvider) Complete(ctx context.Context, msgs []Message) (string, error) {
	return p.complete(ctx, p.params(msgs))
}

// CompleteJSON requests a reply matching schema.
func (p *OpenAIProvider) CompleteJSON(ctx context.Context, msgs []Message, schema Schema) (string, error) {
	params := p.params(msgs)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        schema.Name,
				Description: openai.String(schema.Description),
				Schema:      schema.JSON,
				Strict:      openai.Bool(true),
			},
		},
	}
	return p.complete(ctx, params)
}

func (p *OpenAIProvider) params(msgs []Message) openai.ChatCompletionNewParams {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: out,
	}
	if p.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.maxTokens))
	}
	return params
}

func (p *OpenAIProvider) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

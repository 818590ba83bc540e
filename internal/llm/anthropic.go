// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/report-engine/pkg/types"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicProvider calls the Anthropic messages API. Structured replies are
// obtained by forcing a single tool whose input schema is the target schema.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic builds a provider from model settings. SDK retries are
// disabled because the Client retries.
func NewAnthropic(cfg types.ModelConfig) *AnthropicProvider {
	opts := []anoption.RequestOption{
		anoption.WithAPIKey(cfg.APIKey),
		anoption.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anoption.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

// Name returns types.ProviderAnthropic.
func (p *AnthropicProvider) Name() types.LLMProvider { return types.ProviderAnthropic }

// Complete returns the concatenated text blocks of the reply.
func (p *AnthropicProvider) Complete(ctx context.Context, msgs []Message) (string, error) {
	msg, err := p.client.Messages.New(ctx, p.params(msgs))
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// CompleteJSON forces a tool call named after schema and returns its input.
func (p *AnthropicProvider) CompleteJSON(ctx context.Context, msgs []Message, schema Schema) (string, error) {
	params := p.params(msgs)
	params.Tools = []anthropic.ToolUnionParam{{
		OfTool: &anthropic.ToolParam{
			Name:        schema.Name,
			Description: anthropic.String(schema.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.JSON["properties"],
				Required:   requiredFields(schema.JSON),
			},
		},
	}}
	params.ToolChoice = anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: schema.Name},
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			return string(b.Input), nil
		case anthropic.TextBlock:
			// A model that ignores the tool may still answer in JSON.
			if strings.TrimSpace(b.Text) != "" && json.Valid([]byte(stripFence(b.Text))) {
				return b.Text, nil
			}
		}
	}
	return "", fmt.Errorf("anthropic: no %s tool call in reply", schema.Name)
}

func (p *AnthropicProvider) params(msgs []Message) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var conv []anthropic.MessageParam
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			conv = append(conv, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		System:    system,
		Messages:  conv,
	}
}

// requiredFields reads the top-level "required" list of a JSON Schema.
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if name, ok := r.(string); ok {
				out = append(out, name)
			}
		}
		return out
	}
	return nil
}

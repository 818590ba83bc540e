// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm talks to chat models. A Client wraps one provider (OpenAI or
// Anthropic) and adds transport retries, metrics, and schema-checked
// structured output.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/internal/metrics"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Role tags a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    Role
	Content string
}

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Schema names a structured output target and its JSON Schema.
type Schema struct {
	Name        string
	Description string
	JSON        map[string]any
}

// Validator is implemented by structured output types.
type Validator interface {
	Validate() error
}

// Provider abstracts a chat model API so tests can supply a mock.
type Provider interface {
	Name() types.LLMProvider

	// Complete returns the model's free-text reply.
	Complete(ctx context.Context, msgs []Message) (string, error)

	// CompleteJSON asks for a reply conforming to schema and returns the raw
	// JSON text. Conformance is checked by the caller.
	CompleteJSON(ctx context.Context, msgs []Message, schema Schema) (string, error)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override it to avoid real sleeps.
var backoffBase = time.Second

// Client adds retries, metrics, and structured decoding to a Provider.
type Client struct {
	provider   Provider
	maxRetries int
	logger     *zap.Logger
}

// NewClient wraps a provider. maxRetries counts retries after the first
// attempt and applies to provider errors only.
func NewClient(p Provider, maxRetries int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{provider: p, maxRetries: maxRetries, logger: logger}
}

// New builds a client for the configured provider.
func New(cfg types.ModelConfig, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var p Provider
	switch cfg.Provider {
	case types.ProviderOpenAI:
		p = NewOpenAI(cfg)
	case types.ProviderAnthropic:
		p = NewAnthropic(cfg)
	}
	return NewClient(p, cfg.MaxRetries, logger), nil
}

// Text returns the model's free-text reply.
func (c *Client) Text(ctx context.Context, msgs []Message) (string, error) {
	out, err := c.call(ctx, "text", func(ctx context.Context) (string, error) {
		return c.provider.Complete(ctx, msgs)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Structured asks for a reply conforming to schema and decodes it into out.
// A reply that does not decode or validate fails with types.ErrUpstreamModel
// and is not retried.
func (c *Client) Structured(ctx context.Context, msgs []Message, schema Schema, out Validator) error {
	raw, err := c.call(ctx, "structured", func(ctx context.Context) (string, error) {
		return c.provider.CompleteJSON(ctx, msgs, schema)
	})
	if err != nil {
		return err
	}
	if err := Decode(raw, out); err != nil {
		c.logger.Warn("structured output rejected",
			zap.String("provider", string(c.provider.Name())),
			zap.String("schema", schema.Name),
			zap.Error(err))
		return fmt.Errorf("%w: %s: %w", types.ErrUpstreamModel, schema.Name, err)
	}
	return nil
}

// Decode parses a JSON reply, tolerating a surrounding Markdown code fence,
// and validates the result.
func Decode(raw string, out Validator) error {
	text := stripFence(raw)
	if text == "" {
		return fmt.Errorf("empty response")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return out.Validate()
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// call runs fn with exponential backoff between attempts and records
// metrics. Exhausted retries wrap types.ErrUpstreamModel.
func (c *Client) call(ctx context.Context, kind string, fn func(context.Context) (string, error)) (string, error) {
	provider := string(c.provider.Name())
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			c.logger.Debug("retrying model call",
				zap.String("provider", provider),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		start := time.Now()
		out, err := fn(ctx)
		metrics.LLMRequestDuration.Observe(time.Since(start).Seconds())
		metrics.LLMRequests.WithLabelValues(provider, kind, metrics.Outcome(err)).Inc()
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: %s after %d retries: %w", types.ErrUpstreamModel, provider, c.maxRetries, lastErr)
}

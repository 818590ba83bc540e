// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/report-engine/internal/httputil"
	"github.com/pdiddy/report-engine/pkg/types"
)

// perplexityAPIURL is the Perplexity chat completions endpoint. Package-level
// var for test substitution.
var perplexityAPIURL = "https://api.perplexity.ai/chat/completions"

const perplexitySystemPrompt = "Search the web and provide factual information with sources."

// perplexityFallbackURL stands in when an answer carries no citations.
const perplexityFallbackURL = "https://perplexity.ai"

// PerplexityBackend answers each query with a Perplexity online model and
// turns the answer plus its citations into search results. The first
// citation carries the answer text; the rest only point at their URLs.
type PerplexityBackend struct {
	APIKey     string
	Model      string
	UserAgent  string
	MaxRetries int
	Client     *http.Client
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model    string              `json:"model"`
	Messages []perplexityMessage `json:"messages"`
}

type perplexityResponse struct {
	Choices []struct {
		Message perplexityMessage `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Name returns the backend identifier.
func (b *PerplexityBackend) Name() types.SearchBackend { return types.BackendPerplexity }

// ProvidesRawContent is false: Perplexity returns a synthesized answer, not pages.
func (b *PerplexityBackend) ProvidesRawContent() bool { return false }

// Search asks Perplexity one query.
func (b *PerplexityBackend) Search(ctx context.Context, query string) ([]types.SearchResult, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("%w: perplexity API key is not set", types.ErrConfiguration)
	}

	model := b.Model
	if model == "" {
		model = "sonar-pro"
	}
	body, err := json.Marshal(perplexityRequest{
		Model: model,
		Messages: []perplexityMessage{
			{Role: "system", Content: perplexitySystemPrompt},
			{Role: "user", Content: query},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, perplexityAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling Perplexity API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("Perplexity API returned %d: %s", resp.StatusCode, string(msg))
	}

	var pr perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding Perplexity response: %w", err)
	}
	if len(pr.Choices) == 0 {
		return nil, fmt.Errorf("Perplexity API returned no choices")
	}

	answer := pr.Choices[0].Message.Content
	citations := pr.Citations
	if len(citations) == 0 {
		citations = []string{perplexityFallbackURL}
	}

	results := make([]types.SearchResult, 0, len(citations))
	for i, url := range citations {
		r := types.SearchResult{
			Title: fmt.Sprintf("Perplexity Search, Source %d", i+1),
			URL:   url,
		}
		if i == 0 {
			r.Content = answer
			r.RawContent = answer
		} else {
			r.Content = "See primary source for full content"
		}
		results = append(results, r)
	}
	return results, nil
}

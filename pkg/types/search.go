// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// SearchBackend names a web search provider.
type SearchBackend string

const (
	BackendTavily     SearchBackend = "tavily"
	BackendPerplexity SearchBackend = "perplexity"
)

// ParseSearchBackend validates s against the supported backends.
func ParseSearchBackend(s string) (SearchBackend, error) {
	switch b := SearchBackend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendTavily, BackendPerplexity:
		return b, nil
	default:
		return "", fmt.Errorf("%w: unsupported search backend %q", ErrConfiguration, s)
	}
}

// SearchResult is one ranked web result for a query.
type SearchResult struct {
	// Title is the page title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// URL is the page address and the dedup key across queries.
	URL string `json:"url" yaml:"url"`

	// Content is the backend's most relevant snippet.
	Content string `json:"content" yaml:"content"`

	// RawContent is the full page text when the backend provides it.
	RawContent string `json:"raw_content,omitempty" yaml:"raw_content,omitempty"`

	// Score is the backend's relevance score, 0 when not reported.
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// QueryResults groups the results returned for one query.
type QueryResults struct {
	Query   string         `json:"query" yaml:"query"`
	Results []SearchResult `json:"results" yaml:"results"`
}

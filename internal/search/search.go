// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search dispatches batches of web search queries to a pluggable
// backend and renders the deduplicated, token-bounded source context that
// planning and section drafting consume.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/report-engine/internal/metrics"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Backend searches a single web search provider. Each provider (Tavily,
// Perplexity) implements this interface per the Strategy pattern.
type Backend interface {
	Name() types.SearchBackend
	Search(ctx context.Context, query string) ([]types.SearchResult, error)

	// ProvidesRawContent reports whether results carry full page text.
	ProvidesRawContent() bool
}

// Budget bounds how much of each source reaches the prompt.
type Budget struct {
	// MaxTokensPerSource truncates raw content at about four characters per token.
	MaxTokensPerSource int

	// IncludeRawContent appends full page text when the backend provides it.
	IncludeRawContent bool
}

var (
	// PlanningBudget is used while planning the report.
	PlanningBudget = Budget{MaxTokensPerSource: 1000}

	// SectionBudget is used while researching a section.
	SectionBudget = Budget{MaxTokensPerSource: 5000, IncludeRawContent: true}
)

// Research is the outcome of one batch of queries.
type Research struct {
	// Results holds the raw per-query results in query order.
	Results []types.QueryResults

	// Sources holds the results deduplicated by URL in first-seen order.
	Sources []types.SearchResult

	// DupsRemoved counts results dropped by deduplication.
	DupsRemoved int

	// Context is the formatted source text handed to the model.
	Context string
}

// Client dispatches query batches to one backend.
type Client struct {
	backend Backend
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds a client for the named backend. An unknown backend fails with
// types.ErrConfiguration before any request is made.
func New(name types.SearchBackend, cfg types.SearchConfig, logger *zap.Logger) (*Client, error) {
	backend, err := types.ParseSearchBackend(string(name))
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	var b Backend
	switch backend {
	case types.BackendTavily:
		b = &TavilyBackend{
			APIKey:      cfg.TavilyAPIKey,
			MaxResults:  cfg.MaxResults,
			SearchDepth: cfg.TavilySearchDepth,
			UserAgent:   cfg.UserAgent,
			MaxRetries:  cfg.MaxRetries,
			Client:      httpClient,
		}
	case types.BackendPerplexity:
		b = &PerplexityBackend{
			APIKey:     cfg.PerplexityAPIKey,
			Model:      cfg.PerplexityModel,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
			Client:     httpClient,
		}
	}
	return NewClient(b, cfg.RequestsPerSecond, logger), nil
}

// NewClient wraps an existing backend. requestsPerSecond of 0 disables
// rate limiting.
func NewClient(backend Backend, requestsPerSecond float64, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{backend: backend, logger: logger}
	if requestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return c
}

// Backend returns the name of the configured backend.
func (c *Client) Backend() types.SearchBackend {
	return c.backend.Name()
}

// Search runs every query concurrently and returns results in query order.
// The first failing query cancels the rest.
func (c *Client) Search(ctx context.Context, queries []string) ([]types.QueryResults, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("no search queries")
	}

	out := make([]types.QueryResults, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			results, err := c.backend.Search(gctx, q)
			metrics.SearchRequests.WithLabelValues(string(c.backend.Name()), metrics.Outcome(err)).Inc()
			if err != nil {
				return fmt.Errorf("%s search %q: %w", c.backend.Name(), q, err)
			}
			out[i] = types.QueryResults{Query: q, Results: results}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Research searches, deduplicates by URL, and formats the sources within
// budget. Raw content is only included when the backend provides it.
func (c *Client) Research(ctx context.Context, queries []string, budget Budget) (Research, error) {
	results, err := c.Search(ctx, queries)
	if err != nil {
		return Research{}, err
	}

	sources, removed := Deduplicate(results)
	includeRaw := budget.IncludeRawContent && c.backend.ProvidesRawContent()

	c.logger.Debug("web research complete",
		zap.String("backend", string(c.backend.Name())),
		zap.Strings("queries", queries),
		zap.Int("sources", len(sources)),
		zap.Int("duplicates_removed", removed))

	return Research{
		Results:     results,
		Sources:     sources,
		DupsRemoved: removed,
		Context:     FormatSources(sources, budget.MaxTokensPerSource, includeRaw),
	}, nil
}

// Deduplicate flattens per-query results, keeping the first result seen for
// each URL. Results without a URL are never merged.
func Deduplicate(results []types.QueryResults) ([]types.SearchResult, int) {
	seen := make(map[string]bool)
	var deduped []types.SearchResult
	removed := 0

	for _, qr := range results {
		for _, r := range qr.Results {
			key := strings.TrimSpace(r.URL)
			if key != "" {
				if seen[key] {
					removed++
					continue
				}
				seen[key] = true
			}
			deduped = append(deduped, r)
		}
	}
	return deduped, removed
}

// charsPerToken approximates the tokenizer for truncation.
const charsPerToken = 4

// FormatSources renders sources as the prompt context block. Raw content,
// when included, is truncated to maxTokensPerSource tokens.
func FormatSources(sources []types.SearchResult, maxTokensPerSource int, includeRaw bool) string {
	var b strings.Builder
	b.WriteString("Sources:\n\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "Source %s:\n===\n", s.Title)
		fmt.Fprintf(&b, "URL: %s\n===\n", s.URL)
		fmt.Fprintf(&b, "Most relevant content from source: %s\n===\n", s.Content)
		if includeRaw {
			fmt.Fprintf(&b, "Full source content limited to %d tokens: %s\n\n",
				maxTokensPerSource, truncate(s.RawContent, maxTokensPerSource*charsPerToken))
		}
	}
	return strings.TrimSpace(b.String())
}

// truncate cuts s to limit bytes on a rune boundary and marks the cut.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... [truncated]"
}

// FormatTable writes deduplicated sources as a human-readable table to w.
func FormatTable(r Research, w io.Writer) {
	if len(r.Sources) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %s\n", "Rank", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, s := range r.Sources {
		title := s.Title
		if runes := []rune(title); len(runes) > 50 {
			title = string(runes[:47]) + "..."
		}
		fmt.Fprintf(w, "%-4d  %-50s  %s\n", i+1, title, s.URL)
	}

	fmt.Fprintf(w, "\n%d sources from %d queries", len(r.Sources), len(r.Results))
	if r.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", r.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes deduplicated sources as indented JSON to w.
func FormatJSON(r Research, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Sources)
}

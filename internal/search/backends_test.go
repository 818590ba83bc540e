package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/report-engine/internal/httputil"
	"github.com/pdiddy/report-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func withURL(t *testing.T, target *string, url string) {
	t.Helper()
	old := *target
	*target = url
	t.Cleanup(func() { *target = old })
}

// --- Tavily ---

func TestTavilySearchRequestAndParse(t *testing.T) {
	var got tavilyRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != "test/0.1" {
			t.Errorf("User-Agent = %q", ua)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"query":"go generics","results":[
			{"title":"Generics","url":"https://go.dev/doc/tutorial/generics","content":"snippet","raw_content":"full text","score":0.93},
			{"title":"No raw","url":"https://example.com","content":"only snippet","raw_content":null,"score":0.5}
		]}`)
	}))
	defer ts.Close()
	withURL(t, &tavilyAPIURL, ts.URL)

	b := &TavilyBackend{APIKey: "tvly-key", MaxResults: 3, SearchDepth: "advanced", UserAgent: "test/0.1", Client: ts.Client()}
	results, err := b.Search(context.Background(), "go generics")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got.APIKey != "tvly-key" || got.Query != "go generics" || got.MaxResults != 3 {
		t.Errorf("request = %+v", got)
	}
	if !got.IncludeRawContent || got.SearchDepth != "advanced" || got.Topic != "general" {
		t.Errorf("request flags = %+v", got)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].RawContent != "full text" || results[0].Score != 0.93 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].RawContent != "" {
		t.Errorf("null raw_content should map to empty, got %q", results[1].RawContent)
	}
}

func TestTavilySearchDefaultsMaxResults(t *testing.T) {
	var got tavilyRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer ts.Close()
	withURL(t, &tavilyAPIURL, ts.URL)

	b := &TavilyBackend{APIKey: "k", Client: ts.Client()}
	if _, err := b.Search(context.Background(), "q"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got.MaxResults != 5 {
		t.Errorf("max_results = %d, want 5", got.MaxResults)
	}
}

func TestTavilySearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		status  int
		body    string
		wantErr string
	}{
		{"missing key", "", 200, `{}`, "API key is not set"},
		{"server error", "k", 500, `boom`, "Tavily API returned 500"},
		{"bad json", "k", 200, `{not json`, "decoding Tavily response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()
			withURL(t, &tavilyAPIURL, ts.URL)

			b := &TavilyBackend{APIKey: tt.apiKey, Client: ts.Client()}
			_, err := b.Search(context.Background(), "q")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTavilyMissingKeyIsConfigurationError(t *testing.T) {
	b := &TavilyBackend{}
	_, err := b.Search(context.Background(), "q")
	if !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestTavilyRetriesRateLimit(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results":[{"title":"T","url":"https://t.example","content":"c"}]}`)
	}))
	defer ts.Close()
	withURL(t, &tavilyAPIURL, ts.URL)

	b := &TavilyBackend{APIKey: "k", MaxRetries: 2, Client: ts.Client()}
	results, err := b.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls != 2 || len(results) != 1 {
		t.Errorf("calls = %d, results = %d; want 2, 1", calls, len(results))
	}
}

// --- Perplexity ---

func TestPerplexitySearchCitations(t *testing.T) {
	var got perplexityRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer pplx-key" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"The answer."}}],
			"citations":["https://one.example","https://two.example"]}`)
	}))
	defer ts.Close()
	withURL(t, &perplexityAPIURL, ts.URL)

	b := &PerplexityBackend{APIKey: "pplx-key", Client: ts.Client()}
	results, err := b.Search(context.Background(), "what is go")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got.Model != "sonar-pro" || len(got.Messages) != 2 || got.Messages[1].Content != "what is go" {
		t.Errorf("request = %+v", got)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Content != "The answer." || results[0].URL != "https://one.example" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Content != "See primary source for full content" || results[1].RawContent != "" {
		t.Errorf("results[1] = %+v", results[1])
	}
	if b.ProvidesRawContent() {
		t.Error("perplexity should not provide raw content")
	}
}

func TestPerplexitySearchWithoutCitations(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Answer"}}]}`)
	}))
	defer ts.Close()
	withURL(t, &perplexityAPIURL, ts.URL)

	b := &PerplexityBackend{APIKey: "k", Client: ts.Client()}
	results, err := b.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].URL != perplexityFallbackURL {
		t.Errorf("results = %+v", results)
	}
}

func TestPerplexitySearchNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer ts.Close()
	withURL(t, &perplexityAPIURL, ts.URL)

	b := &PerplexityBackend{APIKey: "k", Client: ts.Client()}
	if _, err := b.Search(context.Background(), "q"); err == nil {
		t.Error("expected error for empty choices")
	}
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/report-engine/pkg/types"
)

var queriesSchema = Schema{
	Name:        "Queries",
	Description: "Search queries",
	JSON: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"queries": map[string]any{"type": "array"},
		},
		"required": []string{"queries"},
	},
}

func TestOpenAIComplete(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"o3-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hello"}}]}`)
	}))
	defer ts.Close()

	p := NewOpenAI(types.ModelConfig{Provider: types.ProviderOpenAI, Model: "o3-mini", APIKey: "sk-test", BaseURL: ts.URL + "/", MaxTokens: 256})
	out, err := p.Complete(context.Background(), []Message{System("be brief"), User("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	assert.Equal(t, "o3-mini", body["model"])
	assert.EqualValues(t, 256, body["max_completion_tokens"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Nil(t, body["response_format"])
}

func TestOpenAICompleteJSONSendsSchema(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"o3-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"queries\":[]}"}}]}`)
	}))
	defer ts.Close()

	p := NewOpenAI(types.ModelConfig{Provider: types.ProviderOpenAI, Model: "o3-mini", APIKey: "k", BaseURL: ts.URL + "/"})
	out, err := p.CompleteJSON(context.Background(), []Message{User("q")}, queriesSchema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"queries":[]}`, out)

	rf, ok := body["response_format"].(map[string]any)
	require.True(t, ok, "response_format missing")
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, "Queries", js["name"])
	assert.Equal(t, true, js["strict"])
}

func TestOpenAIServerErrorIsReturned(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer ts.Close()

	p := NewOpenAI(types.ModelConfig{Provider: types.ProviderOpenAI, Model: "m", APIKey: "k", BaseURL: ts.URL + "/"})
	_, err := p.Complete(context.Background(), []Message{User("q")})
	assert.Error(t, err)
}

func anthropicServer(t *testing.T, reply string, body *map[string]any) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude",
			"content":%s,"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`, reply)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestAnthropicComplete(t *testing.T) {
	var body map[string]any
	ts := anthropicServer(t, `[{"type":"text","text":"## Intro"},{"type":"text","text":"\n\nBody"}]`, &body)

	p := NewAnthropic(types.ModelConfig{Provider: types.ProviderAnthropic, Model: "claude", APIKey: "sk-ant", BaseURL: ts.URL + "/"})
	out, err := p.Complete(context.Background(), []Message{System("sys"), User("write")})
	require.NoError(t, err)
	assert.Equal(t, "## Intro\n\nBody", out)

	assert.EqualValues(t, defaultAnthropicMaxTokens, body["max_tokens"])
	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "sys", system[0].(map[string]any)["text"])
	assert.Len(t, body["messages"], 1)
}

func TestAnthropicCompleteJSONForcesTool(t *testing.T) {
	var body map[string]any
	ts := anthropicServer(t, `[{"type":"tool_use","id":"tu_1","name":"Queries","input":{"queries":[{"search_query":"x"}]}}]`, &body)

	p := NewAnthropic(types.ModelConfig{Provider: types.ProviderAnthropic, Model: "claude", APIKey: "sk-ant", BaseURL: ts.URL + "/"})
	out, err := p.CompleteJSON(context.Background(), []Message{User("q")}, queriesSchema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"queries":[{"search_query":"x"}]}`, out)

	choice := body["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "Queries", choice["name"])
	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "Queries", tool["name"])
	input := tool["input_schema"].(map[string]any)
	assert.Equal(t, []any{"queries"}, input["required"])
	assert.Contains(t, input["properties"], "queries")
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		schema map[string]any
		want   []string
	}{
		{"string slice", map[string]any{"required": []string{"a", "b"}}, []string{"a", "b"}},
		{"decoded json", map[string]any{"required": []any{"a", 1, "b"}}, []string{"a", "b"}},
		{"absent", map[string]any{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, requiredFields(tt.schema))
		})
	}
}

func TestAnthropicCompleteJSONWithoutToolCall(t *testing.T) {
	var body map[string]any
	ts := anthropicServer(t, `[{"type":"text","text":"I cannot help with that."}]`, &body)

	p := NewAnthropic(types.ModelConfig{Provider: types.ProviderAnthropic, Model: "claude", APIKey: "sk-ant", BaseURL: ts.URL + "/"})
	_, err := p.CompleteJSON(context.Background(), []Message{User("q")}, queriesSchema)
	assert.ErrorContains(t, err, "no Queries tool call")
}

package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/report-engine/internal/llm"
	"github.com/pdiddy/report-engine/internal/search"
	"github.com/pdiddy/report-engine/pkg/types"
)

// fakeModel replies to structured requests from per-schema queues and to
// text requests from a single queue. It records every system prompt.
type fakeModel struct {
	mu         sync.Mutex
	structured map[string][]string
	text       []string
	err        error
	systems    []string
}

func (m *fakeModel) record(msgs []llm.Message) {
	for _, msg := range msgs {
		if msg.Role == llm.RoleSystem {
			m.systems = append(m.systems, msg.Content)
		}
	}
}

func (m *fakeModel) Text(_ context.Context, msgs []llm.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(msgs)
	if m.err != nil {
		return "", m.err
	}
	out := m.text[0]
	m.text = m.text[1:]
	return out, nil
}

func (m *fakeModel) Structured(_ context.Context, msgs []llm.Message, schema llm.Schema, out llm.Validator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(msgs)
	if m.err != nil {
		return m.err
	}
	q := m.structured[schema.Name]
	if len(q) == 0 {
		return errors.New("no scripted reply for " + schema.Name)
	}
	m.structured[schema.Name] = q[1:]
	if err := llm.Decode(q[0], out); err != nil {
		return fmt.Errorf("%w: %w", types.ErrUpstreamModel, err)
	}
	return nil
}

type fakeResearcher struct {
	queries [][]string
	budgets []search.Budget
	err     error
}

func (r *fakeResearcher) Research(_ context.Context, queries []string, budget search.Budget) (search.Research, error) {
	r.queries = append(r.queries, queries)
	r.budgets = append(r.budgets, budget)
	if r.err != nil {
		return search.Research{}, r.err
	}
	return search.Research{Context: "Sources:\n" + strings.Join(queries, ",")}, nil
}

func testConfig() types.WorkflowConfig {
	cfg := types.DefaultConfig().Workflow
	cfg.NumberOfQueries = 2
	return cfg
}

func newGenerator(t *testing.T, planner, writer *fakeModel, r *fakeResearcher) *Generator {
	t.Helper()
	g, err := New(types.ReportComparison, testConfig(), planner, writer, r, zaptest.NewLogger(t))
	require.NoError(t, err)
	return g
}

func TestNewRejectsUnknownReportType(t *testing.T) {
	_, err := New("poem", testConfig(), &fakeModel{}, &fakeModel{}, &fakeResearcher{}, nil)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestPlanSections(t *testing.T) {
	writer := &fakeModel{structured: map[string][]string{
		"Queries": {`{"queries":[{"search_query":"a"},{"search_query":"b"},{"search_query":"c"}]}`},
	}}
	planner := &fakeModel{structured: map[string][]string{
		"Sections": {`{"sections":[
			{"name":" Overview ","description":"What is compared","research":true,"content":"stray"},
			{"name":"Conclusion","description":"Takeaways","research":false,"content":""}]}`},
	}}
	r := &fakeResearcher{}
	g := newGenerator(t, planner, writer, r)

	sections, err := g.PlanSections(context.Background(), "Postgres vs MySQL", "add pricing")
	require.NoError(t, err)

	assert.Equal(t, []types.Section{
		{Name: "Overview", Description: "What is compared", Research: true},
		{Name: "Conclusion", Description: "Takeaways"},
	}, sections)

	require.Len(t, r.queries, 1)
	assert.Equal(t, []string{"a", "b"}, r.queries[0], "queries are capped at number_of_queries")
	assert.Equal(t, search.PlanningBudget, r.budgets[0])

	require.Len(t, planner.systems, 1)
	assert.Contains(t, planner.systems[0], "add pricing")
	assert.Contains(t, planner.systems[0], "Sources:\na,b")
}

func TestPlanSectionsRejectsDuplicateNames(t *testing.T) {
	writer := &fakeModel{structured: map[string][]string{"Queries": {`{"queries":[{"search_query":"a"}]}`}}}
	planner := &fakeModel{structured: map[string][]string{
		"Sections": {`{"sections":[{"name":"A","description":"","research":true,"content":""},{"name":"A","description":"","research":false,"content":""}]}`},
	}}
	g := newGenerator(t, planner, writer, &fakeResearcher{})

	_, err := g.PlanSections(context.Background(), "T", "")
	assert.ErrorIs(t, err, types.ErrUpstreamModel)
}

func TestPlanSectionsSearchFailure(t *testing.T) {
	boom := errors.New("search down")
	writer := &fakeModel{structured: map[string][]string{"Queries": {`{"queries":[{"search_query":"a"}]}`}}}
	g := newGenerator(t, &fakeModel{}, writer, &fakeResearcher{err: boom})

	_, err := g.PlanSections(context.Background(), "T", "")
	assert.ErrorIs(t, err, boom)
}

func TestDraftSectionPassesPriorContentVerbatim(t *testing.T) {
	prior := "## Overview\n\n**Insight** with `code` and {{braces}}."
	writer := &fakeModel{text: []string{"## Overview\n\nNew draft"}}
	g := newGenerator(t, &fakeModel{}, writer, &fakeResearcher{})

	out, err := g.DraftSection(context.Background(), types.Section{Name: "Overview", Description: "desc", Content: prior}, "Sources: S")
	require.NoError(t, err)
	assert.Equal(t, "## Overview\n\nNew draft", out)
	require.Len(t, writer.systems, 1)
	assert.Contains(t, writer.systems[0], prior)
	assert.Contains(t, writer.systems[0], "Sources: S")
}

func TestGradeSection(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantGrade  types.Grade
		wantFollow int
	}{
		{"pass clears follow ups", `{"grade":"pass","follow_up_queries":[{"search_query":"x"}]}`, types.GradePass, 0},
		{"fail truncates follow ups", `{"grade":"fail","follow_up_queries":[{"search_query":"x"},{"search_query":"y"},{"search_query":"z"}]}`, types.GradeFail, 2},
		{"fail without follow ups", `{"grade":"fail","follow_up_queries":[]}`, types.GradeFail, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeModel{structured: map[string][]string{"Feedback": {tt.reply}}}
			g := newGenerator(t, &fakeModel{}, writer, &fakeResearcher{})

			fb, err := g.GradeSection(context.Background(), types.Section{Name: "S", Content: "body"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantGrade, fb.Grade)
			assert.Len(t, fb.FollowUpQueries, tt.wantFollow)
		})
	}
}

func TestDraftFinalSectionUsesGatheredContext(t *testing.T) {
	writer := &fakeModel{text: []string{"## Conclusion"}}
	g := newGenerator(t, &fakeModel{}, writer, &fakeResearcher{})

	out, err := g.DraftFinalSection(context.Background(), types.Section{Name: "Conclusion", Description: "wrap up"}, "GATHERED")
	require.NoError(t, err)
	assert.Equal(t, "## Conclusion", out)
	assert.Contains(t, writer.systems[0], "GATHERED")
}

func TestSourcesUsesSectionBudget(t *testing.T) {
	r := &fakeResearcher{}
	g := newGenerator(t, &fakeModel{}, &fakeModel{}, r)

	out, err := g.Sources(context.Background(), []string{"q"})
	require.NoError(t, err)
	assert.Equal(t, "Sources:\nq", out)
	assert.Equal(t, search.SectionBudget, r.budgets[0])
}

func TestFormatSections(t *testing.T) {
	out := FormatSections([]types.Section{
		{Name: "Overview", Description: "d1", Research: true, Content: "body"},
		{Name: "Conclusion", Description: "d2"},
	})

	rule := strings.Repeat("=", 60)
	assert.Equal(t, 4, strings.Count(out, rule))
	assert.Contains(t, out, "Section 1: Overview")
	assert.Contains(t, out, "Requires Research:\nYes")
	assert.Contains(t, out, "Section 2: Conclusion")
	assert.Contains(t, out, "Content:\n[Not yet written]")
	assert.Less(t, strings.Index(out, "Overview"), strings.Index(out, "Conclusion"))
}

func TestCompile(t *testing.T) {
	planned := []types.Section{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	completed := map[string]types.Section{
		"C": {Name: "C", Content: "c"},
		"A": {Name: "A", Content: "a"},
		"B": {Name: "B", Content: "b"},
	}

	out, err := Compile(planned, completed)
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb\n\nc", out)

	delete(completed, "B")
	_, err = Compile(planned, completed)
	assert.ErrorIs(t, err, types.ErrMissingSectionContent)
}

func TestInterruptMessage(t *testing.T) {
	msg := InterruptMessage([]types.Section{
		{Name: "Overview", Description: "d", Research: true},
		{Name: "Conclusion", Description: "e"},
	})
	assert.True(t, strings.HasPrefix(msg, "Please provide feedback on the following report plan."))
	assert.Contains(t, msg, "Section: Overview\nDescription: d\nResearch needed: Yes")
	assert.Contains(t, msg, "Research needed: No")
	assert.Contains(t, msg, "Pass 'true' to approve")
}

func TestSchemasAreValidJSON(t *testing.T) {
	for _, s := range []llm.Schema{QueriesSchema, SectionsSchema, FeedbackSchema} {
		_, err := json.Marshal(s.JSON)
		assert.NoError(t, err, s.Name)
		assert.Equal(t, false, s.JSON["additionalProperties"], s.Name)
	}
}

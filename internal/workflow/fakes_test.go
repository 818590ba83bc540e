package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/report-engine/internal/checkpoint"
	"github.com/pdiddy/report-engine/internal/llm"
	"github.com/pdiddy/report-engine/internal/search"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Prompt markers used by the fakes to tell requests apart.
const (
	finalWriterMarker   = "draws on the rest of the report"
	sectionWriterMarker = "writing one section of"
)

// fakeLLM answers through handler funcs and counts calls per kind.
type fakeLLM struct {
	mu         sync.Mutex
	text       func(ctx context.Context, system string) (string, error)
	structured func(ctx context.Context, schema, system string) (string, error)
	calls      map[string]int
	systems    map[string][]string
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{calls: map[string]int{}, systems: map[string][]string{}}
}

func systemOf(msgs []llm.Message) string {
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			return m.Content
		}
	}
	return ""
}

func (f *fakeLLM) note(kind, system string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[kind]++
	f.systems[kind] = append(f.systems[kind], system)
}

func (f *fakeLLM) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *fakeLLM) prompts(kind string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.systems[kind]...)
}

func (f *fakeLLM) Text(ctx context.Context, msgs []llm.Message) (string, error) {
	system := systemOf(msgs)
	kind := "section"
	if strings.Contains(system, finalWriterMarker) {
		kind = "final"
	}
	f.note(kind, system)
	if f.text == nil {
		return "", errors.New("no text handler")
	}
	return f.text(ctx, system)
}

func (f *fakeLLM) Structured(ctx context.Context, msgs []llm.Message, schema llm.Schema, out llm.Validator) error {
	system := systemOf(msgs)
	f.note(schema.Name, system)
	if f.structured == nil {
		return errors.New("no structured handler")
	}
	raw, err := f.structured(ctx, schema.Name, system)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrUpstreamModel, err)
	}
	if err := llm.Decode(raw, out); err != nil {
		return fmt.Errorf("%w: %w", types.ErrUpstreamModel, err)
	}
	return nil
}

// fakeSearch records research batches.
type fakeSearch struct {
	mu      sync.Mutex
	batches [][]string
	budgets []search.Budget
	err     error
}

func (s *fakeSearch) Research(_ context.Context, queries []string, budget search.Budget) (search.Research, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, queries)
	s.budgets = append(s.budgets, budget)
	if s.err != nil {
		return search.Research{}, s.err
	}
	return search.Research{Context: "Sources:\n" + strings.Join(queries, "\n")}, nil
}

func (s *fakeSearch) sectionRounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.budgets {
		if b == search.SectionBudget {
			n++
		}
	}
	return n
}

type plannedSection struct {
	name     string
	research bool
}

// planJSON renders a Sections reply. Descriptions are "about <name>" so
// handlers can find the section in a prompt.
func planJSON(sections ...plannedSection) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = fmt.Sprintf(`{"name":%q,"description":"about %s","research":%t,"content":""}`, s.name, s.name, s.research)
	}
	return `{"sections":[` + strings.Join(parts, ",") + `]}`
}

// sectionIn returns which of names the prompt is about.
func sectionIn(system string, names ...string) string {
	for _, n := range names {
		if strings.Contains(system, "about "+n+"\n") {
			return n
		}
	}
	return ""
}

const twoQueries = `{"queries":[{"search_query":"q1"},{"search_query":"q2"}]}`

// defaultStructured plans sections, returns two queries, and grades with
// the given reply.
func defaultStructured(plan, grade string) func(context.Context, string, string) (string, error) {
	return func(_ context.Context, schema, _ string) (string, error) {
		switch schema {
		case "Sections":
			return plan, nil
		case "Queries":
			return twoQueries, nil
		case "Feedback":
			return grade, nil
		}
		return "", fmt.Errorf("unexpected schema %s", schema)
	}
}

type harness struct {
	engine  *Engine
	planner *fakeLLM
	writer  *fakeLLM
	search  *fakeSearch
	store   *checkpoint.MemoryStore
}

func newHarness(t *testing.T, tweak func(*types.WorkflowConfig)) *harness {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.Workflow.NumberOfQueries = 2
	cfg.Workflow.MaxSearchDepth = 2
	if tweak != nil {
		tweak(&cfg.Workflow)
	}
	h := &harness{
		planner: newFakeLLM(),
		writer:  newFakeLLM(),
		search:  &fakeSearch{},
		store:   checkpoint.NewMemoryStore(),
	}
	// The planner model only plans; the writer handles the rest.
	h.planner.structured = func(ctx context.Context, schema, system string) (string, error) {
		return h.writer.structured(ctx, schema, system)
	}
	e, err := New(cfg, Deps{
		Planner: h.planner,
		Writer:  h.writer,
		Search:  h.search,
		Store:   h.store,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	h.engine = e
	return h
}

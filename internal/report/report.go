// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report implements the model-facing steps of a report: planning
// queries and sections, writing section queries, drafting and grading
// researched sections, and drafting sections from gathered report content.
package report

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/internal/llm"
	"github.com/pdiddy/report-engine/internal/prompts"
	"github.com/pdiddy/report-engine/internal/search"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Model is the chat model collaborator. *llm.Client satisfies it.
type Model interface {
	Text(ctx context.Context, msgs []llm.Message) (string, error)
	Structured(ctx context.Context, msgs []llm.Message, schema llm.Schema, out llm.Validator) error
}

// Researcher runs a batch of web searches and formats the sources.
// *search.Client satisfies it.
type Researcher interface {
	Research(ctx context.Context, queries []string, budget search.Budget) (search.Research, error)
}

// Generator runs the model-facing steps for one report type. The planner
// model produces the section plan; the writer model does everything else.
type Generator struct {
	prompts  *prompts.Set
	planner  Model
	writer   Model
	research Researcher
	cfg      types.WorkflowConfig
	logger   *zap.Logger
}

// New returns a Generator for the report type.
func New(rt types.ReportType, cfg types.WorkflowConfig, planner, writer Model, research Researcher, logger *zap.Logger) (*Generator, error) {
	set, err := prompts.For(rt)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		prompts:  set,
		planner:  planner,
		writer:   writer,
		research: research,
		cfg:      cfg,
		logger:   logger.With(zap.String("report_type", string(rt))),
	}, nil
}

// PlannerQueries asks the writer model for queries that inform planning.
func (g *Generator) PlannerQueries(ctx context.Context, topic string) ([]string, error) {
	system, err := g.prompts.PlannerQueries(prompts.PlannerQueryInput{
		Topic:              topic,
		ReportOrganization: g.cfg.ReportStructure,
		NumberOfQueries:    g.cfg.NumberOfQueries,
	})
	if err != nil {
		return nil, err
	}
	return g.queries(ctx, system, prompts.PlannerQueriesRequest)
}

// PlanSections researches the topic and asks the planner model for the
// report's sections. feedback is the reviewer's revision request, if any.
// Returned sections have trimmed names and empty content.
func (g *Generator) PlanSections(ctx context.Context, topic, feedback string) ([]types.Section, error) {
	queries, err := g.PlannerQueries(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("generating planning queries: %w", err)
	}
	g.logger.Debug("planning queries", zap.Strings("queries", queries))

	r, err := g.research.Research(ctx, queries, search.PlanningBudget)
	if err != nil {
		return nil, fmt.Errorf("researching topic: %w", err)
	}

	system, err := g.prompts.Planner(prompts.PlannerInput{
		Topic:              topic,
		ReportOrganization: g.cfg.ReportStructure,
		Context:            r.Context,
		Feedback:           feedback,
	})
	if err != nil {
		return nil, err
	}

	var plan types.Sections
	msgs := []llm.Message{llm.System(system), llm.User(prompts.PlannerRequest)}
	if err := g.planner.Structured(ctx, msgs, SectionsSchema, &plan); err != nil {
		return nil, fmt.Errorf("planning sections: %w", err)
	}

	sections := make([]types.Section, len(plan.Sections))
	for i, sec := range plan.Sections {
		sections[i] = types.Section{
			Name:        strings.TrimSpace(sec.Name),
			Description: strings.TrimSpace(sec.Description),
			Research:    sec.Research,
		}
	}
	return sections, nil
}

// SectionQueries asks the writer model for queries targeted at the
// section's description.
func (g *Generator) SectionQueries(ctx context.Context, sec types.Section) ([]string, error) {
	system, err := g.prompts.QueryWriter(prompts.QueryWriterInput{
		SectionTopic:    sec.Description,
		NumberOfQueries: g.cfg.NumberOfQueries,
	})
	if err != nil {
		return nil, err
	}
	return g.queries(ctx, system, prompts.QueriesRequest)
}

// Sources researches queries for a section and returns the formatted
// source context.
func (g *Generator) Sources(ctx context.Context, queries []string) (string, error) {
	r, err := g.research.Research(ctx, queries, search.SectionBudget)
	if err != nil {
		return "", err
	}
	return r.Context, nil
}

// DraftSection writes the section from sources. A non-empty sec.Content is
// the prior draft and is passed to the model unchanged.
func (g *Generator) DraftSection(ctx context.Context, sec types.Section, sources string) (string, error) {
	system, err := g.prompts.SectionWriter(prompts.SectionWriterInput{
		SectionTopic:   sec.Description,
		SectionContent: sec.Content,
		Context:        sources,
	})
	if err != nil {
		return "", err
	}
	out, err := g.writer.Text(ctx, []llm.Message{llm.System(system), llm.User(prompts.SectionRequest)})
	if err != nil {
		return "", fmt.Errorf("drafting section %q: %w", sec.Name, err)
	}
	return out, nil
}

// GradeSection grades the section's content. Follow-up queries are capped
// at the configured number of queries and cleared on a pass.
func (g *Generator) GradeSection(ctx context.Context, sec types.Section) (types.Feedback, error) {
	system, err := g.prompts.SectionGrader(prompts.GraderInput{
		SectionTopic: sec.Description,
		Section:      sec.Content,
	})
	if err != nil {
		return types.Feedback{}, err
	}
	var fb types.Feedback
	msgs := []llm.Message{llm.System(system), llm.User(prompts.GradeRequest)}
	if err := g.writer.Structured(ctx, msgs, FeedbackSchema, &fb); err != nil {
		return types.Feedback{}, fmt.Errorf("grading section %q: %w", sec.Name, err)
	}
	if fb.Grade == types.GradePass {
		fb.FollowUpQueries = nil
		return fb, nil
	}
	follow := types.Queries{Queries: fb.FollowUpQueries}.Strings(g.cfg.NumberOfQueries)
	fb.FollowUpQueries = make([]types.SearchQuery, len(follow))
	for i, q := range follow {
		fb.FollowUpQueries[i] = types.SearchQuery{SearchQuery: q}
	}
	return fb, nil
}

// DraftFinalSection writes a section that needs no research, using the
// gathered content of the researched sections as its only context.
func (g *Generator) DraftFinalSection(ctx context.Context, sec types.Section, gathered string) (string, error) {
	system, err := prompts.FinalSectionWriter(prompts.FinalSectionInput{
		SectionTopic: sec.Description,
		Context:      gathered,
	})
	if err != nil {
		return "", err
	}
	out, err := g.writer.Text(ctx, []llm.Message{llm.System(system), llm.User(prompts.FinalSectionRequest)})
	if err != nil {
		return "", fmt.Errorf("drafting final section %q: %w", sec.Name, err)
	}
	return out, nil
}

func (g *Generator) queries(ctx context.Context, system, request string) ([]string, error) {
	var q types.Queries
	msgs := []llm.Message{llm.System(system), llm.User(request)}
	if err := g.writer.Structured(ctx, msgs, QueriesSchema, &q); err != nil {
		return nil, err
	}
	return q.Strings(g.cfg.NumberOfQueries), nil
}

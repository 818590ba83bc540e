// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompts holds the system prompt templates for each report type and
// the fixed user messages that accompany them.
package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/report-engine/pkg/types"
)

// User messages paired with the system prompts.
const (
	PlannerQueriesRequest = "Generate search queries that will help with planning the sections of the report."
	PlannerRequest        = "Generate the sections of the report. Your response must include a 'sections' field containing a list of sections. Each section must have: name, description, research, and content fields."
	QueriesRequest        = "Generate search queries on the provided topic."
	SectionRequest        = "Generate a report section based on the provided sources."
	GradeRequest          = "Grade the report and consider follow-up questions for missing information:"
	FinalSectionRequest   = "Generate a report section based on the provided sources."
)

// PlannerQueryInput fills the planner query writer prompt.
type PlannerQueryInput struct {
	Topic              string
	ReportOrganization string
	NumberOfQueries    int
}

// PlannerInput fills the report planner prompt.
type PlannerInput struct {
	Topic              string
	ReportOrganization string
	Context            string
	Feedback           string
}

// QueryWriterInput fills the section query writer prompt.
type QueryWriterInput struct {
	SectionTopic    string
	NumberOfQueries int
}

// SectionWriterInput fills the section writer prompt. SectionContent is the
// section's prior draft, passed through verbatim.
type SectionWriterInput struct {
	SectionTopic   string
	SectionContent string
	Context        string
}

// GraderInput fills the section grader prompt.
type GraderInput struct {
	SectionTopic string
	Section      string
}

// FinalSectionInput fills the final section writer prompt.
type FinalSectionInput struct {
	SectionTopic string
	Context      string
}

// Set is the prompt set for one report type.
type Set struct {
	Type          types.ReportType
	plannerQuery  *template.Template
	planner       *template.Template
	queryWriter   *template.Template
	sectionWriter *template.Template
	sectionGrader *template.Template
}

var sets = map[types.ReportType]*Set{
	types.ReportMarketing:  newSet(types.ReportMarketing, marketing),
	types.ReportComparison: newSet(types.ReportComparison, comparison),
}

type texts struct {
	plannerQuery, planner, queryWriter, sectionWriter, sectionGrader string
}

func newSet(rt types.ReportType, t texts) *Set {
	name := string(rt)
	return &Set{
		Type:          rt,
		plannerQuery:  template.Must(template.New(name + "-planner-query").Parse(t.plannerQuery)),
		planner:       template.Must(template.New(name + "-planner").Parse(t.planner)),
		queryWriter:   template.Must(template.New(name + "-query-writer").Parse(t.queryWriter)),
		sectionWriter: template.Must(template.New(name + "-section-writer").Parse(t.sectionWriter)),
		sectionGrader: template.Must(template.New(name + "-section-grader").Parse(t.sectionGrader)),
	}
}

// For returns the prompt set for a report type.
func For(rt types.ReportType) (*Set, error) {
	s, ok := sets[rt]
	if !ok {
		return nil, fmt.Errorf("%w: no prompts for report type %q", types.ErrConfiguration, rt)
	}
	return s, nil
}

// PlannerQueries renders the planner query writer prompt.
func (s *Set) PlannerQueries(in PlannerQueryInput) (string, error) {
	return render(s.plannerQuery, in)
}

// Planner renders the report planner prompt.
func (s *Set) Planner(in PlannerInput) (string, error) {
	return render(s.planner, in)
}

// QueryWriter renders the section query writer prompt.
func (s *Set) QueryWriter(in QueryWriterInput) (string, error) {
	return render(s.queryWriter, in)
}

// SectionWriter renders the section writer prompt.
func (s *Set) SectionWriter(in SectionWriterInput) (string, error) {
	return render(s.sectionWriter, in)
}

// SectionGrader renders the section grader prompt.
func (s *Set) SectionGrader(in GraderInput) (string, error) {
	return render(s.sectionGrader, in)
}

// FinalSectionWriter renders the prompt for sections written from the
// gathered report content. It is shared by all report types.
func FinalSectionWriter(in FinalSectionInput) (string, error) {
	return render(finalSectionTmpl, in)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

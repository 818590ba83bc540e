// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"time"
)

// Phase is the report workflow's position in its state machine. The phase
// persisted with a checkpoint is the node the workflow resumes at.
type Phase string

const (
	PhasePlan             Phase = "plan"
	PhaseAwaitingFeedback Phase = "awaiting_feedback"
	PhaseResearchSections Phase = "research_sections"
	PhaseGather           Phase = "gather"
	PhaseFinalSections    Phase = "final_sections"
	PhaseCompile          Phase = "compile"
	PhaseDone             Phase = "done"
)

// ReportState is the long-lived state of one report workflow instance. It is
// what the checkpoint store persists under the workflow ID.
type ReportState struct {
	WorkflowID string     `json:"workflow_id" yaml:"workflow_id"`
	Topic      string     `json:"topic" yaml:"topic"`
	ReportType ReportType `json:"report_type" yaml:"report_type"`
	Phase      Phase      `json:"phase" yaml:"phase"`

	// FeedbackOnReportPlan is the reviewer's latest revision request; empty
	// until a revision round.
	FeedbackOnReportPlan string `json:"feedback_on_report_plan" yaml:"feedback_on_report_plan"`

	// Sections is the authoritative plan, in planning order.
	Sections []Section `json:"sections" yaml:"sections"`

	// CompletedSections holds finalized sections keyed by name. Completion
	// order is not recorded.
	CompletedSections map[string]Section `json:"completed_sections" yaml:"completed_sections"`

	ReportSectionsFromResearch string `json:"report_sections_from_research" yaml:"report_sections_from_research"`
	FinalReport                string `json:"final_report" yaml:"final_report"`

	// Interrupt is the message shown to the reviewer while suspended.
	Interrupt string `json:"interrupt,omitempty" yaml:"interrupt,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewReportState returns the initial state for a workflow.
func NewReportState(id, topic string, reportType ReportType) *ReportState {
	now := time.Now().UTC()
	return &ReportState{
		WorkflowID:        id,
		Topic:             topic,
		ReportType:        reportType,
		Phase:             PhasePlan,
		CompletedSections: map[string]Section{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Complete records a finalized section.
func (s *ReportState) Complete(sec Section) {
	if s.CompletedSections == nil {
		s.CompletedSections = map[string]Section{}
	}
	s.CompletedSections[sec.Name] = sec
}

// OrderedCompleted returns completed sections in planning order, followed by
// any completed sections that are not in the plan, sorted by name.
func (s *ReportState) OrderedCompleted() []Section {
	out := make([]Section, 0, len(s.CompletedSections))
	planned := make(map[string]bool, len(s.Sections))
	for _, sec := range s.Sections {
		planned[sec.Name] = true
		if done, ok := s.CompletedSections[sec.Name]; ok {
			out = append(out, done)
		}
	}
	var extra []string
	for name := range s.CompletedSections {
		if !planned[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, s.CompletedSections[name])
	}
	return out
}

// SectionsNeedingResearch returns the planned sections with Research set,
// in planning order.
func (s *ReportState) SectionsNeedingResearch() []Section {
	return filterSections(s.Sections, true)
}

// FinalSections returns the planned sections drafted without research.
func (s *ReportState) FinalSections() []Section {
	return filterSections(s.Sections, false)
}

func filterSections(sections []Section, research bool) []Section {
	var out []Section
	for _, sec := range sections {
		if sec.Research == research {
			out = append(out, sec)
		}
	}
	return out
}

// SectionState is the scratch state of one section workflow instance. Only
// its finished Section outlives the instance.
type SectionState struct {
	Section          Section  `json:"section" yaml:"section"`
	SearchQueries    []string `json:"search_queries" yaml:"search_queries"`
	SourceStr        string   `json:"source_str" yaml:"source_str"`
	SearchIterations int      `json:"search_iterations" yaml:"search_iterations"`

	// ReportSectionsFromResearch is the gathered context, set only for
	// sections drafted without research.
	ReportSectionsFromResearch string `json:"report_sections_from_research,omitempty" yaml:"report_sections_from_research,omitempty"`
}

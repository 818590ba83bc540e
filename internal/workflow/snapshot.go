package workflow

import "github.com/pdiddy/report-engine/pkg/types"

// Workflow statuses reported in snapshots.
const (
	StatusAwaitingFeedback = "awaiting_feedback"
	StatusCompleted        = "completed"
)

// Snapshot is the plain view of a workflow returned across the API boundary.
// CompletedSections is in planning order.
type Snapshot struct {
	WorkflowID                 string          `json:"workflow_id" yaml:"workflow_id"`
	Status                     string          `json:"status" yaml:"status"`
	Topic                      string          `json:"topic" yaml:"topic"`
	ReportType                 string          `json:"report_type" yaml:"report_type"`
	FeedbackOnReportPlan       string          `json:"feedback_on_report_plan" yaml:"feedback_on_report_plan"`
	Sections                   []types.Section `json:"sections" yaml:"sections"`
	CompletedSections          []types.Section `json:"completed_sections" yaml:"completed_sections"`
	ReportSectionsFromResearch string          `json:"report_sections_from_research" yaml:"report_sections_from_research"`
	FinalReport                string          `json:"final_report" yaml:"final_report"`
	Interrupt                  string          `json:"interrupt,omitempty" yaml:"interrupt,omitempty"`
}

// NewSnapshot converts a workflow state.
func NewSnapshot(st *types.ReportState) Snapshot {
	status := string(st.Phase)
	switch st.Phase {
	case types.PhaseAwaitingFeedback:
		status = StatusAwaitingFeedback
	case types.PhaseDone:
		status = StatusCompleted
	}
	sections := append([]types.Section{}, st.Sections...)
	return Snapshot{
		WorkflowID:                 st.WorkflowID,
		Status:                     status,
		Topic:                      st.Topic,
		ReportType:                 string(st.ReportType),
		FeedbackOnReportPlan:       st.FeedbackOnReportPlan,
		Sections:                   sections,
		CompletedSections:          st.OrderedCompleted(),
		ReportSectionsFromResearch: st.ReportSectionsFromResearch,
		FinalReport:                st.FinalReport,
		Interrupt:                  st.Interrupt,
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/report-engine/pkg/types"
)

// Export formats.
const (
	FormatYAML     = "yaml"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ExportEntry is the exported view of a stored workflow: its plan with the
// completed content filled in, and the compiled report.
type ExportEntry struct {
	WorkflowID  string           `json:"workflow_id" yaml:"workflow_id"`
	Topic       string           `json:"topic" yaml:"topic"`
	ReportType  types.ReportType `json:"report_type" yaml:"report_type"`
	Phase       types.Phase      `json:"phase" yaml:"phase"`
	Feedback    string           `json:"feedback_on_report_plan,omitempty" yaml:"feedback_on_report_plan,omitempty"`
	Sections    []types.Section  `json:"sections" yaml:"sections"`
	FinalReport string           `json:"final_report,omitempty" yaml:"final_report,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at" yaml:"updated_at"`
}

// NewExportEntry builds the export view of st.
func NewExportEntry(st *types.ReportState) ExportEntry {
	sections := make([]types.Section, len(st.Sections))
	for i, sec := range st.Sections {
		if done, ok := st.CompletedSections[sec.Name]; ok {
			sec.Content = done.Content
		}
		sections[i] = sec
	}
	return ExportEntry{
		WorkflowID:  st.WorkflowID,
		Topic:       st.Topic,
		ReportType:  st.ReportType,
		Phase:       st.Phase,
		Feedback:    st.FeedbackOnReportPlan,
		Sections:    sections,
		FinalReport: st.FinalReport,
		UpdatedAt:   st.UpdatedAt,
	}
}

// Export writes st to w in the given format. Markdown writes the final
// report, or the plan when the report is not compiled yet.
func Export(st *types.ReportState, format string, w io.Writer) error {
	entry := NewExportEntry(st)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	case FormatMarkdown:
		if entry.FinalReport != "" {
			_, err := fmt.Fprintln(w, entry.FinalReport)
			return err
		}
		fmt.Fprintf(w, "# Plan: %s\n\n", entry.Topic)
		for _, sec := range entry.Sections {
			research := "no"
			if sec.Research {
				research = "yes"
			}
			fmt.Fprintf(w, "- **%s** (research: %s): %s\n", sec.Name, research, sec.Description)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported export format %q", types.ErrConfiguration, format)
	}
}

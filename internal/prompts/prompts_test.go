package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/report-engine/pkg/types"
)

func TestForKnownTypes(t *testing.T) {
	for _, rt := range []types.ReportType{types.ReportMarketing, types.ReportComparison} {
		s, err := For(rt)
		if err != nil {
			t.Fatalf("For(%s): %v", rt, err)
		}
		if s.Type != rt {
			t.Errorf("Type = %s, want %s", s.Type, rt)
		}
	}
}

func TestForUnknownType(t *testing.T) {
	_, err := For("haiku")
	if !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestRenderSubstitutesInputs(t *testing.T) {
	s, _ := For(types.ReportComparison)

	tests := []struct {
		name   string
		render func() (string, error)
		want   []string
	}{
		{
			name: "planner queries",
			render: func() (string, error) {
				return s.PlannerQueries(PlannerQueryInput{Topic: "Postgres vs MySQL", ReportOrganization: "ORG", NumberOfQueries: 3})
			},
			want: []string{"Postgres vs MySQL", "ORG", "Write 3 web search queries"},
		},
		{
			name: "planner with feedback",
			render: func() (string, error) {
				return s.Planner(PlannerInput{Topic: "T", ReportOrganization: "ORG", Context: "CTX", Feedback: "add pricing"})
			},
			want: []string{"CTX", "add pricing", "research: true"},
		},
		{
			name: "query writer",
			render: func() (string, error) {
				return s.QueryWriter(QueryWriterInput{SectionTopic: "Pricing", NumberOfQueries: 2})
			},
			want: []string{"Pricing", "Write 2 search queries"},
		},
		{
			name: "section writer",
			render: func() (string, error) {
				return s.SectionWriter(SectionWriterInput{SectionTopic: "Pricing", SectionContent: "## Prior <b>draft</b>", Context: "Sources:"})
			},
			want: []string{"## Prior <b>draft</b>", "Sources:", "### Sources"},
		},
		{
			name: "grader",
			render: func() (string, error) {
				return s.SectionGrader(GraderInput{SectionTopic: "Pricing", Section: "BODY"})
			},
			want: []string{"BODY", `"pass" or "fail"`},
		},
		{
			name: "final section",
			render: func() (string, error) {
				return FinalSectionWriter(FinalSectionInput{SectionTopic: "Conclusion", Context: "GATHERED"})
			},
			want: []string{"Conclusion", "GATHERED"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.render()
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("prompt missing %q", w)
				}
			}
		})
	}
}

func TestPromptSetsDiffer(t *testing.T) {
	m, _ := For(types.ReportMarketing)
	c, _ := For(types.ReportComparison)
	in := QueryWriterInput{SectionTopic: "X", NumberOfQueries: 1}
	mo, _ := m.QueryWriter(in)
	co, _ := c.QueryWriter(in)
	if mo == co {
		t.Error("marketing and comparison query writer prompts should differ")
	}
}

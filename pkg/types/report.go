// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the report-engine workflow:
// planned sections, search queries, grader feedback, workflow state, and the
// configuration that drives them.
package types

import (
	"fmt"
	"strings"
)

// Section is one named, independently draftable unit of a report.
type Section struct {
	// Name identifies the section. It is unique within a report and is the
	// key used to merge completed content back into planning order.
	Name string `json:"name" yaml:"name"`

	// Description summarizes what the section covers.
	Description string `json:"description" yaml:"description"`

	// Research reports whether the section needs web research.
	Research bool `json:"research" yaml:"research"`

	// Content is the drafted Markdown; empty until drafted.
	Content string `json:"content" yaml:"content"`
}

// Sections is the structured plan returned by the planning model.
type Sections struct {
	Sections []Section `json:"sections" yaml:"sections"`
}

// Validate rejects plans that cannot be compiled: no sections, a section
// without a name, or two sections sharing a name.
func (s Sections) Validate() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("plan has no sections")
	}
	seen := make(map[string]bool, len(s.Sections))
	for i, sec := range s.Sections {
		name := strings.TrimSpace(sec.Name)
		if name == "" {
			return fmt.Errorf("section %d has no name", i+1)
		}
		if seen[name] {
			return fmt.Errorf("duplicate section name %q", name)
		}
		seen[name] = true
	}
	return nil
}

// SearchQuery is a single web search query.
type SearchQuery struct {
	SearchQuery string `json:"search_query" yaml:"search_query"`
}

// Queries is an ordered list of search queries.
type Queries struct {
	Queries []SearchQuery `json:"queries" yaml:"queries"`
}

// Strings returns the query texts, skipping blanks, capped at limit when
// limit is positive.
func (q Queries) Strings(limit int) []string {
	out := make([]string, 0, len(q.Queries))
	for _, sq := range q.Queries {
		text := strings.TrimSpace(sq.SearchQuery)
		if text == "" {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, text)
	}
	return out
}

// Validate requires at least one non-blank query.
func (q Queries) Validate() error {
	if len(q.Strings(0)) == 0 {
		return fmt.Errorf("no search queries")
	}
	return nil
}

// Grade is the section grader's verdict.
type Grade string

const (
	GradePass Grade = "pass"
	GradeFail Grade = "fail"
)

// Feedback is the section grader's structured result. FollowUpQueries is
// empty when Grade is pass.
type Feedback struct {
	Grade           Grade         `json:"grade" yaml:"grade"`
	FollowUpQueries []SearchQuery `json:"follow_up_queries" yaml:"follow_up_queries"`
}

// Validate checks that the grade is one of the known values.
func (f Feedback) Validate() error {
	switch f.Grade {
	case GradePass, GradeFail:
		return nil
	default:
		return fmt.Errorf("unknown grade %q", f.Grade)
	}
}

// ReportType selects the prompt set used for planning and writing.
type ReportType string

const (
	ReportMarketing  ReportType = "marketing"
	ReportComparison ReportType = "comparison"
)

// ParseReportType validates s against the known report types.
func ParseReportType(s string) (ReportType, error) {
	switch rt := ReportType(strings.ToLower(strings.TrimSpace(s))); rt {
	case ReportMarketing, ReportComparison:
		return rt, nil
	default:
		return "", fmt.Errorf("%w: unsupported report type %q", ErrConfiguration, s)
	}
}

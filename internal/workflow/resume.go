package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/report-engine/pkg/types"
)

// ResumeValue is the reviewer's answer to a suspended plan: Approve or
// Revise.
type ResumeValue interface {
	resumeValue()
}

// Approve accepts the plan and starts section research.
type Approve struct{}

// Revise discards the plan and re-plans with Text as feedback.
type Revise struct {
	Text string
}

func (Approve) resumeValue() {}
func (Revise) resumeValue()  {}

// ParseResumeValue decodes an untyped feedback payload. JSON true approves;
// a non-blank JSON string revises. Anything else fails with
// types.ErrInvalidResumeValue.
func ParseResumeValue(raw json.RawMessage) (ResumeValue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: feedback is missing", types.ErrInvalidResumeValue)
	}
	switch raw[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidResumeValue, err)
		}
		if !b {
			return nil, fmt.Errorf("%w: false is not an approval; send a revision string instead", types.ErrInvalidResumeValue)
		}
		return Approve{}, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidResumeValue, err)
		}
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: revision text is empty", types.ErrInvalidResumeValue)
		}
		return Revise{Text: s}, nil
	default:
		return nil, fmt.Errorf("%w: expected true or a revision string, got %s", types.ErrInvalidResumeValue, truncateRaw(raw))
	}
}

func truncateRaw(raw json.RawMessage) string {
	const limit = 40
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error kinds surfaced by the workflow. Callers classify with errors.Is.
var (
	// ErrConfiguration reports an unsupported or invalid setting, such as an
	// unknown search backend or report type.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstreamModel reports a provider failure or a structured response
	// that does not conform to the requested schema.
	ErrUpstreamModel = errors.New("upstream model error")

	// ErrInvalidResumeValue reports feedback that is neither an approval nor
	// a non-empty revision.
	ErrInvalidResumeValue = errors.New("invalid resume value")

	// ErrMissingSectionContent reports a planned section with no completed
	// counterpart at compile time.
	ErrMissingSectionContent = errors.New("missing section content")

	ErrInvalidInput     = errors.New("invalid input")
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrNotSuspended     = errors.New("workflow is not awaiting feedback")
	ErrWorkflowBusy     = errors.New("workflow is already being resumed")
	ErrReportNotReady   = errors.New("report is not compiled yet")
)

// ErrorKind returns a short machine-readable name for the error's kind, or
// "internal" when it matches none of the sentinels.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrUpstreamModel):
		return "upstream_model"
	case errors.Is(err, ErrInvalidResumeValue):
		return "invalid_resume_value"
	case errors.Is(err, ErrMissingSectionContent):
		return "missing_section_content"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrWorkflowNotFound):
		return "not_found"
	case errors.Is(err, ErrNotSuspended):
		return "not_suspended"
	case errors.Is(err, ErrWorkflowBusy):
		return "busy"
	case errors.Is(err, ErrReportNotReady):
		return "not_ready"
	default:
		return "internal"
	}
}

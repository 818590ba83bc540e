package report

import (
	"fmt"
	"strings"

	"github.com/pdiddy/report-engine/pkg/types"
)

var blockRule = strings.Repeat("=", 60)

// FormatSections renders sections as the context block handed to sections
// drafted without research.
func FormatSections(sections []types.Section) string {
	var sb strings.Builder
	for i, sec := range sections {
		content := sec.Content
		if content == "" {
			content = "[Not yet written]"
		}
		research := "No"
		if sec.Research {
			research = "Yes"
		}
		fmt.Fprintf(&sb, "\n%s\nSection %d: %s\n%s\nDescription:\n%s\nRequires Research:\n%s\n\nContent:\n%s\n",
			blockRule, i+1, sec.Name, blockRule, sec.Description, research, content)
	}
	return sb.String()
}

// Compile joins the content of each planned section, in planning order,
// with a blank line between sections. A planned section with no completed
// counterpart fails with types.ErrMissingSectionContent.
func Compile(planned []types.Section, completed map[string]types.Section) (string, error) {
	parts := make([]string, 0, len(planned))
	for _, sec := range planned {
		done, ok := completed[sec.Name]
		if !ok {
			return "", fmt.Errorf("%w: %q", types.ErrMissingSectionContent, sec.Name)
		}
		parts = append(parts, done.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

// InterruptMessage is shown to the reviewer while a plan awaits feedback.
func InterruptMessage(sections []types.Section) string {
	blocks := make([]string, len(sections))
	for i, sec := range sections {
		research := "No"
		if sec.Research {
			research = "Yes"
		}
		blocks[i] = fmt.Sprintf("Section: %s\nDescription: %s\nResearch needed: %s\n", sec.Name, sec.Description, research)
	}
	return fmt.Sprintf("Please provide feedback on the following report plan.\n\n%s\n\nDoes the report plan meet your needs? Pass 'true' to approve the report plan or provide feedback to regenerate the report plan:",
		strings.Join(blocks, "\n\n"))
}

package report

import "github.com/pdiddy/report-engine/internal/llm"

// Schemas follow OpenAI strict mode: every property is required and no
// additional properties are allowed.

var searchQueryJSON = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"search_query": map[string]any{
			"type":        "string",
			"description": "Query for web search.",
		},
	},
	"required":             []string{"search_query"},
	"additionalProperties": false,
}

// QueriesSchema is the structured target for query generation.
var QueriesSchema = llm.Schema{
	Name:        "Queries",
	Description: "List of web search queries.",
	JSON: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"queries": map[string]any{
				"type":        "array",
				"description": "List of search queries.",
				"items":       searchQueryJSON,
			},
		},
		"required":             []string{"queries"},
		"additionalProperties": false,
	},
}

// SectionsSchema is the structured target for report planning.
var SectionsSchema = llm.Schema{
	Name:        "Sections",
	Description: "Sections of the report.",
	JSON: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sections": map[string]any{
				"type":        "array",
				"description": "Sections of the report, in reading order.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":        map[string]any{"type": "string", "description": "Name for this section of the report."},
						"description": map[string]any{"type": "string", "description": "Brief overview of the main topics and concepts to be covered in this section."},
						"research":    map[string]any{"type": "boolean", "description": "Whether to perform web research for this section of the report."},
						"content":     map[string]any{"type": "string", "description": "The content of the section."},
					},
					"required":             []string{"name", "description", "research", "content"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"sections"},
		"additionalProperties": false,
	},
}

// FeedbackSchema is the structured target for section grading.
var FeedbackSchema = llm.Schema{
	Name:        "Feedback",
	Description: "Grade of a report section with follow-up search queries.",
	JSON: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"grade": map[string]any{
				"type":        "string",
				"enum":        []string{"pass", "fail"},
				"description": "Whether the section meets requirements ('pass') or needs revision ('fail').",
			},
			"follow_up_queries": map[string]any{
				"type":        "array",
				"description": "List of follow-up search queries.",
				"items":       searchQueryJSON,
			},
		},
		"required":             []string{"grade", "follow_up_queries"},
		"additionalProperties": false,
	},
}

package prompts

import "text/template"

// sectionStyle is appended to every researched section writer prompt.
const sectionStyle = `
<Length and style>
- 150-200 words, not counting the title and sources
- Plain, technical language without marketing tone
- Open with the single most important insight in bold
- Paragraphs of two or three sentences
- Use ## for the section title
- Use at most one structural element, and only if it clarifies the point:
  * a small Markdown table comparing two or three items, or
  * a short Markdown list of three to five items
- Finish with ### Sources listing the material used, one per line as "- Title : URL"
</Length and style>

<Quality checks>
- Word limit respected
- At most one table or list
- One concrete example or case study
- No preamble before the section
- Sources listed at the end
</Quality checks>`

var finalSectionTmpl = template.Must(template.New("final-section-writer").Parse(`You are a technical writer producing a section that draws on the rest of the report.

<Section topic>
{{.SectionTopic}}
</Section topic>

<Available report content>
{{.Context}}
</Available report content>

<Task>
For an introduction:
- Use # for the report title
- 50-100 words in one or two paragraphs
- Explain why the report matters, with no lists or tables
- No sources section

For a conclusion or summary:
- Use ## for the section title
- 100-150 words
- For comparative reports, include one Markdown table that distills the findings
- Otherwise use at most one table or short list, and only if it helps
- End with concrete next steps or implications
- No sources section

In every case prefer concrete details to general statements, and do not include a word count or any preamble.
</Task>`))

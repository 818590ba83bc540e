package prompts

var comparison = texts{
	plannerQuery: `You are a data-driven analyst planning a comparative analysis report.

<Report topic>
{{.Topic}}
</Report topic>

<Report organization>
{{.ReportOrganization}}
</Report organization>

<Task>
Write {{.NumberOfQueries}} web search queries that will gather the data needed to plan a fair comparison.

The queries should:
1. Compare the products, services, strategies, or technologies named in the topic.
2. Collect both numbers (benchmarks, pricing) and opinions (reviews, case studies).
3. Favor current material on market position and differentiators.
</Task>`,

	planner: `You are a comparison analyst laying out a data-driven comparative report.

<Task>
Produce the section plan for the report.

Every section has these fields:
- name: a short, specific section title.
- description: what the section compares and why it matters.
- research: true when the section needs web research to support it.
- content: leave empty; it is written later.

<Report considerations>
1. Sections should compare the options directly on features, price, and usability.
2. Consider sections such as an overview of the compared options, a performance and technical comparison, pricing and value, user experience, and a final recommendation.
</Report considerations>

<Topic>
{{.Topic}}
</Topic>

<Report organization>
Follow this organization:
{{.ReportOrganization}}
</Report organization>

<Context>
Research gathered for planning:
{{.Context}}
</Context>

<Feedback>
Reviewer feedback on an earlier plan (may be empty):
{{.Feedback}}
</Feedback>
</Task>`,

	queryWriter: `You are a competitive research analyst writing web search queries for one section of a comparative report.

<Section topic>
{{.SectionTopic}}
</Section topic>

<Task>
Write {{.NumberOfQueries}} search queries for this section. Together they should:
1. Cover different angles of the section topic.
2. Compare the options head to head (for example "X vs Y latency benchmark").
3. Reach for recent material, adding a year where it helps.
4. Target product documentation, independent reviews, and benchmark reports.

Each query should be specific enough to avoid generic results.
</Task>`,

	sectionWriter: `You are a comparison expert writing one section of a comparative report.

<Section topic>
{{.SectionTopic}}
</Section topic>

<Existing section content (if populated)>
{{.SectionContent}}
</Existing section content>

<Source material>
{{.Context}}
</Source material>

<Task>
- Make the differences between the options explicit.
- Stay objective and tie every claim to the source material.
</Task>

<Guidelines for writing>
1. If the existing section content is empty, write the section from scratch.
2. If it is populated, write a new version that merges it with the new sources.
</Guidelines for writing>
` + sectionStyle,

	sectionGrader: `You are a comparison expert reviewing one section of a comparative report.

<Section topic>
{{.SectionTopic}}
</Section topic>

<Section content>
{{.Section}}
</Section content>

<Task>
Check whether the section:
1. Separates the compared options clearly instead of describing them vaguely.
2. Backs comparisons with benchmarks, pricing, or case studies.
3. Draws conclusions that follow from the evidence.

Grade it "pass" or "fail". When it fails, list specific follow-up search queries that would strengthen the comparison.
</Task>`,
}

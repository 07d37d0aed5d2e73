package anthropic

import (
	"strings"
	"text/template"

	"github.com/inkforge/redraft/internal/review"
)

var reviewPromptTemplate = template.Must(template.New("review").Parse(`You are a demanding fiction editor reviewing a complete manuscript.

Score the manuscript from 0 to 10 and list every remaining defect. Be consistent with earlier reviews: do not re-report problems that have been fixed, and do not invent trivial issues to fill the list.
{{if gt .Prior.CycleNumber 0}}
This is review cycle {{.Prior.CycleNumber}}. The previous review scored the manuscript {{printf "%.1f" .Prior.PreviousScore}}.
{{- if .Prior.CorrectedSummaries}}
Defects already corrected in earlier cycles (do not re-report these):
{{- range .Prior.CorrectedSummaries}}
- {{.}}
{{- end}}
{{- end}}
{{end}}
Respond with a single JSON object, no prose before or after:

{
  "score": <number 0-10>,
  "verdict": "approved" | "needs_revision" | "rejected",
  "issues": [
    {
      "category": "<short classification, e.g. continuity, pacing, character>",
      "severity": "critical" | "major" | "minor",
      "description": "<what is wrong>",
      "correction_instruction": "<how to fix it>",
      "affected_units": [<chapter numbers; use 9000 for the prologue, 9001 for the epilogue, 9002 for the author's note>]
    }
  ],
  "units_to_rewrite": [<chapter numbers needing rewriting>]
}

MANUSCRIPT:

{{.Document}}`))

var rewritePromptTemplate = template.Must(template.New("rewrite").Parse(`You are revising one chapter of a novel. Rewrite it to fix every defect listed below. Keep everything that is not implicated by a defect: plot events, character voice, point of view, and chapter length (unless a defect says otherwise).

DEFECTS TO FIX:
{{.IssueText}}
{{if .DocContext}}
CONTEXT FROM THE SURROUNDING MANUSCRIPT:
{{.DocContext}}
{{end}}
Respond with the complete revised chapter text only. No commentary, no headers, no JSON.

CHAPTER:

{{.UnitContent}}`))

var generatePromptTemplate = template.Must(template.New("generate").Parse(`You are drafting one chapter of a novel from its outline. Write complete polished prose for the chapter described below. Respond with the chapter text only.

OUTLINE:

{{.Outline}}`))

func renderReviewPrompt(document string, prior review.PriorContext) (string, error) {
	var sb strings.Builder
	err := reviewPromptTemplate.Execute(&sb, struct {
		Document string
		Prior    review.PriorContext
	}{document, prior})
	return sb.String(), err
}

func renderRewritePrompt(unitContent, issueText, docContext string) (string, error) {
	var sb strings.Builder
	err := rewritePromptTemplate.Execute(&sb, struct {
		UnitContent string
		IssueText   string
		DocContext  string
	}{unitContent, issueText, docContext})
	return sb.String(), err
}

func renderGeneratePrompt(outline string) (string, error) {
	var sb strings.Builder
	err := generatePromptTemplate.Execute(&sb, struct{ Outline string }{outline})
	return sb.String(), err
}

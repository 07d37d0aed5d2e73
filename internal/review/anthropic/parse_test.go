package anthropic

import (
	"errors"
	"testing"

	"github.com/inkforge/redraft/internal/review"
	"github.com/inkforge/redraft/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewResult(t *testing.T) {
	text := `{
		"score": 7.5,
		"verdict": "needs_revision",
		"issues": [
			{
				"category": "continuity",
				"severity": "MAJOR",
				"description": "timeline contradiction",
				"correction_instruction": "fix chapter 3 dates",
				"affected_units": [3, 9001]
			}
		],
		"units_to_rewrite": [3]
	}`

	result, err := parseReviewResult(text)
	require.NoError(t, err)
	assert.Equal(t, 7.5, result.Score)
	assert.Equal(t, types.VerdictNeedsRevision, result.Verdict)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, types.SeverityMajor, result.Issues[0].Severity, "severity is case-folded")
	assert.Equal(t, []int{3, types.UnitEpilogue}, result.Issues[0].AffectedUnits,
		"sentinel unit ids are normalized on decode")
}

func TestParseReviewResultMarkdownFence(t *testing.T) {
	text := "Here is my assessment:\n```json\n{\"score\": 9, \"verdict\": \"approved\", \"issues\": []}\n```"
	result, err := parseReviewResult(text)
	require.NoError(t, err)
	assert.Equal(t, 9.0, result.Score)
	assert.Empty(t, result.Issues)
}

func TestParseReviewResultDefaultsVerdict(t *testing.T) {
	result, err := parseReviewResult(`{"score": 5, "issues": []}`)
	require.NoError(t, err)
	assert.Equal(t, types.VerdictNeedsRevision, result.Verdict)
}

func TestParseReviewResultErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no json", "the manuscript is fine I suppose"},
		{"malformed json", `{"score": `},
		{"score out of range", `{"score": 14, "issues": []}`},
		{"unknown verdict", `{"score": 5, "verdict": "meh", "issues": []}`},
		{"null issue entry", `{"score": 5, "verdict": "needs_revision", "issues": [null]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseReviewResult(tt.text)
			assert.True(t, errors.Is(err, review.ErrUnparseableReview), "got: %v", err)
		})
	}
}

package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inkforge/redraft/internal/review"
	"github.com/inkforge/redraft/internal/types"
)

// parseReviewResult decodes the reviewer's JSON. Models sometimes wrap
// the object in a markdown fence or lead with a sentence; extractJSON
// tolerates both. Anything that still fails to decode surfaces as
// review.ErrUnparseableReview so the controller pauses resumably
// instead of advancing the cycle.
func parseReviewResult(text string) (*types.ReviewResult, error) {
	raw, ok := extractJSON(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", review.ErrUnparseableReview)
	}

	result := &types.ReviewResult{}
	if err := json.Unmarshal([]byte(raw), result); err != nil {
		return nil, fmt.Errorf("%w: %v", review.ErrUnparseableReview, err)
	}
	if result.Score < 0 || result.Score > 10 {
		return nil, fmt.Errorf("%w: score %v out of range", review.ErrUnparseableReview, result.Score)
	}

	switch result.Verdict {
	case types.VerdictApproved, types.VerdictNeedsRevision, types.VerdictRejected:
	case "":
		result.Verdict = types.VerdictNeedsRevision
	default:
		return nil, fmt.Errorf("%w: unknown verdict %q", review.ErrUnparseableReview, result.Verdict)
	}

	for _, issue := range result.Issues {
		// A literal null in the issues array decodes to a nil pointer.
		if issue == nil {
			return nil, fmt.Errorf("%w: null issue entry", review.ErrUnparseableReview)
		}
		issue.Severity = types.Severity(strings.ToLower(string(issue.Severity)))
		issue.AffectedUnits = types.CanonicalUnits(issue.AffectedUnits)
	}
	result.UnitsToRewrite = types.CanonicalUnits(result.UnitsToRewrite)
	return result, nil
}

// extractJSON returns the outermost JSON object in text.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

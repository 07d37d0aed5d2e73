// Package classify decides what kind of remedy a reviewer issue needs.
//
// Two heuristic classifiers live here: the structural classifier, which
// spots remedies the rewriter cannot perform (reorganizing units), and
// the merge-request reinterpreter, which turns impossible "merge these
// chapters" feedback into an equivalent condense-and-smooth rewrite.
// Both are pure functions over the rule tables in rules.go.
//
// False negatives are tolerated: a missed structural issue is retried
// like any other and eventually capped by the correction limiter. False
// positives must stay rare, and are additionally gated on the affected
// units having already survived correction attempts.
package classify

import (
	"fmt"

	"github.com/inkforge/redraft/internal/types"
)

// IsStructural reports whether the issue's remedy is reorganization
// rather than rewriting.
func IsStructural(issue *types.Issue) bool {
	text := issue.Description + " " + issue.CorrectionInstruction
	for _, p := range structuralPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	if structuralCategories[types.NormalizeText(issue.Category)] {
		return reorderVerbs.MatchString(text)
	}
	return false
}

// AutoResolveStructural splits issues into those force-resolved as
// structural and those remaining actionable. An issue is force-resolved
// only when it is structural AND every one of its affected units has at
// least minAttempts recorded correction attempts, guarding against
// abandoning an issue the rewriter never had a fair shot at.
//
// Callers push the resolved slice into the resolution ledger and log
// them as accepted-with-reservations: they need a manual structural
// edit the engine cannot make.
func AutoResolveStructural(issues []*types.Issue, counts map[int]int, minAttempts int) (resolved, remaining []*types.Issue) {
	for _, issue := range issues {
		if structuralExhausted(issue, counts, minAttempts) {
			resolved = append(resolved, issue)
		} else {
			remaining = append(remaining, issue)
		}
	}
	return resolved, remaining
}

func structuralExhausted(issue *types.Issue, counts map[int]int, minAttempts int) bool {
	if !IsStructural(issue) || len(issue.AffectedUnits) == 0 {
		return false
	}
	for _, u := range issue.AffectedUnits {
		if counts[types.CanonicalUnit(u)] < minAttempts {
			return false
		}
	}
	return true
}

// IsMergeRequest reports whether the issue asks for two units to be
// combined into one.
func IsMergeRequest(issue *types.Issue) bool {
	text := issue.Description + " " + issue.CorrectionInstruction
	for _, p := range mergePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// mergeCategory replaces the original category of a reinterpreted merge
// request so its fingerprint tracks the rewritten defect.
const mergeCategory = "pacing-condense"

// Reinterpret rewrites a merge request into an in-place condensation the
// rewriter can actually perform. Affected units are preserved exactly.
// Non-merge issues are returned unchanged.
func Reinterpret(issue *types.Issue) *types.Issue {
	if !IsMergeRequest(issue) {
		return issue
	}
	out := *issue
	out.Category = mergeCategory
	out.CorrectionInstruction = fmt.Sprintf(
		"Merging chapters is not possible; instead, condense in place. "+
			"Aggressively remove redundant and filler content from the affected chapters, "+
			"strengthen the transitions into and out of each affected chapter, "+
			"and reduce total length by at least 30%% while preserving every essential plot point. "+
			"Original feedback: %s", issue.Description)
	return &out
}

// ReinterpretAll maps Reinterpret over a cycle's issues. Applied before
// any other processing so downstream components never see unfulfillable
// merge instructions.
func ReinterpretAll(issues []*types.Issue) []*types.Issue {
	out := make([]*types.Issue, len(issues))
	for i, issue := range issues {
		out[i] = Reinterpret(issue)
	}
	return out
}

// IsEntityResurrection reports whether the issue describes an eliminated
// entity behaving as active. The escalator treats critical recurrences
// of this defect specially.
func IsEntityResurrection(issue *types.Issue) bool {
	text := issue.Description + " " + issue.CorrectionInstruction
	for _, p := range resurrectionPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

package classify_test

import (
	"testing"

	"github.com/inkforge/redraft/internal/classify"
	"github.com/inkforge/redraft/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestIsStructural(t *testing.T) {
	tests := []struct {
		name  string
		issue *types.Issue
		want  bool
	}{
		{
			name:  "move chapter",
			issue: &types.Issue{Description: "Move chapter 7 before the confrontation scene"},
			want:  true,
		},
		{
			name:  "should come earlier",
			issue: &types.Issue{Description: "The flashback chapter should come earlier in the book"},
			want:  true,
		},
		{
			name:  "reorder",
			issue: &types.Issue{CorrectionInstruction: "Consider reordering the middle act"},
			want:  true,
		},
		{
			name:  "split into two",
			issue: &types.Issue{Description: "This chapter is doing too much and should be split into two chapters"},
			want:  true,
		},
		{
			name:  "structure category with reorder verb",
			issue: &types.Issue{Category: "Structure", Description: "The arc sags; shift the reveal"},
			want:  true,
		},
		{
			name:  "structure category without reorder verb",
			issue: &types.Issue{Category: "structure", Description: "The prose is flat and lifeless"},
			want:  false,
		},
		{
			name:  "ordinary rewrite request",
			issue: &types.Issue{Description: "The dialogue in chapter 3 is stilted and needs a lighter touch"},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify.IsStructural(tt.issue))
		})
	}
}

func TestAutoResolveStructuralRequiresPriorAttempts(t *testing.T) {
	structural := &types.Issue{
		Description:   "Move chapter 4 after chapter 6",
		AffectedUnits: []int{4, 6},
	}

	// No attempts recorded yet: must never resolve, even though the
	// issue is clearly structural.
	resolved, remaining := classify.AutoResolveStructural(
		[]*types.Issue{structural}, map[int]int{}, 2)
	assert.Empty(t, resolved)
	assert.Len(t, remaining, 1)

	// One unit still under the floor: still not resolved.
	resolved, remaining = classify.AutoResolveStructural(
		[]*types.Issue{structural}, map[int]int{4: 2, 6: 1}, 2)
	assert.Empty(t, resolved)
	assert.Len(t, remaining, 1)

	// Every affected unit at >= 2 attempts: force-resolved.
	resolved, remaining = classify.AutoResolveStructural(
		[]*types.Issue{structural}, map[int]int{4: 2, 6: 3}, 2)
	assert.Len(t, resolved, 1)
	assert.Empty(t, remaining)
}

func TestAutoResolveStructuralLeavesRewritableIssues(t *testing.T) {
	rewritable := &types.Issue{
		Description:   "The ending of chapter 2 feels abrupt",
		AffectedUnits: []int{2},
	}
	resolved, remaining := classify.AutoResolveStructural(
		[]*types.Issue{rewritable}, map[int]int{2: 5}, 2)
	assert.Empty(t, resolved)
	assert.Len(t, remaining, 1)
}

func TestIsMergeRequest(t *testing.T) {
	assert.True(t, classify.IsMergeRequest(&types.Issue{
		Description: "Chapters 5 and 6 cover the same ground and should be merged into one chapter",
	}))
	assert.True(t, classify.IsMergeRequest(&types.Issue{
		CorrectionInstruction: "Combine the two market scenes into a single section",
	}))
	assert.True(t, classify.IsMergeRequest(&types.Issue{
		Description: "These two sections retread the same argument from different angles and could reasonably be combined into one",
	}))
	assert.False(t, classify.IsMergeRequest(&types.Issue{
		Description: "Chapter 5 repeats information from chapter 4",
	}))
}

func TestReinterpretPreservesUnits(t *testing.T) {
	orig := &types.Issue{
		Category:      "redundancy",
		Severity:      types.SeverityMajor,
		Description:   "Merge chapters 5 and 6, they tell the same beat twice",
		AffectedUnits: []int{5, 6},
	}
	got := classify.Reinterpret(orig)

	assert.Equal(t, orig.AffectedUnits, got.AffectedUnits)
	assert.NotEqual(t, orig.Category, got.Category)
	assert.Contains(t, got.CorrectionInstruction, "30%")
	assert.Contains(t, got.CorrectionInstruction, orig.Description)
	// Original must not be mutated.
	assert.Equal(t, "redundancy", orig.Category)
}

func TestReinterpretNoOpForNonMerge(t *testing.T) {
	orig := &types.Issue{Description: "Weak opening line", AffectedUnits: []int{1}}
	assert.Same(t, orig, classify.Reinterpret(orig))
}

func TestIsEntityResurrection(t *testing.T) {
	assert.True(t, classify.IsEntityResurrection(&types.Issue{
		Description: "General Moreau was killed in chapter 9 but appears giving orders in chapter 14",
	}))
	assert.True(t, classify.IsEntityResurrection(&types.Issue{
		Description: "The destroyed flagship is present at the final battle",
	}))
	assert.False(t, classify.IsEntityResurrection(&types.Issue{
		Description: "The general's dialogue is wooden",
	}))
}

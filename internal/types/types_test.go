package types_test

import (
	"testing"

	"github.com/inkforge/redraft/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	issue := &types.Issue{
		Category:    "continuity",
		Severity:    types.SeverityMajor,
		Description: "The timeline in chapter 3 contradicts chapter 1",
		AffectedUnits: []int{3, 1},
	}
	assert.Equal(t, issue.Fingerprint(), issue.Fingerprint())
}

func TestFingerprintIgnoresWhitespaceAndCase(t *testing.T) {
	a := &types.Issue{
		Category:      "continuity",
		Description:   "The Timeline in Chapter 3   contradicts\n chapter 1",
		AffectedUnits: []int{1, 3},
	}
	b := &types.Issue{
		Category:      "continuity",
		Description:   "the timeline in chapter 3 contradicts chapter 1",
		AffectedUnits: []int{3, 1}, // order must not matter either
	}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintDistinguishesCategoryAndUnits(t *testing.T) {
	base := &types.Issue{Category: "pacing", Description: "drags badly", AffectedUnits: []int{2}}

	otherCategory := &types.Issue{Category: "continuity", Description: "drags badly", AffectedUnits: []int{2}}
	assert.NotEqual(t, base.Fingerprint(), otherCategory.Fingerprint())

	otherUnits := &types.Issue{Category: "pacing", Description: "drags badly", AffectedUnits: []int{4}}
	assert.NotEqual(t, base.Fingerprint(), otherUnits.Fingerprint())
}

func TestFingerprintTruncatesTrailingVariation(t *testing.T) {
	long := "the antagonist's motivation is never established and the reader cannot follow why he betrays the crew at the midpoint of the story "
	a := &types.Issue{Category: "character", Description: long + "which undermines the climax", AffectedUnits: []int{7}}
	b := &types.Issue{Category: "character", Description: long + "making the third act confusing", AffectedUnits: []int{7}}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintNormalizesSentinelUnits(t *testing.T) {
	a := &types.Issue{Category: "pacing", Description: "ending rushed", AffectedUnits: []int{types.SentinelEpilogue}}
	b := &types.Issue{Category: "pacing", Description: "ending rushed", AffectedUnits: []int{types.UnitEpilogue}}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintEmptyDescription(t *testing.T) {
	issue := &types.Issue{Category: "misc"}
	assert.NotEmpty(t, issue.Fingerprint())
}

func TestActionable(t *testing.T) {
	assert.False(t, (&types.Issue{}).Actionable())
	assert.True(t, (&types.Issue{AffectedUnits: []int{1}}).Actionable())
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, types.SeverityCritical.Rank(), types.SeverityMajor.Rank())
	assert.Greater(t, types.SeverityMajor.Rank(), types.SeverityMinor.Rank())
	assert.Greater(t, types.SeverityMinor.Rank(), types.Severity("bogus").Rank())
}

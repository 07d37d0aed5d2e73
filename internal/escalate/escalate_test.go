package escalate_test

import (
	"testing"

	"github.com/inkforge/redraft/internal/escalate"
	"github.com/inkforge/redraft/internal/types"
	"github.com/stretchr/testify/assert"
)

func persistentIssue() *types.Issue {
	return &types.Issue{
		Category:      "pacing",
		Severity:      types.SeverityMajor,
		Description:   "the middle act loses momentum",
		AffectedUnits: []int{6, 7},
	}
}

func TestCounterMonotonic(t *testing.T) {
	e := escalate.New(nil, nil, 3)
	issue := persistentIssue()
	fp := issue.Fingerprint()

	for cycle := 1; cycle <= 5; cycle++ {
		e.Process([]*types.Issue{issue}, 10)
		assert.Equal(t, cycle, e.Count(fp))
	}
}

func TestEscalationAtThreshold(t *testing.T) {
	e := escalate.New(nil, nil, 3)
	issue := persistentIssue()

	got := e.Process([]*types.Issue{issue}, 10)
	assert.Same(t, issue, got[0], "first recurrence passes through")

	got = e.Process([]*types.Issue{issue}, 10)
	assert.Same(t, issue, got[0], "second recurrence passes through")

	got = e.Process([]*types.Issue{issue}, 10)
	assert.NotSame(t, issue, got[0], "third recurrence escalates")
	assert.NotEqual(t, issue.CorrectionInstruction, got[0].CorrectionInstruction)
	assert.Contains(t, got[0].CorrectionInstruction, issue.Description,
		"escalated instruction echoes the original finding")
	assert.Equal(t, issue.AffectedUnits, got[0].AffectedUnits,
		"generic escalation keeps the original scope")
}

func TestEscalationIsPermanent(t *testing.T) {
	counters := make(map[string]int)
	escalated := make(map[string]bool)
	issue := persistentIssue()

	e := escalate.New(counters, escalated, 3)
	for i := 0; i < 3; i++ {
		e.Process([]*types.Issue{issue}, 10)
	}
	assert.True(t, escalated[issue.Fingerprint()])

	// Same state handed to a fresh escalator (process restart): still
	// escalated on the next recurrence.
	e2 := escalate.New(counters, escalated, 3)
	got := e2.Process([]*types.Issue{issue}, 10)
	assert.NotEqual(t, issue.CorrectionInstruction, got[0].CorrectionInstruction)
}

func TestResurrectionDirectiveWidensScope(t *testing.T) {
	issue := &types.Issue{
		Category:      "continuity",
		Severity:      types.SeverityCritical,
		Description:   "Captain Vane was killed in chapter 4 yet appears commanding the garrison later",
		AffectedUnits: []int{4, 9},
	}

	e := escalate.New(nil, nil, 3)
	var got []*types.Issue
	for i := 0; i < 3; i++ {
		got = e.Process([]*types.Issue{issue}, 12)
	}

	esc := got[0]
	// Scope is a superset: every chapter from the elimination onward.
	for ch := 4; ch <= 12; ch++ {
		assert.Contains(t, esc.AffectedUnits, ch)
	}
	assert.Contains(t, esc.CorrectionInstruction, "flashback")
	assert.Contains(t, esc.CorrectionInstruction, "chapter 4")
}

func TestResurrectionRequiresCriticalSeverity(t *testing.T) {
	issue := &types.Issue{
		Category:      "continuity",
		Severity:      types.SeverityMinor,
		Description:   "Captain Vane was killed in chapter 4 yet appears commanding the garrison later",
		AffectedUnits: []int{4, 9},
	}
	e := escalate.New(nil, nil, 3)
	var got []*types.Issue
	for i := 0; i < 3; i++ {
		got = e.Process([]*types.Issue{issue}, 12)
	}
	assert.Equal(t, issue.AffectedUnits, got[0].AffectedUnits,
		"non-critical resurrection gets the generic escalation")
}

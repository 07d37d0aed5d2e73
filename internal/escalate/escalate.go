// Package escalate strengthens issues that keep surviving correction.
//
// A fingerprint reappearing cycle after cycle means the polite version
// of the instruction is not working. At the threshold the issue's
// instruction is replaced with a blunter, more mechanical directive and
// its affected-unit scope is widened. Escalation is permanent for the
// remainder of the run; counters never reset.
package escalate

import (
	"fmt"
	"sort"

	"github.com/inkforge/redraft/internal/classify"
	"github.com/inkforge/redraft/internal/types"
)

// Escalator wraps the persisted per-fingerprint persistence counters and
// escalated set (ProjectState.PersistenceCounters / EscalatedFingerprints).
// Both maps are mutated in place.
type Escalator struct {
	counters  map[string]int
	escalated map[string]bool
	threshold int
}

// New wraps existing state maps with the given escalation threshold
// (consecutive cycles an issue must recur before escalating).
func New(counters map[string]int, escalated map[string]bool, threshold int) *Escalator {
	if counters == nil {
		counters = make(map[string]int)
	}
	if escalated == nil {
		escalated = make(map[string]bool)
	}
	return &Escalator{counters: counters, escalated: escalated, threshold: threshold}
}

// Count returns the recorded consecutive recurrences for a fingerprint.
func (e *Escalator) Count(fp string) int {
	return e.counters[fp]
}

// Process records one recurrence for every surviving issue and returns
// the workload with persistent issues replaced by their escalated form.
// maxChapter is the highest ordinary chapter number in the manuscript,
// used when widening an issue's scope.
func (e *Escalator) Process(issues []*types.Issue, maxChapter int) []*types.Issue {
	out := make([]*types.Issue, len(issues))
	for i, issue := range issues {
		fp := issue.Fingerprint()
		e.counters[fp]++
		if e.counters[fp] >= e.threshold {
			e.escalated[fp] = true
		}
		if e.escalated[fp] {
			out[i] = e.escalatedIssue(issue, e.counters[fp], maxChapter)
		} else {
			out[i] = issue
		}
	}
	return out
}

func (e *Escalator) escalatedIssue(issue *types.Issue, seen, maxChapter int) *types.Issue {
	if issue.Severity == types.SeverityCritical && classify.IsEntityResurrection(issue) {
		return resurrectionDirective(issue, maxChapter)
	}
	out := *issue
	out.CorrectionInstruction = fmt.Sprintf(
		"This problem has persisted for %d review cycles without being fixed. "+
			"A targeted touch-up is no longer sufficient: rewrite all affected chapters "+
			"broadly enough to eliminate it completely. Original finding: %s",
		seen, issue.Description)
	return &out
}

// resurrectionDirective handles the stubborn continuity defect where an
// eliminated entity keeps acting as if alive. The earliest affected unit
// is taken as where the elimination happened; every later chapter is
// pulled into scope and given an explicit mechanical rule.
func resurrectionDirective(issue *types.Issue, maxChapter int) *types.Issue {
	earliest := earliestChapter(issue.AffectedUnits)

	units := make(map[int]bool)
	for _, u := range issue.AffectedUnits {
		units[types.CanonicalUnit(u)] = true
	}
	for ch := earliest; ch <= maxChapter; ch++ {
		units[ch] = true
	}
	expanded := make([]int, 0, len(units))
	for u := range units {
		expanded = append(expanded, u)
	}
	sort.Ints(expanded)

	out := *issue
	out.AffectedUnits = expanded
	out.CorrectionInstruction = fmt.Sprintf(
		"Continuity rule, apply mechanically: the entity described below was eliminated "+
			"in or before chapter %d. From that point on it may appear only in flashback or "+
			"retrospective framing. Remove or reframe every present-tense action, line of "+
			"dialogue, or scene presence it has in the affected chapters. Finding: %s",
		earliest, issue.Description)
	return &out
}

func earliestChapter(units []int) int {
	earliest := 0
	for _, u := range units {
		c := types.CanonicalUnit(u)
		if c < 1 {
			continue // sentinels are not chapters
		}
		if earliest == 0 || c < earliest {
			earliest = c
		}
	}
	if earliest == 0 {
		earliest = 1
	}
	return earliest
}

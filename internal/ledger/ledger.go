// Package ledger tracks which defects have already been resolved.
//
// The ledger is a set of issue fingerprints persisted at project scope.
// It only grows: resolution is permanent within a project. A defect that
// regresses later reappears under a (possibly different) fingerprint and
// is treated as new work. That imprecision is accepted; fingerprinting
// is a similarity heuristic, not exact semantic identity.
package ledger

import (
	"github.com/inkforge/redraft/internal/types"
)

// Ledger filters reviewer issues against the resolved-fingerprint set.
// It mutates the map it was constructed with, so callers persisting
// ProjectState see updates without copying.
type Ledger struct {
	resolved map[string]bool
}

// New wraps an existing resolved set (typically ProjectState.ResolvedFingerprints).
func New(resolved map[string]bool) *Ledger {
	if resolved == nil {
		resolved = make(map[string]bool)
	}
	return &Ledger{resolved: resolved}
}

// FilterNew drops issues whose fingerprint is already resolved and
// returns the survivors plus the number dropped.
func (l *Ledger) FilterNew(issues []*types.Issue) (newIssues []*types.Issue, filtered int) {
	for _, issue := range issues {
		if l.resolved[issue.Fingerprint()] {
			filtered++
			continue
		}
		newIssues = append(newIssues, issue)
	}
	return newIssues, filtered
}

// MarkResolved adds every issue's fingerprint to the set. Marking an
// already-resolved fingerprint is a no-op.
func (l *Ledger) MarkResolved(issues []*types.Issue) {
	for _, issue := range issues {
		l.resolved[issue.Fingerprint()] = true
	}
}

// MarkFingerprints adds raw fingerprints, for callers that already
// computed them (e.g. after a successful unit rewrite).
func (l *Ledger) MarkFingerprints(fps []string) {
	for _, fp := range fps {
		l.resolved[fp] = true
	}
}

// Contains reports whether a fingerprint is resolved.
func (l *Ledger) Contains(fp string) bool {
	return l.resolved[fp]
}

// Size returns the number of resolved fingerprints.
func (l *Ledger) Size() int {
	return len(l.resolved)
}

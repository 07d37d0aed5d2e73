// Package limiter bounds correction attempts per manuscript unit.
//
// Every attempted correction pass counts, successful or not, so total
// rewriter work per unit is bounded even when the reviewer keeps
// inventing new issues for it. Only a human override (rd reset-attempts)
// re-opens a capped unit.
package limiter

// Limiter wraps the persisted per-unit attempt counts
// (ProjectState.CorrectionCounts). It mutates the map in place.
type Limiter struct {
	counts      map[int]int
	maxAttempts int
}

// New wraps an existing counts map with the given cap.
func New(counts map[int]int, maxAttempts int) *Limiter {
	if counts == nil {
		counts = make(map[int]int)
	}
	return &Limiter{counts: counts, maxAttempts: maxAttempts}
}

// CanAttempt reports whether the unit is still under the attempt cap.
func (l *Limiter) CanAttempt(unitID int) bool {
	return l.counts[unitID] < l.maxAttempts
}

// RecordAttempt increments the unit's count unconditionally.
func (l *Limiter) RecordAttempt(unitID int) {
	l.counts[unitID]++
}

// Count returns the recorded attempts for a unit.
func (l *Limiter) Count(unitID int) int {
	return l.counts[unitID]
}

// Reset clears a unit's count. This is the human-override path; the
// engine never calls it.
func (l *Limiter) Reset(unitID int) {
	delete(l.counts, unitID)
}

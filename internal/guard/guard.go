// Package guard detects score regressions and rolls corrections back.
//
// Before a correction pass, the engine captures each target unit's
// content. When the next review comes in, the guard compares scores: a
// small drop is only logged, a significant drop restores every
// snapshotted unit to its pre-correction content and the cycle skips
// corrections so the next review re-evaluates the restored baseline.
// This is the engine's only rollback mechanism; it is whole-unit and
// cycle-scoped.
package guard

import (
	"context"
	"fmt"
	"sort"
)

// Decision is the guard's verdict on a new score.
type Decision int

const (
	// Keep accepts the corrections (score held or improved, or there
	// is nothing to roll back to).
	Keep Decision = iota
	// Warn keeps the corrections but flags a minor drop.
	Warn
	// Rollback restores snapshots and skips this cycle's corrections.
	Rollback
)

func (d Decision) String() string {
	switch d {
	case Warn:
		return "warn"
	case Rollback:
		return "rollback"
	default:
		return "keep"
	}
}

// UnitWriter is the slice of the store the guard needs for restores.
type UnitWriter interface {
	PutUnit(ctx context.Context, id int, content string) error
}

// Guard holds the rollback threshold, in score points on the
// reviewer's scale.
type Guard struct {
	rollbackThreshold float64
}

// New returns a guard. rollbackThreshold is the drop that triggers a
// restore; any smaller drop only warns.
func New(rollbackThreshold float64) *Guard {
	return &Guard{rollbackThreshold: rollbackThreshold}
}

// Assess classifies the new score against the previous cycle's.
// Without snapshots a drop cannot be attributed to a correction, so the
// guard never asks for a rollback it cannot perform.
func (g *Guard) Assess(previousScore, newScore float64, haveSnapshots bool) Decision {
	drop := previousScore - newScore
	switch {
	case drop >= g.rollbackThreshold && haveSnapshots:
		return Rollback
	case drop > 0:
		return Warn
	default:
		return Keep
	}
}

// Capture records a unit's pre-correction content into the snapshot map
// (typically ProjectState.PendingSnapshots). First capture wins: if the
// unit was already snapshotted this cycle, the earlier content stands.
func Capture(snapshots map[int]string, unitID int, content string) {
	if _, ok := snapshots[unitID]; ok {
		return
	}
	snapshots[unitID] = content
}

// Restore writes every snapshotted unit's content back to the store and
// clears the snapshot map. Content is restored byte-for-byte. Units are
// written in id order so partial failures are deterministic.
func Restore(ctx context.Context, w UnitWriter, snapshots map[int]string) error {
	ids := make([]int, 0, len(snapshots))
	for id := range snapshots {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if err := w.PutUnit(ctx, id, snapshots[id]); err != nil {
			return fmt.Errorf("restore unit %d: %w", id, err)
		}
	}
	Discard(snapshots)
	return nil
}

// Discard drops all held snapshots without restoring.
func Discard(snapshots map[int]string) {
	for id := range snapshots {
		delete(snapshots, id)
	}
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/inkforge/redraft/internal/debug"
	"github.com/inkforge/redraft/internal/guard"
	"github.com/inkforge/redraft/internal/ledger"
	"github.com/inkforge/redraft/internal/limiter"
	"github.com/inkforge/redraft/internal/storage"
	"github.com/inkforge/redraft/internal/types"
)

// correctUnits runs the correction pass for one cycle. Each target unit
// is rewritten exactly once, with everything known about it aggregated
// into a single instruction; the attempt is recorded win or lose, and
// only a changed result marks the contributing fingerprints resolved.
// State is checkpointed after every unit so a crash mid-pass loses at
// most the in-flight unit.
func (e *Engine) correctUnits(ctx context.Context, state *types.ProjectState,
	led *ledger.Ledger, workload []*types.Issue, unitsToRewrite []int) error {

	lim := limiter.New(state.CorrectionCounts, e.cfg.MaxCorrectionAttemptsPerUnit)
	byUnit := groupIssuesByUnit(workload)
	targets := rewriteTargets(unitsToRewrite, byUnit)

	var corrected []string

	for _, id := range targets {
		// Cancellation checkpoint before each unit; the cycle's
		// completed corrections stay persisted.
		if ctx.Err() != nil {
			break
		}
		issues := byUnit[id]
		if len(issues) == 0 {
			continue
		}
		if !lim.CanAttempt(id) {
			debug.PrintNormal("unit %d: correction cap reached (%d attempts), skipping; use `rd reset-attempts %d` to override\n",
				id, lim.Count(id), id)
			continue
		}

		unit, err := e.store.GetUnit(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			debug.Logf("unit %d: referenced by reviewer but not in store, skipping\n", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("get unit %d: %w", id, err)
		}

		guard.Capture(state.PendingSnapshots, id, unit.Content)
		lim.RecordAttempt(id)
		engineMetrics.corrections.Add(ctx, 1)

		revised, err := e.rewriteWithTiers(ctx, unit, issues)
		switch {
		case err != nil:
			debug.PrintNormal("unit %d: correction failed: %v\n", id, err)
			markFailed(state, id)
			engineMetrics.correctionsFailed.Add(ctx, 1)
		case revised == unit.Content:
			debug.PrintNormal("unit %d: rewriter returned unchanged content, counting as failed attempt\n", id)
			markFailed(state, id)
			engineMetrics.correctionsFailed.Add(ctx, 1)
		default:
			if err := e.store.PutUnit(ctx, id, revised); err != nil {
				return fmt.Errorf("store corrected unit %d: %w", id, err)
			}
			fps := make([]string, 0, len(issues))
			for _, issue := range issues {
				fps = append(fps, issue.Fingerprint())
				corrected = append(corrected, fmt.Sprintf("[%s/%s] %s",
					issue.Category, issue.Severity, issue.Description))
			}
			led.MarkFingerprints(fps)
			clearFailed(state, id)
		}

		if err := e.checkpoint(ctx, state); err != nil {
			return err
		}
	}

	state.LastCorrected = corrected
	return nil
}

// rewriteWithTiers escalates through up to three attempts per unit:
// the aggregated instruction as-is, a firmer framing after a no-op, and
// finally a full-rewrite directive. Transport errors surface from the
// last tier only; earlier tiers fall through.
func (e *Engine) rewriteWithTiers(ctx context.Context, unit *types.Unit, issues []*types.Issue) (string, error) {
	issueText := aggregateIssueText(issues)
	tiers := []string{
		issueText,
		"A previous revision attempt left this chapter unchanged. You must produce materially different text this time.\n\n" + issueText,
		"Rewrite this chapter from scratch, keeping its plot events but re-expressing everything, so that the following defects are gone.\n\n" + issueText,
	}

	var lastErr error
	for _, text := range tiers {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		revised, err := e.rewriter.Correct(ctx, unit.Content, text, "")
		if err != nil {
			lastErr = err
			continue
		}
		if revised != unit.Content && strings.TrimSpace(revised) != "" {
			return revised, nil
		}
		lastErr = nil // no-op result, not a transport failure
	}
	if lastErr != nil {
		return "", lastErr
	}
	return unit.Content, nil
}

// markFailed records a unit as failed until a later attempt succeeds.
func markFailed(state *types.ProjectState, id int) {
	for _, u := range state.FailedUnits {
		if u == id {
			return
		}
	}
	state.FailedUnits = append(state.FailedUnits, id)
}

func clearFailed(state *types.ProjectState, id int) {
	for i, u := range state.FailedUnits {
		if u == id {
			state.FailedUnits = append(state.FailedUnits[:i], state.FailedUnits[i+1:]...)
			return
		}
	}
}

// groupIssuesByUnit indexes the workload by canonical unit id. Issues
// touching several units contribute to each of them.
func groupIssuesByUnit(issues []*types.Issue) map[int][]*types.Issue {
	byUnit := make(map[int][]*types.Issue)
	for _, issue := range issues {
		for _, u := range issue.AffectedUnits {
			id := types.CanonicalUnit(u)
			byUnit[id] = append(byUnit[id], issue)
		}
	}
	return byUnit
}

// rewriteTargets orders the units to correct: the union of the
// reviewer's explicit rewrite list and every workload issue's affected
// units. The union matters when an escalated issue has been widened to
// units the reviewer did not list; those must still reach the rewriter.
func rewriteTargets(unitsToRewrite []int, byUnit map[int][]*types.Issue) []int {
	seen := make(map[int]bool)
	var targets []int
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}
	for _, u := range unitsToRewrite {
		add(types.CanonicalUnit(u))
	}
	for id := range byUnit {
		add(id)
	}
	sort.Ints(targets)
	return targets
}

// aggregateIssueText renders a unit's issues as one numbered defect
// list, worst first.
func aggregateIssueText(issues []*types.Issue) string {
	sorted := make([]*types.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})

	var sb strings.Builder
	for i, issue := range sorted {
		fmt.Fprintf(&sb, "%d. (%s, %s) %s\n", i+1, issue.Severity, issue.Category, issue.Description)
		if issue.CorrectionInstruction != "" {
			fmt.Fprintf(&sb, "   How to fix: %s\n", issue.CorrectionInstruction)
		}
	}
	return sb.String()
}

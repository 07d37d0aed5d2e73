package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkforge/redraft/internal/classify"
	"github.com/inkforge/redraft/internal/debug"
	"github.com/inkforge/redraft/internal/escalate"
	"github.com/inkforge/redraft/internal/guard"
	"github.com/inkforge/redraft/internal/ledger"
	"github.com/inkforge/redraft/internal/review"
	"github.com/inkforge/redraft/internal/storage"
	"github.com/inkforge/redraft/internal/types"
)

// runCycle executes one review → classify → correct pass. It mutates
// state and checkpoints it; on error nothing for this cycle has been
// persisted, so rerunning repeats the same cycle.
func (e *Engine) runCycle(ctx context.Context, state *types.ProjectState) (types.RunOutcome, error) {
	cycleNum := state.Cycle.CycleNumber + 1

	units, err := e.store.ListUnits(ctx)
	if err != nil {
		return "", fmt.Errorf("list units: %w", err)
	}
	if len(units) == 0 {
		return "", fmt.Errorf("manuscript has no units: %w", storage.ErrNotInitialized)
	}

	// REVIEWING
	prior := review.PriorContext{
		CycleNumber:        state.Cycle.CycleNumber,
		PreviousScore:      state.Cycle.PreviousScore,
		CorrectedSummaries: state.LastCorrected,
	}
	result, err := e.reviewer.Review(ctx, assembleDocument(units), prior)
	if err != nil {
		if errors.Is(err, review.ErrUnparseableReview) {
			// Resumable pause: cycle counters untouched, rerun repeats
			// this cycle.
			return "", fmt.Errorf("cycle %d paused: %w", cycleNum, err)
		}
		return "", fmt.Errorf("cycle %d review: %w", cycleNum, err)
	}
	engineMetrics.cycles.Add(ctx, 1)
	debug.Logf("cycle %d: score %.1f verdict %s, %d issues reported\n",
		cycleNum, result.Score, result.Verdict, len(result.Issues))

	// VALIDATING the previous cycle's corrections: the guard compares
	// this review's score against the last one.
	g := guard.New(e.cfg.RegressionRollbackThreshold)
	skipCorrections := false
	if cycleNum > 1 {
		switch g.Assess(state.Cycle.PreviousScore, result.Score, len(state.PendingSnapshots) > 0) {
		case guard.Rollback:
			debug.PrintNormal("cycle %d: score fell %.1f → %.1f, restoring %d units and skipping corrections\n",
				cycleNum, state.Cycle.PreviousScore, result.Score, len(state.PendingSnapshots))
			if err := guard.Restore(ctx, e.store, state.PendingSnapshots); err != nil {
				return "", fmt.Errorf("cycle %d rollback: %w", cycleNum, err)
			}
			engineMetrics.rollbacks.Add(ctx, 1)
			skipCorrections = true
		case guard.Warn:
			debug.PrintNormal("cycle %d: score fell %.1f → %.1f, keeping corrections\n",
				cycleNum, state.Cycle.PreviousScore, result.Score)
			guard.Discard(state.PendingSnapshots)
		default:
			guard.Discard(state.PendingSnapshots)
		}
	}

	// CLASSIFYING
	led := ledger.New(state.ResolvedFingerprints)

	issues := classify.ReinterpretAll(result.Issues)
	issues = dropNonActionable(issues)

	newIssues, filtered := led.FilterNew(issues)
	if filtered > 0 {
		engineMetrics.issuesFiltered.Add(ctx, int64(filtered))
		debug.Logf("cycle %d: %d already-resolved issues filtered\n", cycleNum, filtered)
	}

	workload := newIssues
	if cycleNum >= 2 {
		resolved, remaining := classify.AutoResolveStructural(
			workload, state.CorrectionCounts, e.cfg.StructuralAutoResolveAfterAttempts)
		if len(resolved) > 0 {
			led.MarkResolved(resolved)
			engineMetrics.structuralResolved.Add(ctx, int64(len(resolved)))
			for _, issue := range resolved {
				debug.PrintNormal("accepted with reservations, requires manual structural edit: %s\n",
					issue.Description)
			}
		}
		workload = remaining
	}
	if cycleNum >= 3 {
		esc := escalate.New(state.PersistenceCounters, state.EscalatedFingerprints,
			e.cfg.PersistentIssueEscalationThreshold)
		before := workload
		workload = esc.Process(workload, storage.MaxChapter(units))
		for i := range workload {
			if workload[i] != before[i] {
				engineMetrics.issuesEscalated.Add(ctx, 1)
				debug.Logf("cycle %d: escalated persistent issue: %s\n", cycleNum, workload[i].Description)
			}
		}
	}

	// Termination gate: score high enough and nothing genuinely new.
	qualifies := result.Score >= e.cfg.MinAcceptScore && len(newIssues) == 0
	if qualifies {
		state.Cycle.ConsecutiveHighScores++
	} else {
		state.Cycle.ConsecutiveHighScores = 0
	}
	approved := state.Cycle.ConsecutiveHighScores >= e.cfg.RequiredConsecutiveHighScores

	// CORRECTING
	state.LastCorrected = nil
	switch {
	case approved, qualifies, skipCorrections:
		// Nothing to correct, or corrections deliberately skipped so
		// the next review re-evaluates the restored baseline.
	case len(workload) == 0:
		// Below threshold with no actionable issues: advance rather
		// than loop on an unresolvable state; maxCycles bounds us.
		debug.PrintNormal("cycle %d: score %.1f below threshold but no actionable issues, advancing\n",
			cycleNum, result.Score)
	default:
		if err := e.correctUnits(ctx, state, led, workload, result.UnitsToRewrite); err != nil {
			return "", err
		}
	}

	state.Cycle.CycleNumber = cycleNum
	state.Cycle.PreviousScore = result.Score
	if err := e.checkpoint(ctx, state); err != nil {
		return "", err
	}

	if approved {
		return types.OutcomeApproved, nil
	}
	return types.OutcomeContinue, nil
}

// dropNonActionable removes issues with no affected units. They cannot
// be routed to the rewriter.
func dropNonActionable(issues []*types.Issue) []*types.Issue {
	out := issues[:0]
	for _, issue := range issues {
		if issue.Actionable() {
			out = append(out, issue)
			continue
		}
		debug.Logf("discarding issue with no affected units: %s\n", issue.Description)
	}
	return out
}

package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/inkforge/redraft/internal/config"
	"github.com/inkforge/redraft/internal/engine"
	"github.com/inkforge/redraft/internal/review"
	"github.com/inkforge/redraft/internal/storage/memory"
	"github.com/inkforge/redraft/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReviewer replays a fixed sequence of review results.
type scriptedReviewer struct {
	results []*types.ReviewResult
	errs    []error
	calls   int
}

func (r *scriptedReviewer) Review(_ context.Context, _ string, _ review.PriorContext) (*types.ReviewResult, error) {
	i := r.calls
	r.calls++
	if i >= len(r.results) {
		// Past the script: hold the last result.
		i = len(r.results) - 1
	}
	if i < len(r.errs) && r.errs[i] != nil {
		return nil, r.errs[i]
	}
	return r.results[i], nil
}

// rewriterFunc adapts a function to the Rewriter interface.
type rewriterFunc func(unitContent, issueText string) (string, error)

func (f rewriterFunc) Correct(_ context.Context, unitContent, issueText, _ string) (string, error) {
	return f(unitContent, issueText)
}

var appendRevision = rewriterFunc(func(content, _ string) (string, error) {
	return content + "\n[revised]", nil
})

var noopRewriter = rewriterFunc(func(content, _ string) (string, error) {
	return content, nil
})

func seedStore(t *testing.T, chapters int) *memory.Store {
	t.Helper()
	store := memory.New()
	for ch := 1; ch <= chapters; ch++ {
		require.NoError(t, store.PutUnit(context.Background(),
			ch, fmt.Sprintf("chapter %d original text", ch)))
	}
	return store
}

func clean(score float64) *types.ReviewResult {
	return &types.ReviewResult{Score: score, Verdict: types.VerdictApproved}
}

func flagged(score float64, issues ...*types.Issue) *types.ReviewResult {
	units := map[int]bool{}
	var rewrite []int
	for _, issue := range issues {
		for _, u := range issue.AffectedUnits {
			if !units[u] {
				units[u] = true
				rewrite = append(rewrite, u)
			}
		}
	}
	return &types.ReviewResult{
		Score:          score,
		Verdict:        types.VerdictNeedsRevision,
		Issues:         issues,
		UnitsToRewrite: rewrite,
	}
}

func TestEndToEndApproved(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 5)
	endingIssue := &types.Issue{
		Category:              "pacing",
		Severity:              types.SeverityMajor,
		Description:           "the ending of chapter 3 is rushed",
		CorrectionInstruction: "fix the ending",
		AffectedUnits:         []int{3},
	}
	reviewer := &scriptedReviewer{results: []*types.ReviewResult{
		flagged(6, endingIssue),
		clean(9),
		clean(9),
	}}

	eng := engine.New(store, reviewer, appendRevision, config.Defaults())
	result, err := eng.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeApproved, result.Outcome)
	assert.Equal(t, 3, result.CyclesRun)
	assert.Equal(t, 9.0, result.FinalScore)

	state, err := store.GetProjectState(ctx)
	require.NoError(t, err)
	assert.True(t, state.ResolvedFingerprints[endingIssue.Fingerprint()],
		"corrected issue's fingerprint is in the ledger")
	assert.Equal(t, 1, state.CorrectionCounts[3])
	assert.Equal(t, 2, state.Cycle.ConsecutiveHighScores)

	unit, err := store.GetUnit(ctx, 3)
	require.NoError(t, err)
	assert.Contains(t, unit.Content, "[revised]")
}

func TestTerminationGateNeedsConsecutiveHighScores(t *testing.T) {
	store := seedStore(t, 2)
	reviewer := &scriptedReviewer{results: []*types.ReviewResult{
		clean(9),
		clean(8), // breaks the streak
		clean(9),
		clean(9),
	}}

	eng := engine.New(store, reviewer, appendRevision, config.Defaults())
	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeApproved, result.Outcome)
	assert.Equal(t, 4, result.CyclesRun, "streak must restart after the dip")
}

func TestTerminationGateApprovesAtSecondCycle(t *testing.T) {
	store := seedStore(t, 2)
	results := make([]*types.ReviewResult, 15)
	for i := range results {
		results[i] = clean(10)
	}
	eng := engine.New(store, &scriptedReviewer{results: results}, appendRevision, config.Defaults())
	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeApproved, result.Outcome)
	assert.Equal(t, 2, result.CyclesRun, "approval lands on the second qualifying cycle, not the first")
}

func TestHighScoreWithNewIssuesDoesNotQualify(t *testing.T) {
	store := seedStore(t, 3)
	issue := &types.Issue{Category: "style", Severity: types.SeverityMinor,
		Description: "adverb soup in chapter 1", AffectedUnits: []int{1}}
	reviewer := &scriptedReviewer{results: []*types.ReviewResult{
		flagged(9.5, issue), // high score but a genuinely new issue
		clean(9),
		clean(9),
	}}

	eng := engine.New(store, reviewer, appendRevision, config.Defaults())
	result, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeApproved, result.Outcome)
	assert.Equal(t, 3, result.CyclesRun, "cycle 1 must not count toward the streak")
}

func TestRegressionRollback(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 6)
	issues := []*types.Issue{
		{Category: "pacing", Severity: types.SeverityMajor,
			Description: "chapter 2 drags", AffectedUnits: []int{2}},
		{Category: "continuity", Severity: types.SeverityMajor,
			Description: "chapter 5 contradicts the prologue", AffectedUnits: []int{5}},
	}
	reviewer := &scriptedReviewer{results: []*types.ReviewResult{
		flagged(8, issues...), // corrections applied to units 2 and 5
		flagged(5, issues...), // drop of 3: rollback
		clean(9),
		clean(9),
	}}

	cfg := config.Defaults()
	eng := engine.New(store, reviewer, appendRevision, cfg)
	result, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeApproved, result.Outcome)

	for _, id := range []int{2, 5} {
		unit, err := store.GetUnit(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("chapter %d original text", id), unit.Content,
			"unit %d must be byte-identical to its pre-correction content", id)
	}

	state, err := store.GetProjectState(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.PendingSnapshots, "snapshots are discarded after rollback")
}

func TestRegressionWithoutSnapshotsOnlyLogs(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 2)
	// No corrections ever happen (clean reviews), so a score drop has
	// no snapshots to roll back to.
	reviewer := &scriptedReviewer{results: []*types.ReviewResult{
		clean(8),
		clean(5),
		clean(9),
		clean(9),
	}}
	eng := engine.New(store, reviewer, appendRevision, config.Defaults())
	result, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeApproved, result.Outcome)
}

func TestExhaustedAfterMaxCycles(t *testing.T) {
	store := seedStore(t, 2)
	issue := &types.Issue{Category: "plot", Severity: types.SeverityCritical,
		Description: "the heist makes no sense", AffectedUnits: []int{1}}

	results := make([]*types.ReviewResult, 20)
	for i := range results {
		results[i] = flagged(5, issue)
	}

	cfg := config.Defaults()
	cfg.MaxCycles = 4
	eng := engine.New(store, &scriptedReviewer{results: results}, noopRewriter, cfg)
	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeExhausted, result.Outcome)
	assert.Equal(t, 4, result.CyclesRun)
}

func TestCorrectionCapExcludesUnit(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 2)
	issue := &types.Issue{Category: "plot", Severity: types.SeverityCritical,
		Description: "the heist makes no sense", AffectedUnits: []int{1}}

	results := make([]*types.ReviewResult, 10)
	for i := range results {
		results[i] = flagged(5, issue)
	}

	cfg := config.Defaults()
	cfg.MaxCycles = 8
	cfg.MaxCorrectionAttemptsPerUnit = 4
	// noop rewriter: every attempt fails, so the fingerprint is never
	// resolved and the issue keeps coming back.
	eng := engine.New(store, &scriptedReviewer{results: results}, noopRewriter, cfg)
	result, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeExhausted, result.Outcome)

	state, err := store.GetProjectState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, state.CorrectionCounts[1],
		"attempts stop at the cap even though the issue persisted for 8 cycles")
	assert.Contains(t, state.FailedUnits, 1)
}

func TestAbortedLeavesStateIntact(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := seedStore(t, 2)
	reviewer := &scriptedReviewer{results: []*types.ReviewResult{clean(7)}}

	eng := engine.New(store, reviewer, appendRevision, config.Defaults())
	_, err := eng.Run(ctx)
	require.NoError(t, err)

	cancel()
	result, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeAborted, result.Outcome)

	state, err := store.GetProjectState(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, 0, state.Cycle.CycleNumber, "persisted progress survives the abort")
}

func TestUnparseableReviewPausesWithoutAdvancing(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 2)
	reviewer := &scriptedReviewer{
		results: []*types.ReviewResult{clean(7), nil, clean(9), clean(9)},
		errs:    []error{nil, fmt.Errorf("decode: %w", review.ErrUnparseableReview)},
	}

	eng := engine.New(store, reviewer, appendRevision, config.Defaults())
	_, err := eng.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, review.ErrUnparseableReview)

	state, err := store.GetProjectState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Cycle.CycleNumber,
		"the failed cycle must not advance the counter")

	// Rerunning resumes from cycle 2 and converges.
	result, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeApproved, result.Outcome)
}

func TestStructuralIssueAutoResolvesAfterAttempts(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 8)
	structural := &types.Issue{
		Category:      "structure",
		Severity:      types.SeverityMajor,
		Description:   "Move chapter 4 before chapter 2 so the reveal lands earlier",
		AffectedUnits: []int{4},
	}

	results := make([]*types.ReviewResult, 10)
	for i := range results {
		results[i] = flagged(6, structural)
	}

	cfg := config.Defaults()
	cfg.MaxCycles = 10
	// Rewriting cannot move a chapter: every attempt is a no-op, so the
	// fingerprint stays unresolved and attempts accumulate on unit 4.
	eng := engine.New(store, &scriptedReviewer{results: results}, noopRewriter, cfg)
	result, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeExhausted, result.Outcome)

	state, err := store.GetProjectState(ctx)
	require.NoError(t, err)
	assert.True(t, state.ResolvedFingerprints[structural.Fingerprint()],
		"structural issue is force-resolved once unit 4 has two failed attempts")
	assert.LessOrEqual(t, state.CorrectionCounts[4], 3,
		"auto-resolution stops the correction churn well before the cap")
}

func TestEscalatedScopeReachesRewriter(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 12)
	resurrection := &types.Issue{
		Category:      "continuity",
		Severity:      types.SeverityCritical,
		Description:   "The captain was killed in chapter 4 but appears alive and gives orders in chapter 9",
		AffectedUnits: []int{4, 9},
	}

	// The reviewer only ever lists units 4 and 9 for rewriting.
	results := make([]*types.ReviewResult, 5)
	for i := range results {
		results[i] = flagged(5, resurrection)
	}

	var seen []string
	recording := rewriterFunc(func(content, _ string) (string, error) {
		seen = append(seen, content)
		return content, nil // no-op keeps the issue persistent
	})

	cfg := config.Defaults()
	cfg.MaxCycles = 5
	eng := engine.New(store, &scriptedReviewer{results: results}, recording, cfg)
	result, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeExhausted, result.Outcome)

	// Cycle 5 escalates the persistent resurrection issue, widening its
	// scope from {4,9} to every chapter from the elimination onward. The
	// widened units must reach the rewriter even though the reviewer's
	// rewrite list never mentions them.
	assert.Contains(t, seen, "chapter 5 original text")
	assert.Contains(t, seen, "chapter 12 original text")

	state, err := store.GetProjectState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CorrectionCounts[12])
}

func TestMergeRequestNeverReachesRewriterAsMerge(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 6)
	merge := &types.Issue{
		Category:      "redundancy",
		Severity:      types.SeverityMajor,
		Description:   "Chapters 5 and 6 should be merged into a single chapter",
		AffectedUnits: []int{5, 6},
	}
	reviewer := &scriptedReviewer{results: []*types.ReviewResult{
		flagged(7, merge),
		clean(9),
		clean(9),
	}}

	var seenInstructions []string
	recording := rewriterFunc(func(content, issueText string) (string, error) {
		seenInstructions = append(seenInstructions, issueText)
		return content + "\n[condensed]", nil
	})

	eng := engine.New(store, reviewer, recording, config.Defaults())
	result, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeApproved, result.Outcome)

	require.NotEmpty(t, seenInstructions)
	for _, text := range seenInstructions {
		assert.Contains(t, text, "30%", "merge requests arrive reinterpreted as condensation")
	}
}

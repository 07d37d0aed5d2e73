// Package engine drives the iterative revision convergence loop.
//
// One cycle is review → classify → correct → validate. The controller
// runs cycles until the termination gate approves the manuscript, the
// cycle budget is exhausted, or the run is cancelled. Every piece of
// cross-cycle state (resolution ledger, correction counts, persistence
// counters, cycle state, pending snapshots) lives in the persisted
// ProjectState, written back after every mutating checkpoint so a
// process restart resumes exactly where it left off.
//
// The engine is single-threaded and cooperative: one cycle runs to
// completion before the next begins, and unit corrections within a
// cycle are sequential. Cancellation is polled at the top of each cycle
// and before each unit correction, never mid-call.
package engine

import (
	"context"
	"fmt"

	"github.com/inkforge/redraft/internal/config"
	"github.com/inkforge/redraft/internal/review"
	"github.com/inkforge/redraft/internal/storage"
	"github.com/inkforge/redraft/internal/types"
)

// Engine coordinates the collaborators and the store.
type Engine struct {
	store    storage.Store
	reviewer review.Reviewer
	rewriter review.Rewriter
	cfg      config.Run
}

// New wires an engine. The store and collaborators are owned by the
// caller; the engine never closes them.
func New(store storage.Store, reviewer review.Reviewer, rewriter review.Rewriter, cfg config.Run) *Engine {
	return &Engine{store: store, reviewer: reviewer, rewriter: rewriter, cfg: cfg}
}

// Result summarizes a finished (or paused) run.
type Result struct {
	Outcome     types.RunOutcome
	FinalScore  float64
	CyclesRun   int
	FailedUnits []int
	LedgerSize  int
}

// Run executes cycles until a terminal outcome. A nil error with
// OutcomeAborted/OutcomeExhausted is a normal, reviewable ending. An
// error return (e.g. unparseable reviewer output) leaves persisted
// state untouched for the failed cycle so rerunning resumes it.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	engineMetricsOnce.Do(initEngineMetrics)

	state, err := e.store.GetProjectState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load project state: %w", err)
	}
	state.EnsureMaps()
	if state.Cycle.MaxCycles == 0 {
		state.Cycle.MaxCycles = e.cfg.MaxCycles
	}

	for {
		// Cancellation checkpoint: between cycles only, so persisted
		// state always reflects a completed checkpoint.
		if ctx.Err() != nil {
			return e.result(types.OutcomeAborted, state), nil
		}
		if state.Cycle.CycleNumber >= state.Cycle.MaxCycles {
			return e.result(types.OutcomeExhausted, state), nil
		}

		outcome, err := e.runCycle(ctx, state)
		if err != nil {
			return nil, err
		}
		if outcome != types.OutcomeContinue {
			return e.result(outcome, state), nil
		}
	}
}

func (e *Engine) result(outcome types.RunOutcome, state *types.ProjectState) *Result {
	return &Result{
		Outcome:     outcome,
		FinalScore:  state.Cycle.PreviousScore,
		CyclesRun:   state.Cycle.CycleNumber,
		FailedUnits: state.FailedUnits,
		LedgerSize:  len(state.ResolvedFingerprints),
	}
}

// checkpoint persists the project state. Called after every mutation
// batch; a failure here is fatal because continuing would break the
// resume-from-restart guarantee.
func (e *Engine) checkpoint(ctx context.Context, state *types.ProjectState) error {
	if err := e.store.PutProjectState(ctx, state); err != nil {
		return fmt.Errorf("persist project state: %w", err)
	}
	return nil
}

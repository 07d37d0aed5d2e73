// Package review defines the collaborator contracts the engine drives.
//
// The reviewer and rewriter are opaque external services. Their output
// is non-deterministic by nature; the engine compensates with issue
// fingerprinting and by verifying rewrites through content comparison
// rather than trusting a success flag.
package review

import (
	"context"
	"errors"

	"github.com/inkforge/redraft/internal/types"
)

// ErrUnparseableReview is returned when the reviewer's structured
// output cannot be decoded. The run pauses in a resumable state; cycle
// counters are not advanced so a retry re-runs the same cycle.
var ErrUnparseableReview = errors.New("unparseable reviewer output")

// ErrUnavailable wraps transport-level collaborator failures that
// survived retry. Recorded as a failed unit for the cycle, never a
// fatal run error.
var ErrUnavailable = errors.New("collaborator unavailable")

// PriorContext carries previous-cycle information to the reviewer to
// stabilize scoring across calls.
type PriorContext struct {
	CycleNumber        int
	PreviousScore      float64
	CorrectedSummaries []string
}

// Reviewer scores the whole manuscript and reports structured issues.
type Reviewer interface {
	Review(ctx context.Context, document string, prior PriorContext) (*types.ReviewResult, error)
}

// Rewriter revises one unit's content against aggregated issue text.
// Returning the input unchanged is a valid response; callers detect it
// by comparison and count the attempt as failed.
type Rewriter interface {
	Correct(ctx context.Context, unitContent, issueText, docContext string) (string, error)
}

// Generator produces initial chapter prose from an outline description.
// Only `rd generate` uses it; the convergence engine never does.
type Generator interface {
	Generate(ctx context.Context, outline string) (string, error)
}

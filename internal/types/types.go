// Package types defines core data structures for the redraft revision engine.
package types

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// Severity classifies how badly a reported issue hurts the manuscript.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Rank returns the ordinal weight of a severity (higher is worse).
// Unknown severities rank below minor so malformed reviewer output
// never outranks a real defect.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMajor:
		return 2
	case SeverityMinor:
		return 1
	default:
		return 0
	}
}

// Verdict is the reviewer's overall judgment for one cycle.
type Verdict string

const (
	VerdictApproved      Verdict = "approved"
	VerdictNeedsRevision Verdict = "needs_revision"
	VerdictRejected      Verdict = "rejected"
)

// Issue is one defect reported by the reviewer for one cycle.
//
// The reviewer is non-deterministic and may rephrase the same defect
// differently across cycles; identity across cycles is established by
// Fingerprint, never by comparing descriptions directly.
type Issue struct {
	Category              string   `json:"category"`
	Severity              Severity `json:"severity"`
	Description           string   `json:"description"`
	CorrectionInstruction string   `json:"correction_instruction,omitempty"`
	AffectedUnits         []int    `json:"affected_units"`
}

// Actionable reports whether the issue references at least one unit.
// An issue with no affected units cannot be routed to the rewriter and
// is discarded by the controller.
func (i *Issue) Actionable() bool {
	return len(i.AffectedUnits) > 0
}

// fingerprintDescLimit bounds how much of the description participates in
// the fingerprint. Reviewer phrasings tend to agree on the opening clause
// and diverge in trailing elaboration, so a fixed prefix absorbs most of
// the rewording noise.
const fingerprintDescLimit = 120

// fingerprintSep delimits fingerprint fields. NUL never survives the
// JSON decode of reviewer output, so it cannot occur in field content.
const fingerprintSep = "\x00"

// Fingerprint creates a deterministic identity for the issue's underlying
// defect. Two issues with the same fingerprint are treated as the same
// defect even when the reviewer worded them differently.
//
// The computation is pure: identical inputs always produce identical
// output, across process restarts. Collision resistance against
// adversarial input is not a goal.
func (i *Issue) Fingerprint() string {
	desc := NormalizeText(i.Description)
	if len(desc) > fingerprintDescLimit {
		desc = desc[:fingerprintDescLimit]
	}

	units := make([]int, 0, len(i.AffectedUnits))
	for _, u := range i.AffectedUnits {
		units = append(units, CanonicalUnit(u))
	}
	sort.Ints(units)

	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(i.Category))))
	h.Write([]byte(fingerprintSep))
	h.Write([]byte(desc))
	h.Write([]byte(fingerprintSep))
	for _, u := range units {
		fmt.Fprintf(h, "%d", u)
		h.Write([]byte(fingerprintSep))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NormalizeText case-folds, trims, and collapses runs of whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Unit is one addressable piece of the manuscript, independently
// rewritable.
type Unit struct {
	ID      int    `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// ReviewResult is the reviewer's structured output for one pass over the
// whole manuscript.
type ReviewResult struct {
	Score          float64  `json:"score"`
	Verdict        Verdict  `json:"verdict"`
	Issues         []*Issue `json:"issues"`
	UnitsToRewrite []int    `json:"units_to_rewrite,omitempty"`
}

// CycleState tracks convergence progress across cycles. Persisted so an
// interrupted run resumes without losing its streak.
type CycleState struct {
	CycleNumber           int     `json:"cycle_number"`
	PreviousScore         float64 `json:"previous_score"`
	ConsecutiveHighScores int     `json:"consecutive_high_scores"`
	MaxCycles             int     `json:"max_cycles"`
}

// RunOutcome is the terminal (or continuing) status of a run.
type RunOutcome string

const (
	OutcomeContinue  RunOutcome = "continue"
	OutcomeApproved  RunOutcome = "approved"
	OutcomeExhausted RunOutcome = "exhausted"
	OutcomeAborted   RunOutcome = "aborted"
)

// ProjectState is everything the engine persists at project scope.
// Loaded at cycle start, written back after every mutating checkpoint,
// so a process restart resumes from the last durable checkpoint.
type ProjectState struct {
	// ResolvedFingerprints is the resolution ledger: defects confirmed
	// fixed or force-resolved as structural. Grows monotonically; there
	// is no unresolve operation.
	ResolvedFingerprints map[string]bool `json:"resolved_fingerprints"`

	// CorrectionCounts maps unit id to attempted correction passes.
	CorrectionCounts map[int]int `json:"correction_counts"`

	// PersistenceCounters maps fingerprint to consecutive cycles seen.
	PersistenceCounters map[string]int `json:"persistence_counters"`

	// EscalatedFingerprints marks issues already escalated; escalation
	// is permanent for the remainder of the run.
	EscalatedFingerprints map[string]bool `json:"escalated_fingerprints"`

	// PendingSnapshots holds pre-correction unit content awaiting
	// validation by the next review pass. Persisted so a restart
	// between cycles can still roll back.
	PendingSnapshots map[int]string `json:"pending_snapshots,omitempty"`

	// FailedUnits lists units whose most recent correction attempt
	// exhausted all retry tiers without changing content. A unit leaves
	// the list when a later attempt succeeds. Informational.
	FailedUnits []int `json:"failed_units,omitempty"`

	// LastCorrected summarizes defects corrected in the previous
	// cycle, fed back to the reviewer to stabilize scoring.
	LastCorrected []string `json:"last_corrected,omitempty"`

	Cycle CycleState `json:"cycle"`
}

// NewProjectState returns an empty state with all maps allocated.
func NewProjectState() *ProjectState {
	return &ProjectState{
		ResolvedFingerprints:  make(map[string]bool),
		CorrectionCounts:      make(map[int]int),
		PersistenceCounters:   make(map[string]int),
		EscalatedFingerprints: make(map[string]bool),
		PendingSnapshots:      make(map[int]string),
	}
}

// EnsureMaps allocates any nil maps after JSON decoding of older state.
func (s *ProjectState) EnsureMaps() {
	if s.ResolvedFingerprints == nil {
		s.ResolvedFingerprints = make(map[string]bool)
	}
	if s.CorrectionCounts == nil {
		s.CorrectionCounts = make(map[int]int)
	}
	if s.PersistenceCounters == nil {
		s.PersistenceCounters = make(map[string]int)
	}
	if s.EscalatedFingerprints == nil {
		s.EscalatedFingerprints = make(map[string]bool)
	}
	if s.PendingSnapshots == nil {
		s.PendingSnapshots = make(map[int]string)
	}
}

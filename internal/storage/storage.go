// Package storage defines the persistence contract for the engine.
//
// The concrete implementations live in the sqlite and memory
// sub-packages. Consumers depend on the Store interface rather than a
// concrete type so tests and dry runs can substitute the memory store.
//
// Durability contract: the engine writes project state after every
// mutating checkpoint, so any implementation must make PutProjectState
// durable before returning. A process restart resumes from exactly the
// last completed checkpoint.
package storage

import (
	"context"
	"errors"

	"github.com/inkforge/redraft/internal/types"
)

// ErrNotFound is returned when a requested unit or record does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotInitialized is returned when the project database has not been
// created yet (run `rd init` first).
var ErrNotInitialized = errors.New("project not initialized")

// Store is the persistence interface the engine drives.
type Store interface {
	// Units. Ids are canonical (see types.CanonicalUnit).
	GetUnit(ctx context.Context, id int) (*types.Unit, error)
	PutUnit(ctx context.Context, id int, content string) error
	ListUnits(ctx context.Context) ([]*types.Unit, error)

	// Project state: resolution ledger, correction counts, persistence
	// counters, cycle state, pending snapshots.
	GetProjectState(ctx context.Context) (*types.ProjectState, error)
	PutProjectState(ctx context.Context, state *types.ProjectState) error

	// Freeform configuration, for CLI-set overrides.
	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)
	GetAllConfig(ctx context.Context) (map[string]string, error)

	Close() error
}

// MaxChapter returns the highest ordinary chapter id among units.
// Sentinel-mapped units (prologue, epilogue, author's note) are not
// chapters and do not count.
func MaxChapter(units []*types.Unit) int {
	max := 0
	for _, u := range units {
		if u.ID > max {
			max = u.ID
		}
	}
	return max
}

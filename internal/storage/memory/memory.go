// Package memory implements the storage interface in process memory.
//
// Used by tests and by `rd run --dry-run`. Nothing survives the
// process; the durability contract is trivially (vacuously) met.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/inkforge/redraft/internal/storage"
	"github.com/inkforge/redraft/internal/types"
)

// Store is an in-memory storage.Store.
type Store struct {
	mu     sync.RWMutex
	units  map[int]*types.Unit
	state  []byte // JSON-encoded, to mirror the sqlite store's copy semantics
	config map[string]string
}

var _ storage.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		units:  make(map[int]*types.Unit),
		config: make(map[string]string),
	}
}

func (s *Store) GetUnit(_ context.Context, id int) (*types.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) PutUnit(_ context.Context, id int, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.units[id]; ok {
		u.Content = content
		return nil
	}
	s.units[id] = &types.Unit{ID: id, Content: content}
	return nil
}

// PutUnitTitled seeds a unit with a title; a test convenience the
// interface does not require.
func (s *Store) PutUnitTitled(id int, title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[id] = &types.Unit{ID: id, Title: title, Content: content}
}

func (s *Store) ListUnits(_ context.Context) ([]*types.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Unit, 0, len(s.units))
	for _, u := range s.units {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetProjectState(_ context.Context) (*types.ProjectState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return types.NewProjectState(), nil
	}
	var st types.ProjectState
	if err := json.Unmarshal(s.state, &st); err != nil {
		return nil, err
	}
	st.EnsureMaps()
	return &st, nil
}

func (s *Store) PutProjectState(_ context.Context, state *types.ProjectState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = raw
	return nil
}

func (s *Store) SetConfig(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config[key] = value
	return nil
}

func (s *Store) GetConfig(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.config[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) GetAllConfig(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.config))
	for k, v := range s.config {
		out[k] = v
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inkforge/redraft/internal/storage"
	"github.com/inkforge/redraft/internal/types"
)

var _ storage.Store = (*Store)(nil)

func (s *Store) GetUnit(ctx context.Context, id int) (*types.Unit, error) {
	u := &types.Unit{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT title, content FROM units WHERE id = ?`, id,
	).Scan(&u.Title, &u.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get unit %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) PutUnit(ctx context.Context, id int, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (id, content) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content`,
		id, content)
	if err != nil {
		return fmt.Errorf("put unit %d: %w", id, err)
	}
	return nil
}

// PutUnitTitled inserts or replaces a unit including its title. Used by
// import paths; the engine itself only rewrites content.
func (s *Store) PutUnitTitled(ctx context.Context, id int, title, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (id, title, content) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, content = excluded.content`,
		id, title, content)
	if err != nil {
		return fmt.Errorf("put unit %d: %w", id, err)
	}
	return nil
}

func (s *Store) ListUnits(ctx context.Context) ([]*types.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content FROM units ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []*types.Unit
	for rows.Next() {
		u := &types.Unit{}
		if err := rows.Scan(&u.ID, &u.Title, &u.Content); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (s *Store) GetProjectState(ctx context.Context) (*types.ProjectState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM project_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NewProjectState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project state: %w", err)
	}

	state := &types.ProjectState{}
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, fmt.Errorf("decode project state: %w", err)
	}
	state.EnsureMaps()
	return state, nil
}

func (s *Store) PutProjectState(ctx context.Context, state *types.ProjectState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode project state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO project_state (id, data) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		string(raw))
	if err != nil {
		return fmt.Errorf("put project state: %w", err)
	}
	return nil
}

func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get config %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) GetAllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

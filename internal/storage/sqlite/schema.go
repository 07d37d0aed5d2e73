package sqlite

// schema is idempotent; Open applies it on every start.
const schema = `
CREATE TABLE IF NOT EXISTS units (
    id      INTEGER PRIMARY KEY,
    title   TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL
);

-- Single-row table: the engine's durable checkpoint, JSON-encoded.
CREATE TABLE IF NOT EXISTS project_state (
    id   INTEGER PRIMARY KEY CHECK (id = 1),
    data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS config (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

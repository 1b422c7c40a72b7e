package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	root_path   TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS files (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id   INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	path         TEXT NOT NULL,
	language     TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	UNIQUE(project_id, path)
);

CREATE TABLE IF NOT EXISTS connections (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	direction       TEXT NOT NULL CHECK (direction IN ('incoming', 'outgoing')),
	start_line      INTEGER NOT NULL CHECK (start_line >= 1),
	end_line        INTEGER NOT NULL CHECK (end_line >= start_line),
	code_snippet    TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	technology_name TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_connections_file ON connections(file_id);
CREATE INDEX IF NOT EXISTS idx_connections_technology ON connections(technology_name);
CREATE INDEX IF NOT EXISTS idx_connections_direction ON connections(direction);

CREATE TABLE IF NOT EXISTS connection_mappings (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	outgoing_connection_id INTEGER NOT NULL REFERENCES connections(id) ON DELETE CASCADE,
	incoming_connection_id INTEGER NOT NULL REFERENCES connections(id) ON DELETE CASCADE,
	confidence             REAL NOT NULL CHECK (confidence >= 0.0 AND confidence <= 1.0),
	technology_name        TEXT NOT NULL DEFAULT '',
	rationale              TEXT NOT NULL DEFAULT '',
	UNIQUE(outgoing_connection_id, incoming_connection_id)
);

CREATE TABLE IF NOT EXISTS checkpoint_rows (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id   INTEGER NOT NULL,
	file_path    TEXT NOT NULL,
	change_kind  TEXT NOT NULL CHECK (change_kind IN ('added', 'modified', 'deleted')),
	old_content  TEXT,
	new_content  TEXT,
	created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_checkpoint_project_path ON checkpoint_rows(project_id, file_path);
`

// migrate creates the schema if it does not already exist. There is no
// version table: every statement is idempotent (CREATE TABLE/INDEX IF
// NOT EXISTS), matching the teacher store's migration style for a
// single-binary tool with no separate migration tool.
func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(schemaSQL)
	return err
}

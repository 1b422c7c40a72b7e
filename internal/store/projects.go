package store

import (
	"database/sql"
	"fmt"

	"codenerd/internal/graph"
)

// UpsertProject creates the project row if it does not exist (keyed by
// root_path) and otherwise leaves it untouched — Projects are created
// once and never mutated by the core, per §3.
func (t *Tx) UpsertProject(p graph.Project) (int64, error) {
	_, err := t.tx.Exec(
		`INSERT INTO projects (name, root_path, description) VALUES (?, ?, ?)
		 ON CONFLICT(root_path) DO NOTHING`,
		p.Name, p.RootPath, p.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert project: %w", err)
	}
	var id int64
	if err := t.tx.QueryRow(`SELECT id FROM projects WHERE root_path = ?`, p.RootPath).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup project id: %w", err)
	}
	return id, nil
}

// ProjectDescription implements the read-only project-description
// lookup named in §6 as an inbound external interface, backed directly
// by the projects table rather than a separate subsystem.
func (s *Store) ProjectDescription(projectID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var desc string
	err := s.db.QueryRow(`SELECT description FROM projects WHERE id = ?`, projectID).Scan(&desc)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("project description: %w", err)
	}
	return desc, nil
}

// ProjectByRootPath looks up a project's id by root path, or ok=false if
// it has not been created yet.
func (s *Store) ProjectByRootPath(rootPath string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var id int64
	err := s.db.QueryRow(`SELECT id FROM projects WHERE root_path = ?`, rootPath).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("project by root path: %w", err)
	}
	return id, true, nil
}

// ProjectIDs returns every project id currently in the store.
func (s *Store) ProjectIDs() ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("list project ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"

	"codenerd/internal/graph"
)

// UpsertFile inserts or updates a file row for (project_id, path),
// returning its id.
func (t *Tx) UpsertFile(f graph.File) (int64, error) {
	_, err := t.tx.Exec(
		`INSERT INTO files (project_id, path, language, content_hash) VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id, path) DO UPDATE SET
		   language = excluded.language,
		   content_hash = excluded.content_hash`,
		f.ProjectID, f.Path, f.Language, f.ContentHash,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert file: %w", err)
	}
	var id int64
	if err := t.tx.QueryRow(
		`SELECT id FROM files WHERE project_id = ? AND path = ?`, f.ProjectID, f.Path,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup file id: %w", err)
	}
	return id, nil
}

// DeleteFile removes the file row. Every Connection anchored in it, and
// every ConnectionMapping referencing one of those connections, cascades
// away via the foreign key chain (files -> connections -> mappings),
// satisfying P2/P3 for deleted files.
func (t *Tx) DeleteFile(fileID int64) error {
	if _, err := t.tx.Exec(`DELETE FROM files WHERE id = ?`, fileID); err != nil {
		return fmt.Errorf("delete file %d: %w", fileID, err)
	}
	return nil
}

// FileByPath looks up a file's id and content hash within a project.
func (s *Store) FileByPath(projectID int64, path string) (graph.File, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var f graph.File
	err := s.db.QueryRow(
		`SELECT id, project_id, path, language, content_hash FROM files WHERE project_id = ? AND path = ?`,
		projectID, path,
	).Scan(&f.ID, &f.ProjectID, &f.Path, &f.Language, &f.ContentHash)
	if err == sql.ErrNoRows {
		return graph.File{}, false, nil
	}
	if err != nil {
		return graph.File{}, false, fmt.Errorf("file by path: %w", err)
	}
	return f, true, nil
}

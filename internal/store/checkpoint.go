package store

import (
	"fmt"

	"codenerd/internal/graph"
)

// CheckpointRowsForProject returns every unprocessed checkpoint row for a
// project, ordered by id (checkpoint append order), for the Checkpoint
// Loader (C2) to coalesce per §3.
func (s *Store) CheckpointRowsForProject(projectID int64) ([]graph.CheckpointRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, project_id, file_path, change_kind, old_content, new_content, CAST(strftime('%s', created_at) AS INTEGER) * 1000000000
		 FROM checkpoint_rows WHERE project_id = ? ORDER BY id ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkpoint rows: %w", err)
	}
	defer rows.Close()

	var out []graph.CheckpointRow
	for rows.Next() {
		var r graph.CheckpointRow
		var changeKind string
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.FilePath, &changeKind, &r.OldContent, &r.NewContent, &r.CreatedAtNS); err != nil {
			return nil, fmt.Errorf("scan checkpoint row: %w", err)
		}
		r.ChangeKind = graph.ChangeKind(changeKind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertCheckpointRow appends a new checkpoint row. Exposed for tests and
// for any external writer feeding the checkpoint queue (§3 treats the
// checkpoint writer as out of scope for this engine).
func (t *Tx) InsertCheckpointRow(r graph.CheckpointRow) (int64, error) {
	res, err := t.tx.Exec(
		`INSERT INTO checkpoint_rows (project_id, file_path, change_kind, old_content, new_content) VALUES (?, ?, ?, ?, ?)`,
		r.ProjectID, r.FilePath, string(r.ChangeKind), r.OldContent, r.NewContent,
	)
	if err != nil {
		return 0, fmt.Errorf("insert checkpoint row: %w", err)
	}
	return res.LastInsertId()
}

// DeleteCheckpointRows removes checkpoint rows by id, once their changes
// have been durably folded into the committed run (§4.8: rows are only
// deleted after the run-scoped transaction commits successfully).
func (t *Tx) DeleteCheckpointRows(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}
	query := fmt.Sprintf(`DELETE FROM checkpoint_rows WHERE id IN (%s)`, string(placeholders))
	if _, err := t.tx.Exec(query, args...); err != nil {
		return fmt.Errorf("delete checkpoint rows: %w", err)
	}
	return nil
}

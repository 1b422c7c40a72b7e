package store

import (
	"fmt"

	"codenerd/internal/graph"
)

// ConnectionsByFile returns every connection anchored in fileID, ordered
// by ascending id — the Reconciler applies updates in this order (§5).
func (s *Store) ConnectionsByFile(fileID int64) ([]graph.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryConnections(s.db, `SELECT c.id, c.file_id, f.project_id, c.direction, c.start_line, c.end_line, c.code_snippet, c.description, c.technology_name
		FROM connections c
		JOIN files f ON f.id = c.file_id
		WHERE c.file_id = ? ORDER BY c.id ASC`, fileID)
}

// ConnectionsForProjects returns every connection belonging to a file in
// one of the given projects, used by the Cross-Project Matcher (§4.7).
func (s *Store) ConnectionsForProjects(projectIDs []int64) ([]graph.Connection, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := make([]byte, 0, len(projectIDs)*2)
	args := make([]interface{}, 0, len(projectIDs))
	for i, id := range projectIDs {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}

	query := fmt.Sprintf(`SELECT c.id, c.file_id, f.project_id, c.direction, c.start_line, c.end_line, c.code_snippet, c.description, c.technology_name
		FROM connections c
		JOIN files f ON f.id = c.file_id
		WHERE f.project_id IN (%s)
		ORDER BY c.id ASC`, string(placeholders))

	return queryConnections(s.db, query, args...)
}

func queryConnections(q execer, query string, args ...interface{}) ([]graph.Connection, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	var out []graph.Connection
	for rows.Next() {
		var c graph.Connection
		var direction string
		if err := rows.Scan(&c.ID, &c.FileID, &c.ProjectID, &direction, &c.StartLine, &c.EndLine, &c.CodeSnippet, &c.Description, &c.TechnologyName); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		c.Direction = graph.Direction(direction)
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertConnection inserts a new connection row produced by the
// Splitter. c.ProjectID is not a column (it's derived from file_id via
// the files join on read) and is ignored here. It never reuses the id
// of a previously deleted connection (SQLite's AUTOINCREMENT
// guarantees this), per §4.6.
func (t *Tx) InsertConnection(c graph.Connection) (int64, error) {
	res, err := t.tx.Exec(
		`INSERT INTO connections (file_id, direction, start_line, end_line, code_snippet, description, technology_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.FileID, string(c.Direction), c.StartLine, c.EndLine, c.CodeSnippet, c.Description, c.TechnologyName,
	)
	if err != nil {
		return 0, fmt.Errorf("insert connection: %w", err)
	}
	return res.LastInsertId()
}

// UpdateConnectionLineRange updates a survive-shift connection's line
// range (Reconciler Case 4).
func (t *Tx) UpdateConnectionLineRange(id int64, startLine, endLine int) error {
	_, err := t.tx.Exec(`UPDATE connections SET start_line = ?, end_line = ? WHERE id = ?`, startLine, endLine, id)
	if err != nil {
		return fmt.Errorf("update connection %d line range: %w", id, err)
	}
	return nil
}

// UpdateConnectionSnippet refreshes a survive-shift connection's
// code_snippet from the new file content (Reconciler Case 4).
func (t *Tx) UpdateConnectionSnippet(id int64, snippet string) error {
	_, err := t.tx.Exec(`UPDATE connections SET code_snippet = ? WHERE id = ?`, snippet, id)
	if err != nil {
		return fmt.Errorf("update connection %d snippet: %w", id, err)
	}
	return nil
}

// UpdateConnectionDescription replaces a connection's description and
// technology_name. Exposed per the C1 contract in §4.1; the core never
// calls this on a connection the Splitter has not just produced (I3).
func (t *Tx) UpdateConnectionDescription(id int64, description, technologyName string) error {
	_, err := t.tx.Exec(`UPDATE connections SET description = ?, technology_name = ? WHERE id = ?`, description, technologyName, id)
	if err != nil {
		return fmt.Errorf("update connection %d description: %w", id, err)
	}
	return nil
}

// DeleteConnection removes a connection. Every ConnectionMapping
// referencing it as either endpoint cascades away via the foreign key,
// satisfying P3.
func (t *Tx) DeleteConnection(id int64) error {
	if _, err := t.tx.Exec(`DELETE FROM connections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete connection %d: %w", id, err)
	}
	return nil
}

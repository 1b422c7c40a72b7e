package store

import (
	"fmt"

	"codenerd/internal/graph"
)

// InsertMapping records a cross-project connection mapping produced by
// the Matcher (C7). ON CONFLICT DO UPDATE keeps re-matching idempotent
// (L4): re-running the Matcher over an unchanged pair of connections
// converges to the same confidence/rationale rather than duplicating
// rows.
func (t *Tx) InsertMapping(m graph.ConnectionMapping) (int64, error) {
	_, err := t.tx.Exec(
		`INSERT INTO connection_mappings (outgoing_connection_id, incoming_connection_id, confidence, technology_name, rationale)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(outgoing_connection_id, incoming_connection_id) DO UPDATE SET
		   confidence = excluded.confidence,
		   technology_name = excluded.technology_name,
		   rationale = excluded.rationale`,
		m.OutgoingConnectionID, m.IncomingConnectionID, m.Confidence, m.TechnologyName, m.Rationale,
	)
	if err != nil {
		return 0, fmt.Errorf("insert connection mapping: %w", err)
	}
	var id int64
	if err := t.tx.QueryRow(
		`SELECT id FROM connection_mappings WHERE outgoing_connection_id = ? AND incoming_connection_id = ?`,
		m.OutgoingConnectionID, m.IncomingConnectionID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup connection mapping id: %w", err)
	}
	return id, nil
}

// MappingsForConnection returns every mapping where connectionID is
// either endpoint, ordered by id for stable presentation.
func (s *Store) MappingsForConnection(connectionID int64) ([]graph.ConnectionMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, outgoing_connection_id, incoming_connection_id, confidence, technology_name, rationale
		 FROM connection_mappings
		 WHERE outgoing_connection_id = ? OR incoming_connection_id = ?
		 ORDER BY id ASC`,
		connectionID, connectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list connection mappings: %w", err)
	}
	defer rows.Close()

	var out []graph.ConnectionMapping
	for rows.Next() {
		var m graph.ConnectionMapping
		if err := rows.Scan(&m.ID, &m.OutgoingConnectionID, &m.IncomingConnectionID, &m.Confidence, &m.TechnologyName, &m.Rationale); err != nil {
			return nil, fmt.Errorf("scan connection mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

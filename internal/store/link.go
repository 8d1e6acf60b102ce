package store

// AddLink records a directed edge between two Expressions of the same
// Land. Idempotent: re-adding an existing edge is a no-op. Callers are
// responsible for enforcing the same-Land constraint (invariant 8); the
// unique index catches duplicate edges, not cross-Land ones.
func (s *Store) AddLink(sourceID, targetID int64) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO expression_links(source_id, target_id) VALUES (?, ?)",
		sourceID, targetID,
	)
	return err
}

// Outlinks returns the target Expression IDs linked from sourceID.
func (s *Store) Outlinks(sourceID int64) ([]int64, error) {
	rows, err := s.db.Query("SELECT target_id FROM expression_links WHERE source_id = ?", sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Inlinks returns the source Expression IDs linking to targetID.
func (s *Store) Inlinks(targetID int64) ([]int64, error) {
	rows, err := s.db.Query("SELECT source_id FROM expression_links WHERE target_id = ?", targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

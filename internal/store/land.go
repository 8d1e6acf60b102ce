package store

import (
	"database/sql"
	"fmt"
	"time"

	"mwi/internal/logging"
	"mwi/internal/model"
)

// CreateLand creates a new Land. Returns ErrConflict if the name is taken.
func (s *Store) CreateLand(name, description, lang string) (*model.Land, error) {
	if lang == "" {
		lang = "fr"
	}
	res, err := s.db.Exec(
		"INSERT INTO lands(name, description, lang, created_at) VALUES (?, ?, ?, ?)",
		name, description, lang, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	logging.Store("created land %q (id=%d, lang=%s)", name, id, lang)
	return s.GetLand(name)
}

// GetLand fetches a Land by name. Returns ErrNotFound if absent.
func (s *Store) GetLand(name string) (*model.Land, error) {
	row := s.db.QueryRow("SELECT id, name, description, lang, created_at FROM lands WHERE name = ?", name)
	l := &model.Land{}
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Lang, &l.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// GetLandByID fetches a Land by primary key.
func (s *Store) GetLandByID(id int64) (*model.Land, error) {
	row := s.db.QueryRow("SELECT id, name, description, lang, created_at FROM lands WHERE id = ?", id)
	l := &model.Land{}
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Lang, &l.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// ListLands returns all Lands, optionally filtered by exact name.
func (s *Store) ListLands(name string) ([]*model.Land, error) {
	query := "SELECT id, name, description, lang, created_at FROM lands"
	args := []interface{}{}
	if name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Land
	for rows.Next() {
		l := &model.Land{}
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Lang, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteLand removes a Land and cascades to its Expressions, their
// ExpressionLinks, Media, and TaggedContent per invariant 7. Word and
// Domain rows survive. If maxRelevance is non-nil, only Expressions with
// relevance strictly below it are deleted, and the Land row and its
// dictionary are kept even when no Expression survives the filter.
func (s *Store) DeleteLand(name string, maxRelevance *float64) error {
	land, err := s.GetLand(name)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exprQuery string
	var args []interface{}
	if maxRelevance != nil {
		exprQuery = "SELECT id FROM expressions WHERE land_id = ? AND relevance < ?"
		args = []interface{}{land.ID, *maxRelevance}
	} else {
		exprQuery = "SELECT id FROM expressions WHERE land_id = ?"
		args = []interface{}{land.ID}
	}

	rows, err := tx.Query(exprQuery, args...)
	if err != nil {
		return err
	}
	var exprIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		exprIDs = append(exprIDs, id)
	}
	rows.Close()

	for _, id := range exprIDs {
		if _, err := tx.Exec("DELETE FROM tagged_content WHERE expression_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM media WHERE expression_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM expression_links WHERE source_id = ? OR target_id = ?", id, id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM expressions WHERE id = ?", id); err != nil {
			return err
		}
	}

	if maxRelevance == nil {
		if _, err := tx.Exec("DELETE FROM land_dictionary WHERE land_id = ?", land.ID); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM lands WHERE id = ?", land.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logging.Store("deleted land %q: %d expressions removed", name, len(exprIDs))
	return nil
}

// DeleteExpressions removes Expressions from a Land matching an
// application-level predicate, cascading to their links/media/tagged
// content. The `land delete --maxrel` verb does not use it; it goes
// through DeleteLand with a relevance bound.
func (s *Store) DeleteExpressions(landID int64, predicate func(*model.Expression) bool) (int, error) {
	exprs, err := s.ListExpressions(ExpressionFilter{LandID: landID})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range exprs {
		if predicate != nil && !predicate(e) {
			continue
		}
		if err := s.deleteExpression(e.ID); err != nil {
			return count, fmt.Errorf("delete expression %d: %w", e.ID, err)
		}
		count++
	}
	return count, nil
}

func (s *Store) deleteExpression(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM tagged_content WHERE expression_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM media WHERE expression_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM expression_links WHERE source_id = ? OR target_id = ?", id, id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM expressions WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

package store

import (
	"database/sql"
	"time"

	"mwi/internal/model"
)

// ExpressionFilter narrows ListExpressions results. Zero values are
// unconstrained except LandID, which is always required.
type ExpressionFilter struct {
	LandID       int64
	MinRelevance *int
	Unfetched    bool // FetchedAt IS NULL
	Unreadable   bool // ReadableAt IS NULL, FetchedAt IS NOT NULL
	HasNoDomain  bool
	MaxDepth     *int
	HTTPStatus   string // exact match against http_status, e.g. re-crawling "000"/"404"
}

// UpsertExpression inserts a new Expression row keyed on (land_id, url), or
// returns the existing row if present. The depth of an existing row is
// NEVER raised by this call: a page discovered first at depth 1 and
// rediscovered later at depth 3 keeps depth 1, per the shortest-path
// invariant. Callers that need to lower depth on rediscovery should compare
// the returned Expression's Depth and call SaveExpression explicitly.
func (s *Store) UpsertExpression(landID int64, url string, depth int) (*model.Expression, error) {
	existing, err := s.GetExpressionByURL(landID, url)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	res, err := s.db.Exec(
		`INSERT INTO expressions(land_id, url, depth, created_at) VALUES (?, ?, ?, ?)`,
		landID, url, depth, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent discovery of the same URL.
			return s.GetExpressionByURL(landID, url)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetExpression(id)
}

// SaveExpression persists the full mutable field set of an Expression: the
// content pipeline's scalar fields, relevance, and the fetched/approved/
// readable timestamps. ID and LandID are immutable after creation.
func (s *Store) SaveExpression(e *model.Expression) error {
	_, err := s.db.Exec(`
		UPDATE expressions SET
			url = ?, depth = ?, lang = ?, title = ?, description = ?, keywords = ?,
			author = ?, published_at = ?, html = ?, readable = ?, relevance = ?,
			domain_id = ?, http_status = ?, fetched_at = ?, approved_at = ?, readable_at = ?
		WHERE id = ?
	`,
		e.URL, e.Depth, e.Lang, e.Title, e.Description, e.Keywords,
		e.Author, e.PublishedAt, e.HTML, e.Readable, e.Relevance,
		nullableID(e.DomainID), e.HTTPStatus, e.FetchedAt, e.ApprovedAt, e.ReadableAt,
		e.ID,
	)
	return err
}

// GetExpression fetches an Expression by primary key.
func (s *Store) GetExpression(id int64) (*model.Expression, error) {
	row := s.db.QueryRow(expressionSelect+" WHERE id = ?", id)
	return scanExpression(row)
}

// GetExpressionByURL fetches an Expression by its (land_id, url) key.
func (s *Store) GetExpressionByURL(landID int64, url string) (*model.Expression, error) {
	row := s.db.QueryRow(expressionSelect+" WHERE land_id = ? AND url = ?", landID, url)
	return scanExpression(row)
}

// ListExpressions returns Expressions in a Land matching filter.
func (s *Store) ListExpressions(filter ExpressionFilter) ([]*model.Expression, error) {
	query := expressionSelect + " WHERE land_id = ?"
	args := []interface{}{filter.LandID}

	if filter.MinRelevance != nil {
		query += " AND relevance >= ?"
		args = append(args, *filter.MinRelevance)
	}
	if filter.Unfetched {
		query += " AND fetched_at IS NULL"
	}
	if filter.Unreadable {
		query += " AND fetched_at IS NOT NULL AND readable_at IS NULL"
	}
	if filter.HasNoDomain {
		query += " AND domain_id IS NULL"
	}
	if filter.MaxDepth != nil {
		query += " AND depth <= ?"
		args = append(args, *filter.MaxDepth)
	}
	if filter.HTTPStatus != "" {
		query += " AND http_status = ?"
		args = append(args, filter.HTTPStatus)
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Expression
	for rows.Next() {
		e, err := scanExpressionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const expressionSelect = `
	SELECT id, land_id, url, depth, lang, title, description, keywords, author,
	       published_at, html, readable, relevance, domain_id, http_status,
	       created_at, fetched_at, approved_at, readable_at
	FROM expressions
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpression(row *sql.Row) (*model.Expression, error) {
	e, err := scanExpressionInto(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return e, err
}

func scanExpressionRows(rows *sql.Rows) (*model.Expression, error) {
	return scanExpressionInto(rows)
}

func scanExpressionInto(sc scanner) (*model.Expression, error) {
	e := &model.Expression{}
	var domainID sql.NullInt64
	err := sc.Scan(
		&e.ID, &e.LandID, &e.URL, &e.Depth, &e.Lang, &e.Title, &e.Description, &e.Keywords, &e.Author,
		&e.PublishedAt, &e.HTML, &e.Readable, &e.Relevance, &domainID, &e.HTTPStatus,
		&e.CreatedAt, &e.FetchedAt, &e.ApprovedAt, &e.ReadableAt,
	)
	if err != nil {
		return nil, err
	}
	if domainID.Valid {
		e.DomainID = domainID.Int64
	}
	return e, nil
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

package store

import (
	"database/sql"

	"mwi/internal/model"
)

// GetOrCreateDomain returns the Domain row for host, creating an empty one
// if absent. The domain enricher (§4.9) fills in the remaining fields
// later via SaveDomain.
func (s *Store) GetOrCreateDomain(host string) (*model.Domain, error) {
	d, err := s.getDomain(host)
	if err == nil {
		return d, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	res, err := s.db.Exec("INSERT INTO domains(name) VALUES (?)", host)
	if err != nil {
		if isUniqueViolation(err) {
			return s.getDomain(host)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Domain{ID: id, Name: host}, nil
}

func (s *Store) getDomain(host string) (*model.Domain, error) {
	row := s.db.QueryRow(
		"SELECT id, name, fetched_at, http_status, title, keywords, description FROM domains WHERE name = ?",
		host,
	)
	return scanDomain(row)
}

// GetDomain fetches a Domain by primary key.
func (s *Store) GetDomain(id int64) (*model.Domain, error) {
	row := s.db.QueryRow(
		"SELECT id, name, fetched_at, http_status, title, keywords, description FROM domains WHERE id = ?",
		id,
	)
	return scanDomain(row)
}

// SaveDomain persists the enrichment fields of a Domain.
func (s *Store) SaveDomain(d *model.Domain) error {
	_, err := s.db.Exec(
		"UPDATE domains SET fetched_at = ?, http_status = ?, title = ?, keywords = ?, description = ? WHERE id = ?",
		d.FetchedAt, d.HTTPStatus, d.Title, d.Keywords, d.Description, d.ID,
	)
	return err
}

// ListDomains returns all Domains, optionally restricted to those never
// fetched or matching an exact http_status (used by the `domain crawl`
// verb's --http re-run filter).
func (s *Store) ListDomains(unfetchedOnly bool, httpStatus string) ([]*model.Domain, error) {
	query := "SELECT id, name, fetched_at, http_status, title, keywords, description FROM domains"
	var args []interface{}
	switch {
	case unfetchedOnly:
		query += " WHERE fetched_at IS NULL"
	case httpStatus != "":
		query += " WHERE http_status = ?"
		args = append(args, httpStatus)
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Domain
	for rows.Next() {
		d, err := scanDomainRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDomain(row *sql.Row) (*model.Domain, error) {
	d, err := scanDomainInto(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}

func scanDomainRows(rows *sql.Rows) (*model.Domain, error) {
	return scanDomainInto(rows)
}

func scanDomainInto(sc scanner) (*model.Domain, error) {
	d := &model.Domain{}
	if err := sc.Scan(&d.ID, &d.Name, &d.FetchedAt, &d.HTTPStatus, &d.Title, &d.Keywords, &d.Description); err != nil {
		return nil, err
	}
	return d, nil
}

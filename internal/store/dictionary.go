package store

import (
	"database/sql"

	"mwi/internal/logging"
	"mwi/internal/model"
)

// AddWordIfAbsent inserts a Word keyed by its surface term, or returns the
// existing row untouched. Terms are global across Lands; only the
// Land-to-Word association in land_dictionary is Land-scoped.
func (s *Store) AddWordIfAbsent(term, lemma string) (*model.Word, error) {
	row := s.db.QueryRow("SELECT id, term, lemma FROM words WHERE term = ?", term)
	w := &model.Word{}
	err := row.Scan(&w.ID, &w.Term, &w.Lemma)
	if err == nil {
		return w, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	res, err := s.db.Exec("INSERT INTO words(term, lemma) VALUES (?, ?)", term, lemma)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent insert; re-select per §4.1.
			return s.AddWordIfAbsent(term, lemma)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Word{ID: id, Term: term, Lemma: lemma}, nil
}

// LinkLandWord associates a Word with a Land's dictionary. Idempotent.
func (s *Store) LinkLandWord(landID, wordID int64) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO land_dictionary(land_id, word_id) VALUES (?, ?)",
		landID, wordID,
	)
	return err
}

// Dictionary returns the distinct lemmas registered against a Land, the
// snapshot the relevance scorer consumes for a crawl run.
func (s *Store) Dictionary(landID int64) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT w.lemma
		FROM words w
		JOIN land_dictionary ld ON ld.word_id = w.id
		WHERE ld.land_id = ?
		ORDER BY w.lemma
	`, landID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lemmas []string
	for rows.Next() {
		var lemma string
		if err := rows.Scan(&lemma); err != nil {
			return nil, err
		}
		lemmas = append(lemmas, lemma)
	}
	return lemmas, rows.Err()
}

// AddTerm registers a term with the caller-supplied lemma against a Land's
// dictionary in one step. It does no tokenizing or stemming itself: the
// caller computes lemma, so store stays free of tokenization concerns.
func (s *Store) AddTerm(landID int64, term, lemma string) error {
	w, err := s.AddWordIfAbsent(term, lemma)
	if err != nil {
		return err
	}
	if err := s.LinkLandWord(landID, w.ID); err != nil {
		return err
	}
	logging.StoreDebug("land %d: registered term %q (lemma=%q)", landID, term, lemma)
	return nil
}

package store

import (
	"database/sql"
	"fmt"

	"mwi/internal/logging"
)

// CurrentSchemaVersion tracks the schema shape.
// v1: initial Land/Word/LandDictionary/Domain/Expression/ExpressionLink/Media tables.
const CurrentSchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS lands (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	lang        TEXT NOT NULL DEFAULT 'fr',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS words (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	term  TEXT NOT NULL UNIQUE,
	lemma TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_words_lemma ON words(lemma);

CREATE TABLE IF NOT EXISTS land_dictionary (
	land_id INTEGER NOT NULL REFERENCES lands(id),
	word_id INTEGER NOT NULL REFERENCES words(id),
	PRIMARY KEY (land_id, word_id)
);

CREATE TABLE IF NOT EXISTS domains (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	fetched_at  DATETIME,
	http_status TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	keywords    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS expressions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	land_id      INTEGER NOT NULL REFERENCES lands(id),
	url          TEXT NOT NULL,
	depth        INTEGER NOT NULL DEFAULT 0,
	lang         TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	keywords     TEXT NOT NULL DEFAULT '',
	author       TEXT NOT NULL DEFAULT '',
	published_at DATETIME,
	html         TEXT NOT NULL DEFAULT '',
	readable     TEXT NOT NULL DEFAULT '',
	relevance    INTEGER NOT NULL DEFAULT 0,
	domain_id    INTEGER REFERENCES domains(id),
	http_status  TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	fetched_at   DATETIME,
	approved_at  DATETIME,
	readable_at  DATETIME,
	UNIQUE(land_id, url)
);
CREATE INDEX IF NOT EXISTS idx_expressions_land ON expressions(land_id);
CREATE INDEX IF NOT EXISTS idx_expressions_domain ON expressions(domain_id);

CREATE TABLE IF NOT EXISTS expression_links (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id INTEGER NOT NULL REFERENCES expressions(id),
	target_id INTEGER NOT NULL REFERENCES expressions(id),
	UNIQUE(source_id, target_id)
);

CREATE TABLE IF NOT EXISTS media (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	expression_id     INTEGER NOT NULL REFERENCES expressions(id),
	url               TEXT NOT NULL,
	kind              TEXT NOT NULL,
	width             INTEGER NOT NULL DEFAULT 0,
	height            INTEGER NOT NULL DEFAULT 0,
	file_size         INTEGER NOT NULL DEFAULT 0,
	format            TEXT NOT NULL DEFAULT '',
	color_mode        TEXT NOT NULL DEFAULT '',
	dominant_colors   TEXT NOT NULL DEFAULT '',
	aspect_ratio      REAL NOT NULL DEFAULT 0,
	has_transparency  INTEGER NOT NULL DEFAULT 0,
	exif              TEXT NOT NULL DEFAULT '',
	perceptual_hash   TEXT NOT NULL DEFAULT '',
	web_safe_palette  TEXT NOT NULL DEFAULT '',
	content_tags      TEXT NOT NULL DEFAULT '',
	nsfw_score        REAL NOT NULL DEFAULT 0,
	analyzed_at       DATETIME,
	analysis_error    TEXT NOT NULL DEFAULT '',
	UNIQUE(expression_id, url, kind)
);

CREATE TABLE IF NOT EXISTS tagged_content (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	expression_id INTEGER NOT NULL REFERENCES expressions(id),
	tag_id        INTEGER NOT NULL,
	text          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);
`

// migrate creates the schema if absent and brings an existing database up
// to CurrentSchemaVersion via additive ALTER TABLE steps, the way the
// teacher's pendingMigrations list does.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaV1); err != nil {
		return fmt.Errorf("failed to apply base schema: %w", err)
	}

	version, err := s.schemaVersion()
	if err != nil {
		return err
	}
	if version == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_meta(version) VALUES (?)", CurrentSchemaVersion); err != nil {
			return err
		}
		logging.StoreDebug("schema initialized at version %d", CurrentSchemaVersion)
		return nil
	}

	for _, m := range pendingMigrations {
		if version >= m.MinVersion {
			continue
		}
		if !s.hasColumn(m.Table, m.Column) {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("migration %s.%s failed: %w", m.Table, m.Column, err)
			}
		}
	}

	if version < CurrentSchemaVersion {
		if _, err := s.db.Exec("UPDATE schema_meta SET version = ?", CurrentSchemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// migration describes an additive schema change guarded by column presence.
type migration struct {
	MinVersion int
	Table      string
	Column     string
	Def        string
}

// pendingMigrations lists additive schema changes applied to older
// databases that already have the base tables.
var pendingMigrations = []migration{}

func (s *Store) schemaVersion() (int, error) {
	row := s.db.QueryRow("SELECT version FROM schema_meta LIMIT 1")
	var v int
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

func (s *Store) hasColumn(table, column string) bool {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}

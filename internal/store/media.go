package store

import (
	"database/sql"
	"encoding/json"

	"mwi/internal/model"
)

// UpsertMedia inserts a Media reference keyed on (expression_id, url,
// kind), or returns the existing row untouched. Analysis fields are filled
// in later via SaveMedia.
func (s *Store) UpsertMedia(expressionID int64, url string, kind model.MediaKind) (*model.Media, error) {
	existing, err := s.getMedia(expressionID, url, kind)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	res, err := s.db.Exec(
		"INSERT INTO media(expression_id, url, kind) VALUES (?, ?, ?)",
		expressionID, url, string(kind),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return s.getMedia(expressionID, url, kind)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Media{ID: id, ExpressionID: expressionID, URL: url, Kind: kind}, nil
}

func (s *Store) getMedia(expressionID int64, url string, kind model.MediaKind) (*model.Media, error) {
	row := s.db.QueryRow(mediaSelect+" WHERE expression_id = ? AND url = ? AND kind = ?", expressionID, url, string(kind))
	return scanMedia(row)
}

// GetMediaByID fetches a Media row by primary key.
func (s *Store) GetMediaByID(id int64) (*model.Media, error) {
	row := s.db.QueryRow(mediaSelect+" WHERE id = ?", id)
	return scanMedia(row)
}

// ListMedia returns Media rows for an Expression, optionally restricted to
// those not yet analyzed.
func (s *Store) ListMedia(expressionID int64, unanalyzedOnly bool) ([]*model.Media, error) {
	query := mediaSelect + " WHERE expression_id = ?"
	if unanalyzedOnly {
		query += " AND analyzed_at IS NULL"
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, expressionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Media
	for rows.Next() {
		m, err := scanMediaRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveMedia persists the full analysis field set of a Media row.
func (s *Store) SaveMedia(m *model.Media) error {
	colors, err := json.Marshal(m.DominantColors)
	if err != nil {
		return err
	}
	exif, err := json.Marshal(m.EXIF)
	if err != nil {
		return err
	}
	palette, err := json.Marshal(m.WebSafePalette)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(m.ContentTags)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		UPDATE media SET
			width = ?, height = ?, file_size = ?, format = ?, color_mode = ?,
			dominant_colors = ?, aspect_ratio = ?, has_transparency = ?, exif = ?,
			perceptual_hash = ?, web_safe_palette = ?, content_tags = ?, nsfw_score = ?,
			analyzed_at = ?, analysis_error = ?
		WHERE id = ?
	`,
		m.Width, m.Height, m.FileSize, m.Format, m.ColorMode,
		string(colors), m.AspectRatio, boolToInt(m.HasTransparency), string(exif),
		m.PerceptualHash, string(palette), string(tags), m.NSFWScore,
		m.AnalyzedAt, m.AnalysisError, m.ID,
	)
	return err
}

// DeleteMedia removes a Media row by primary key.
func (s *Store) DeleteMedia(id int64) error {
	_, err := s.db.Exec("DELETE FROM media WHERE id = ?", id)
	return err
}

const mediaSelect = `
	SELECT id, expression_id, url, kind, width, height, file_size, format, color_mode,
	       dominant_colors, aspect_ratio, has_transparency, exif, perceptual_hash,
	       web_safe_palette, content_tags, nsfw_score, analyzed_at, analysis_error
	FROM media
`

func scanMedia(row *sql.Row) (*model.Media, error) {
	m, err := scanMediaInto(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

func scanMediaRows(rows *sql.Rows) (*model.Media, error) {
	return scanMediaInto(rows)
}

func scanMediaInto(sc scanner) (*model.Media, error) {
	m := &model.Media{}
	var kind string
	var colors, exif, palette, tags string
	var hasTransparency int
	err := sc.Scan(
		&m.ID, &m.ExpressionID, &m.URL, &kind, &m.Width, &m.Height, &m.FileSize, &m.Format, &m.ColorMode,
		&colors, &m.AspectRatio, &hasTransparency, &exif, &m.PerceptualHash,
		&palette, &tags, &m.NSFWScore, &m.AnalyzedAt, &m.AnalysisError,
	)
	if err != nil {
		return nil, err
	}
	m.Kind = model.MediaKind(kind)
	m.HasTransparency = hasTransparency != 0

	if colors != "" {
		if err := json.Unmarshal([]byte(colors), &m.DominantColors); err != nil {
			return nil, err
		}
	}
	if exif != "" {
		if err := json.Unmarshal([]byte(exif), &m.EXIF); err != nil {
			return nil, err
		}
	}
	if palette != "" {
		if err := json.Unmarshal([]byte(palette), &m.WebSafePalette); err != nil {
			return nil, err
		}
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &m.ContentTags); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

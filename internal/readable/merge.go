package readable

import "mwi/internal/model"

// MergeStrategy names one of the configured field-combination policies.
type MergeStrategy string

const (
	MergeMercuryPriority  MergeStrategy = "mercury_priority"
	MergePreserveExisting MergeStrategy = "preserve_existing"
	MergeSmart            MergeStrategy = "smart_merge"
)

// Merge applies strategy to combine an Extraction with the stored
// Expression, mutating expr in place, and reports whether any field
// actually changed.
func Merge(expr *model.Expression, ex *Extraction, strategy MergeStrategy) bool {
	switch strategy {
	case MergeMercuryPriority:
		return mergeMercuryPriority(expr, ex)
	case MergePreserveExisting:
		return mergePreserveExisting(expr, ex)
	default:
		return mergeSmart(expr, ex)
	}
}

func mergeMercuryPriority(expr *model.Expression, ex *Extraction) bool {
	changed := false
	changed = setIfNonEmpty(&expr.Title, ex.Title) || changed
	changed = setIfNonEmpty(&expr.Readable, ex.Markdown) || changed
	changed = setIfNonEmpty(&expr.Description, ex.Excerpt) || changed
	changed = setIfNonEmpty(&expr.Author, ex.Author) || changed
	changed = setIfNonEmpty(&expr.Lang, ex.Lang) || changed
	if ex.PublishedAt != nil {
		expr.PublishedAt = ex.PublishedAt
		changed = true
	}
	return changed
}

func mergePreserveExisting(expr *model.Expression, ex *Extraction) bool {
	changed := false
	changed = fillIfEmpty(&expr.Title, ex.Title) || changed
	changed = fillIfEmpty(&expr.Readable, ex.Markdown) || changed
	changed = fillIfEmpty(&expr.Description, ex.Excerpt) || changed
	changed = fillIfEmpty(&expr.Author, ex.Author) || changed
	changed = fillIfEmpty(&expr.Lang, ex.Lang) || changed
	if expr.PublishedAt == nil && ex.PublishedAt != nil {
		expr.PublishedAt = ex.PublishedAt
		changed = true
	}
	return changed
}

// mergeSmart is the default per-field policy: title chooses the longer
// string, readable always takes the extractor's value, description takes
// the longer of the two, and dates/author/language fill only when the
// stored value is empty.
func mergeSmart(expr *model.Expression, ex *Extraction) bool {
	changed := false
	changed = chooseLonger(&expr.Title, ex.Title) || changed
	changed = setIfNonEmpty(&expr.Readable, ex.Markdown) || changed
	changed = chooseLonger(&expr.Description, ex.Excerpt) || changed
	changed = fillIfEmpty(&expr.Author, ex.Author) || changed
	changed = fillIfEmpty(&expr.Lang, ex.Lang) || changed
	if expr.PublishedAt == nil && ex.PublishedAt != nil {
		expr.PublishedAt = ex.PublishedAt
		changed = true
	}
	return changed
}

func setIfNonEmpty(dst *string, val string) bool {
	if val == "" || *dst == val {
		return false
	}
	*dst = val
	return true
}

func fillIfEmpty(dst *string, val string) bool {
	if *dst != "" || val == "" {
		return false
	}
	*dst = val
	return true
}

func chooseLonger(dst *string, val string) bool {
	if val == "" || len(val) <= len(*dst) {
		return false
	}
	*dst = val
	return true
}

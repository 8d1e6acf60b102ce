package crawl

import (
	"net/url"
	"os"

	"mwi/internal/content"
	"mwi/internal/dictionary"
	"mwi/internal/logging"
	"mwi/internal/model"
	"mwi/internal/store"
)

// ConsolidateOptions narrows which Expressions `land consolidate` visits.
type ConsolidateOptions struct {
	Limit    int
	MaxDepth *int
}

// Consolidator restores derived state (relevance, links, media) from an
// Expression's already-stored content, without refetching the network.
// Used after external tools mutate the Store directly.
type Consolidator struct {
	Store    *store.Store
	MaxDepth int

	// ArchiveDir, when set, lets consolidation recover outlinks/media
	// from the raw HTML snapshot the crawler archived to disk. Without
	// it (or when no snapshot exists for an Expression), consolidation
	// falls back to re-parsing the stored readable text, from which
	// Outlinks/MediaRefs typically recover nothing.
	ArchiveDir string
}

// ConsolidateLand re-parses every fetched Expression's stored readable (or
// html) text via the §4.4 content pipeline's extraction rules, re-scores
// relevance, and idempotently upserts any links/media it (re)discovers.
// Existing links/media are never deleted.
func (c *Consolidator) ConsolidateLand(landID int64, dict *dictionary.Dictionary, landLang string, opts ConsolidateOptions) (Summary, error) {
	filter := store.ExpressionFilter{LandID: landID, MaxDepth: opts.MaxDepth}
	exprs, err := c.Store.ListExpressions(filter)
	if err != nil {
		return Summary{}, err
	}

	var fetched []*model.Expression
	for _, e := range exprs {
		if e.FetchedAt != nil {
			fetched = append(fetched, e)
		}
	}
	if opts.Limit > 0 && opts.Limit < len(fetched) {
		fetched = fetched[:opts.Limit]
	}

	var summary Summary
	for _, expr := range fetched {
		summary.Processed++
		if err := c.consolidateOne(expr, dict, landLang); err != nil {
			summary.Errors++
			logging.ConsolidateError("consolidate failed for expression %d (%s): %v", expr.ID, expr.URL, err)
		}
	}
	return summary, nil
}

func (c *Consolidator) consolidateOne(expr *model.Expression, dict *dictionary.Dictionary, landLang string) error {
	// The archived raw HTML snapshot, when available, is the preferred
	// source: expr.Readable is markdown/plain text by the time it reaches
	// here, and expr.HTML is never populated by the live crawler (HTML is
	// archived to disk, not the database) — it only carries real HTML for
	// Expressions a caller wrote directly (e.g. tests, or external tools
	// per this package's own doc comment).
	raw := c.readArchivedHTML(expr)
	isHTML := raw != ""
	if raw == "" && expr.Readable == "" {
		raw = expr.HTML
		isHTML = raw != ""
	}
	if raw == "" {
		raw = expr.Readable
	}
	if raw == "" {
		return nil
	}

	page, err := content.Parse(raw)
	if err != nil {
		return err
	}

	if page.Title != "" {
		expr.Title = page.Title
	}
	if page.Description != "" {
		expr.Description = page.Description
	}
	if page.Keywords != "" {
		expr.Keywords = page.Keywords
	}
	// Only a genuine HTML source re-derives Readable from the parse; if we
	// fell back to the already-stored readable text, re-parsing it as
	// "HTML" would overwrite it with goquery's mangled reinterpretation.
	if isHTML && page.Readable != "" {
		expr.Readable = page.Readable
	}

	expr.Relevance = dict.Score(expr.Title, expr.Readable, expr.Lang, landLang)
	if expr.Relevance > 0 && expr.ApprovedAt == nil {
		now := *expr.FetchedAt
		expr.ApprovedAt = &now
	} else if expr.Relevance <= 0 {
		expr.ApprovedAt = nil
	}

	if err := c.Store.SaveExpression(expr); err != nil {
		return err
	}

	if expr.Relevance <= 0 {
		return nil
	}

	base, err := url.Parse(expr.URL)
	if err != nil {
		logging.ConsolidateError("cannot parse base URL %q for link re-discovery: %v", expr.URL, err)
		return nil
	}

	// As in the content pipeline, the depth cap bounds outlink
	// rediscovery only; media is rediscovered at any depth.
	var links []string
	if expr.Depth < c.maxDepth() {
		links = content.Outlinks(page.Doc, base)
	}
	for _, link := range links {
		target, err := c.Store.UpsertExpression(expr.LandID, link, expr.Depth+1)
		if err != nil {
			logging.ConsolidateError("failed to upsert outlink %q from expression %d: %v", link, expr.ID, err)
			continue
		}
		if err := c.Store.AddLink(expr.ID, target.ID); err != nil {
			logging.ConsolidateError("failed to add link %d->%d: %v", expr.ID, target.ID, err)
		}
	}
	for _, ref := range content.MediaRefs(page.Doc, base) {
		if _, err := c.Store.UpsertMedia(expr.ID, ref.URL, model.MediaKind(ref.Kind)); err != nil {
			logging.ConsolidateError("failed to upsert media %q for expression %d: %v", ref.URL, expr.ID, err)
		}
	}

	return nil
}

// readArchivedHTML returns the raw HTML snapshot archived for expr, or ""
// if ArchiveDir is unset or no snapshot exists.
func (c *Consolidator) readArchivedHTML(expr *model.Expression) string {
	if c.ArchiveDir == "" {
		return ""
	}
	data, err := os.ReadFile(archivePath(c.ArchiveDir, expr.LandID, expr.ID))
	if err != nil {
		return ""
	}
	return string(data)
}

func (c *Consolidator) maxDepth() int {
	if c.MaxDepth <= 0 {
		return 3
	}
	return c.MaxDepth
}

package content

import (
	"context"
	"net/url"
	"time"

	"mwi/internal/dictionary"
	"mwi/internal/logging"
	"mwi/internal/model"
	"mwi/internal/store"
)

// Gate admits or rejects an Expression with relevance > 0 before outlink
// and media discovery proceed. A nil Gate means no veto is configured.
type Gate interface {
	Admit(ctx context.Context, title, readable string) (bool, error)
}

// Pipeline wires HTML parsing, relevance scoring, and link/media
// discovery into store writes, per the fixed writeback order: scalar
// fields -> relevance -> timestamps -> commit -> links -> media.
type Pipeline struct {
	Store    *store.Store
	Gate     Gate
	MaxDepth int
}

// Process runs the full content pipeline for one fetched Expression.
func (p *Pipeline) Process(ctx context.Context, expr *model.Expression, html string, dict *dictionary.Dictionary, landLang string) error {
	page, err := Parse(html)
	if err != nil {
		logging.ContentError("parse failed for expression %d (%s): %v", expr.ID, expr.URL, err)
		return err
	}

	now := time.Now().UTC()
	expr.Lang = page.Lang
	expr.Title = page.Title
	expr.Description = page.Description
	expr.Keywords = page.Keywords
	if expr.Readable == "" {
		expr.Readable = page.Readable
	}
	expr.FetchedAt = &now

	expr.Relevance = dict.Score(expr.Title, expr.Readable, expr.Lang, landLang)

	if expr.Relevance > 0 && p.Gate != nil {
		admitted, err := p.Gate.Admit(ctx, expr.Title, expr.Readable)
		if err != nil {
			logging.GateWarn("gate call failed for expression %d: %v — admitting by default", expr.ID, err)
		} else if !admitted {
			logging.GateDebug("expression %d vetoed by relevance gate", expr.ID)
			expr.Relevance = 0
		}
	}

	if expr.Relevance > 0 {
		expr.ApprovedAt = &now
	}

	if err := p.Store.SaveExpression(expr); err != nil {
		return err
	}

	if expr.Relevance <= 0 {
		return nil
	}

	base, err := url.Parse(expr.URL)
	if err != nil {
		logging.ContentError("cannot parse base URL %q for link/media discovery: %v", expr.URL, err)
		return nil
	}

	// The depth cap bounds outlink discovery only — it controls how far
	// the crawl graph grows, not whether an already-admitted page's own
	// media is discovered.
	if expr.Depth >= p.maxDepth() {
		logging.ContentDebug("expression %d at depth %d reached link depth cap, skipping outlink discovery", expr.ID, expr.Depth)
	} else {
		for _, link := range Outlinks(page.Doc, base) {
			target, err := p.Store.UpsertExpression(expr.LandID, link, expr.Depth+1)
			if err != nil {
				logging.ContentError("failed to upsert outlink %q from expression %d: %v", link, expr.ID, err)
				continue
			}
			if err := p.Store.AddLink(expr.ID, target.ID); err != nil {
				logging.ContentError("failed to add link %d->%d: %v", expr.ID, target.ID, err)
			}
		}
	}

	for _, ref := range MediaRefs(page.Doc, base) {
		if _, err := p.Store.UpsertMedia(expr.ID, ref.URL, model.MediaKind(ref.Kind)); err != nil {
			logging.ContentError("failed to upsert media %q for expression %d: %v", ref.URL, expr.ID, err)
		}
	}

	return nil
}

func (p *Pipeline) maxDepth() int {
	if p.MaxDepth <= 0 {
		return 3
	}
	return p.MaxDepth
}

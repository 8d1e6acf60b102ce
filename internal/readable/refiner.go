package readable

import (
	"context"
	"time"

	"mwi/internal/dictionary"
	"mwi/internal/logging"
	"mwi/internal/model"
	"mwi/internal/store"
)

// Refiner runs the offline readability pass over fetched Expressions.
type Refiner struct {
	Store     *store.Store
	Extractor Extractor
	Strategy  MergeStrategy
	Retry     RetryConfig
	BatchSize int
}

// Summary tallies the outcome of a refinement run.
type Summary struct {
	Processed int
	Changed   int
	Errors    int
}

// Options narrows which Expressions `land readable` considers.
type Options struct {
	Limit    int
	MaxDepth *int
}

// RefineLand runs the refiner over every fetched Expression of a Land, in
// batches of BatchSize, per the no-inter-batch-pipelining scheduling
// model shared with the Fetcher.
func (r *Refiner) RefineLand(ctx context.Context, landID int64, dict *dictionary.Dictionary, landLang string, opts Options) (Summary, error) {
	exprs, err := r.Store.ListExpressions(store.ExpressionFilter{LandID: landID, Unreadable: true, MaxDepth: opts.MaxDepth})
	if err != nil {
		return Summary{}, err
	}
	if opts.Limit > 0 && opts.Limit < len(exprs) {
		exprs = exprs[:opts.Limit]
	}

	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	var summary Summary
	for start := 0; start < len(exprs); start += batchSize {
		end := start + batchSize
		if end > len(exprs) {
			end = len(exprs)
		}
		for _, expr := range exprs[start:end] {
			changed, err := r.refineOne(ctx, expr, dict, landLang)
			summary.Processed++
			if err != nil {
				summary.Errors++
				logging.ReadableError("refine failed for expression %d (%s): %v", expr.ID, expr.URL, err)
				continue
			}
			if changed {
				summary.Changed++
			}
		}
	}
	return summary, nil
}

func (r *Refiner) refineOne(ctx context.Context, expr *model.Expression, dict *dictionary.Dictionary, landLang string) (bool, error) {
	ex, err := WithRetry(ctx, r.Retry, expr.URL, func(ctx context.Context) (*Extraction, error) {
		return r.Extractor.Extract(ctx, expr.URL, expr.HTML)
	})
	if err != nil {
		return false, err
	}

	changed := Merge(expr, ex, r.Strategy)
	if changed {
		expr.Relevance = dict.Score(expr.Title, expr.Readable, expr.Lang, landLang)
		now := time.Now().UTC()
		expr.ReadableAt = &now
		if err := r.Store.SaveExpression(expr); err != nil {
			return false, err
		}
	}

	r.harvest(expr, ex)
	return changed, nil
}

// harvest upserts media and outlinks from the extractor's structured
// output. Links are only ever added, never removed, so an empty
// extractor result is automatically a no-op on the existing link graph —
// the link-preservation requirement falls out of AddLink's idempotence
// rather than needing an explicit branch.
func (r *Refiner) harvest(expr *model.Expression, ex *Extraction) {
	for _, imgURL := range ex.Images {
		if _, err := r.Store.UpsertMedia(expr.ID, imgURL, model.MediaImage); err != nil {
			logging.ReadableError("failed to upsert harvested image %q for expression %d: %v", imgURL, expr.ID, err)
		}
	}

	if len(ex.Outlinks) == 0 {
		return
	}
	for _, link := range ex.Outlinks {
		target, err := r.Store.UpsertExpression(expr.LandID, link, expr.Depth+1)
		if err != nil {
			logging.ReadableError("failed to upsert harvested outlink %q from expression %d: %v", link, expr.ID, err)
			continue
		}
		if err := r.Store.AddLink(expr.ID, target.ID); err != nil {
			logging.ReadableError("failed to add harvested link %d->%d: %v", expr.ID, target.ID, err)
		}
	}
}

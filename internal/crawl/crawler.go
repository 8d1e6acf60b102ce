// Package crawl wires the Fetcher, content Pipeline, and Store into the
// verb-level operations exposed at the command surface: crawling a Land's
// unfetched Expressions, consolidating derived state without refetching,
// enriching Domain metadata, and rewriting host names by heuristic rule.
package crawl

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mwi/internal/content"
	"mwi/internal/dictionary"
	"mwi/internal/fetch"
	"mwi/internal/logging"
	"mwi/internal/store"
)

// Summary tallies the outcome of a verb run. Every verb reports a
// terminal (processed, errors) line; this is that pair.
type Summary struct {
	Processed int
	Errors    int
}

// CrawlOptions narrows which Expressions `land crawl` considers.
type CrawlOptions struct {
	Limit      int
	HTTPStatus string // re-run filter: retry Expressions previously left at this status
	MaxDepth   *int
}

// Crawler batches Fetcher + content.Pipeline over a Land's unfetched
// Expressions, following the fetcher's own no-inter-batch-pipelining
// scheduling model: pull a window, run it, await it, advance.
type Crawler struct {
	Store     *store.Store
	Fetcher   *fetch.Fetcher
	Pipeline  *content.Pipeline
	BatchSize int

	// ArchiveDir, when set, additionally persists each successfully
	// fetched page's raw HTML to <ArchiveDir>/lands/<land>/<expression>/raw.html,
	// independent of the HTML column in the store. Empty disables it.
	ArchiveDir string
}

// archiveDir returns <dir>/lands/<landID>/<exprID>, the directory an
// Expression's raw HTML snapshot is archived under.
func archiveDir(dir string, landID, exprID int64) string {
	return filepath.Join(dir, "lands", strconv.FormatInt(landID, 10), strconv.FormatInt(exprID, 10))
}

// archivePath returns the path of the raw HTML snapshot itself.
func archivePath(dir string, landID, exprID int64) string {
	return filepath.Join(archiveDir(dir, landID, exprID), "raw.html")
}

// archiveHTML writes html to <dir>/lands/<landID>/<exprID>/raw.html via a
// uuid-named temp file in the same directory, then renames it into place,
// so a crash mid-write never leaves a truncated snapshot behind.
func archiveHTML(dir string, landID, exprID int64, html string) error {
	target := archiveDir(dir, landID, exprID)
	if err := os.MkdirAll(target, 0755); err != nil {
		return err
	}
	tmp := filepath.Join(target, uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, []byte(html), 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Join(target, "raw.html"))
}

// CrawlLand fetches and processes a Land's pending Expressions. dict is the
// immutable per-run dictionary snapshot; landLang selects the language
// mismatch rule in the content pipeline's relevance scoring.
func (c *Crawler) CrawlLand(ctx context.Context, landID int64, dict *dictionary.Dictionary, landLang string, opts CrawlOptions) (Summary, error) {
	filter := store.ExpressionFilter{LandID: landID, MaxDepth: opts.MaxDepth}
	if opts.HTTPStatus != "" {
		filter.HTTPStatus = opts.HTTPStatus
	} else {
		filter.Unfetched = true
	}

	exprs, err := c.Store.ListExpressions(filter)
	if err != nil {
		return Summary{}, err
	}
	if opts.Limit > 0 && opts.Limit < len(exprs) {
		exprs = exprs[:opts.Limit]
	}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	var summary Summary
	for start := 0; start < len(exprs); start += batchSize {
		end := start + batchSize
		if end > len(exprs) {
			end = len(exprs)
		}
		batch := exprs[start:end]

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		urls := make([]string, len(batch))
		for i, e := range batch {
			urls[i] = e.URL
		}
		results := c.Fetcher.FetchBatch(ctx, urls)

		for i, expr := range batch {
			summary.Processed++
			res := results[i]

			expr.HTTPStatus = res.Status
			if res.Err != nil || res.Body == "" {
				summary.Errors++
				now := time.Now().UTC()
				expr.FetchedAt = &now
				if err := c.Store.SaveExpression(expr); err != nil {
					logging.CrawlError("failed to persist fetch failure for expression %d: %v", expr.ID, err)
				}
				continue
			}

			// A FromCache result's FinalURL is the archive.org snapshot
			// URL, not the page's own identity — never rewrite the
			// Expression's canonical URL to it. A genuine live redirect's
			// final URL is normalized before being stored.
			if !res.FromCache && res.FinalURL != "" && res.FinalURL != expr.URL {
				if parsed, err := url.Parse(res.FinalURL); err == nil {
					expr.URL = content.Normalize(parsed)
				} else {
					logging.CrawlError("cannot parse final URL %q for expression %d: %v", res.FinalURL, expr.ID, err)
				}
			}
			if c.ArchiveDir != "" {
				if err := archiveHTML(c.ArchiveDir, landID, expr.ID, res.Body); err != nil {
					logging.CrawlError("failed to archive raw html for expression %d: %v", expr.ID, err)
				}
			}
			if err := c.Pipeline.Process(ctx, expr, res.Body, dict, landLang); err != nil {
				summary.Errors++
				logging.CrawlError("content pipeline failed for expression %d (%s): %v", expr.ID, expr.URL, err)
			}
		}

		logging.Crawl("batch %d-%d of %d processed", start, end, len(exprs))
	}

	return summary, nil
}

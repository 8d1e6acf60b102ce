package crawl

import (
	"context"
	"fmt"
	"time"

	"mwi/internal/content"
	"mwi/internal/fetch"
	"mwi/internal/logging"
	"mwi/internal/model"
	"mwi/internal/readable"
	"mwi/internal/store"
)

// DomainOptions narrows which Domains `domain crawl` considers.
type DomainOptions struct {
	Limit      int
	HTTPStatus string // re-run filter: retry Domains previously left at this status
}

// DomainEnricher fetches each pending Domain's homepage and records
// title/description/keywords, preferring the readable extractor's
// metadata view only where the page's own meta tags are empty.
type DomainEnricher struct {
	Store     *store.Store
	Fetcher   *fetch.Fetcher
	Extractor readable.Extractor
}

// EnrichDomains fetches the homepage of every Domain without fetched_at
// set (or matching opts.HTTPStatus on a re-run), via the cascade: the
// Fetcher's own live-then-archive attempt against https, then http.
func (d *DomainEnricher) EnrichDomains(ctx context.Context, opts DomainOptions) (Summary, error) {
	domains, err := d.Store.ListDomains(opts.HTTPStatus == "", opts.HTTPStatus)
	if err != nil {
		return Summary{}, err
	}
	if opts.Limit > 0 && opts.Limit < len(domains) {
		domains = domains[:opts.Limit]
	}

	var summary Summary
	for _, dom := range domains {
		summary.Processed++
		if err := d.enrichOne(ctx, dom); err != nil {
			summary.Errors++
			logging.DomainError("enrichment failed for domain %d (%s): %v", dom.ID, dom.Name, err)
		}
	}
	return summary, nil
}

func (d *DomainEnricher) enrichOne(ctx context.Context, dom *model.Domain) error {
	candidates := []string{"https://" + dom.Name, "http://" + dom.Name}

	var html, status string
	for _, candidate := range candidates {
		results := d.Fetcher.FetchBatch(ctx, []string{candidate})
		res := results[0]
		status = res.Status
		if res.Err == nil && res.Body != "" {
			html = res.Body
			break
		}
	}

	now := time.Now().UTC()
	dom.FetchedAt = &now
	dom.HTTPStatus = status
	if html == "" {
		return d.Store.SaveDomain(dom)
	}

	page, err := content.Parse(html)
	if err != nil {
		return fmt.Errorf("parse homepage: %w", saveErr(d.Store, dom, err))
	}

	title, description, keywords := page.Title, page.Description, page.Keywords
	if (title == "" || description == "") && d.Extractor != nil {
		if ex, err := d.Extractor.Extract(ctx, candidates[0], html); err == nil {
			if title == "" {
				title = ex.Title
			}
			if description == "" {
				description = ex.Excerpt
			}
		}
	}

	if title != "" {
		dom.Title = title
	}
	if description != "" {
		dom.Description = description
	}
	if keywords != "" {
		dom.Keywords = keywords
	}

	return d.Store.SaveDomain(dom)
}

// saveErr persists a Domain's fetch result even when subsequent parsing
// fails, then returns the original error for the caller to report.
func saveErr(s *store.Store, dom *model.Domain, err error) error {
	if saveErr := s.SaveDomain(dom); saveErr != nil {
		logging.DomainError("failed to persist domain %d after parse error: %v", dom.ID, saveErr)
	}
	return err
}

// Package readable implements the offline readability-refinement pass:
// re-extracting a higher-quality title/body/metadata for Expressions that
// have already been fetched, and merging the result into the stored
// record according to a configurable per-field policy.
package readable

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-shiori/go-readability"
	htmldate "github.com/markusmobius/go-htmldate"

	"mwi/internal/content"
)

// Extraction is the structured output contract a high-quality extractor
// must satisfy: title, markdown body, excerpt, author, publication date,
// language/direction, lead image, and enumerated images/outlinks.
type Extraction struct {
	Title       string
	Markdown    string
	Excerpt     string
	Author      string
	PublishedAt *time.Time
	Lang        string
	LeadImage   string
	Images      []string
	Outlinks    []string
}

// Extractor produces a structured Extraction from a fetched page.
type Extractor interface {
	Extract(ctx context.Context, pageURL, html string) (*Extraction, error)
}

// ReadabilityExtractor wraps go-shiori/go-readability, translating its
// Article shape into Extraction and falling back to go-htmldate when the
// extractor itself returns no publication date.
type ReadabilityExtractor struct{}

// Extract runs go-readability against the raw HTML body of a fetched
// page, rendering its Content HTML to markdown and parsing its returned
// Content for images and outlinks via goquery.
func (ReadabilityExtractor) Extract(ctx context.Context, pageURL, html string) (*Extraction, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return nil, err
	}

	markdown, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil || strings.TrimSpace(markdown) == "" {
		markdown = article.TextContent
	}

	ex := &Extraction{
		Title:     strings.TrimSpace(article.Title),
		Markdown:  strings.TrimSpace(markdown),
		Excerpt:   strings.TrimSpace(article.Excerpt),
		Author:    strings.TrimSpace(article.Byline),
		LeadImage: article.Image,
	}

	if article.PublishedTime != nil {
		ex.PublishedAt = article.PublishedTime
	} else if result, err := htmldate.FromString(html, htmldate.Options{URL: pageURL}); err == nil && !result.DateTime.IsZero() {
		dt := result.DateTime
		ex.PublishedAt = &dt
	}

	if article.Content != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
		if err == nil {
			ex.Outlinks = content.Outlinks(doc, parsed)
			for _, ref := range content.MediaRefs(doc, parsed) {
				if ref.Kind == "img" {
					ex.Images = append(ex.Images, ref.URL)
				}
			}
		}
	}

	return ex, nil
}

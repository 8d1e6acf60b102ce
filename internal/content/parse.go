package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Page holds the scalar fields extracted directly from a page's markup,
// plus the cleaned document used for readable-text and link/media
// discovery.
type Page struct {
	Lang        string
	Title       string
	Description string
	Keywords    string
	Readable    string
	Doc         *goquery.Document
}

// Parse runs the full extraction pass over raw HTML: lang/title/meta
// extraction, denylist-based DOM cleaning, and readable-text fallback.
func Parse(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	p := &Page{Doc: doc}
	p.Lang, _ = doc.Find("html").First().Attr("lang")
	p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	p.Description = metaContent(doc, "description")
	p.Keywords = metaContent(doc, "keywords")

	clean(doc)
	p.Readable = readableFallback(doc)

	return p, nil
}

func metaContent(doc *goquery.Document, name string) string {
	val, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	if val == "" {
		val, _ = doc.Find(`meta[property="og:` + name + `"]`).First().Attr("content")
	}
	return strings.TrimSpace(val)
}

// clean removes every element whose tag is in Denylist from the DOM,
// mutating doc in place.
func clean(doc *goquery.Document) {
	for _, tag := range Denylist {
		doc.Find(tag).Remove()
	}
}

// readableFallback renders the cleaned <body> as markdown, or takes its
// visible text when that conversion fails or yields nothing, and collapses
// every whitespace run (newlines included) to a single space. The
// Readable Refiner may later replace this with a higher-quality
// extraction.
func readableFallback(doc *goquery.Document) string {
	body := doc.Find("body")
	htmlFragment, err := body.Html()
	if err != nil || htmlFragment == "" {
		return normalizeWhitespace(body.Text())
	}

	md, err := htmltomarkdown.ConvertString(htmlFragment)
	if err != nil || strings.TrimSpace(md) == "" {
		return normalizeWhitespace(body.Text())
	}
	return normalizeWhitespace(md)
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

package content

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Crawlable reports whether a resolved URL is eligible for outlink
// discovery: it must parse, use scheme http/https, not be a mailto/tel/
// javascript/data URI, and have a non-empty host.
func Crawlable(u *url.URL) bool {
	if u == nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	return u.Host != ""
}

// Normalize strips the fragment and lower-cases scheme/host, the
// canonical form Expression URLs and link targets are stored under.
func Normalize(u *url.URL) string {
	n := *u
	n.Fragment = ""
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	return n.String()
}

// Outlinks discovers every crawlable, normalized anchor target in doc,
// resolved against base.
func Outlinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var out []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil || !Crawlable(resolved) {
			return
		}
		norm := Normalize(resolved)
		if !seen[norm] {
			seen[norm] = true
			out = append(out, norm)
		}
	})
	return out
}

// MediaRef is one discovered media resource.
type MediaRef struct {
	URL  string
	Kind string // "img", "video", "audio"
}

// MediaRefs discovers every img/video/audio src in doc whose URL path
// extension is in the recognized whitelist, resolved against base.
func MediaRefs(doc *goquery.Document, base *url.URL) []MediaRef {
	seen := make(map[string]bool)
	var out []MediaRef

	collect := func(selector, kind string, allowed map[string]bool) {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			src, ok := s.Attr("src")
			if !ok || src == "" {
				return
			}
			resolved, err := base.Parse(src)
			if err != nil {
				return
			}
			ext := strings.ToLower(strings.TrimPrefix(path.Ext(resolved.Path), "."))
			if !allowed[ext] {
				return
			}
			norm := Normalize(resolved)
			key := kind + "|" + norm
			if !seen[key] {
				seen[key] = true
				out = append(out, MediaRef{URL: norm, Kind: kind})
			}
		})
	}

	collect("img[src]", "img", imageExtensions)
	collect("video[src]", "video", videoExtensions)
	collect("audio[src]", "audio", audioExtensions)
	return out
}

package crawl

import (
	"net/url"
	"regexp"
	"strings"

	"mwi/internal/logging"
	"mwi/internal/store"
)

// HeuristicRule maps a matching URL family to its canonical host, e.g.
// "m.facebook.com" -> "facebook.com".
type HeuristicRule struct {
	Pattern   *regexp.Regexp
	Canonical string
}

// Heuristics applies an ordered list of host-normalization rules to every
// Expression's URL, offline, without touching content.
type Heuristics struct {
	Store *store.Store
	Rules []HeuristicRule
}

// ApplyLand rewrites every Expression URL in landID matching a rule to its
// canonical host, and re-keys the Expression's Domain reference to the
// (possibly newly created) canonical Domain. The first matching rule
// wins; Expressions matching no rule are left untouched.
func (h *Heuristics) ApplyLand(landID int64) (Summary, error) {
	exprs, err := h.Store.ListExpressions(store.ExpressionFilter{LandID: landID})
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, expr := range exprs {
		summary.Processed++
		canonicalURL, changed := h.normalize(expr.URL)
		if !changed {
			continue
		}

		u, err := url.Parse(canonicalURL)
		if err != nil {
			summary.Errors++
			logging.HeuristicError("cannot parse canonicalized URL %q for expression %d: %v", canonicalURL, expr.ID, err)
			continue
		}

		dom, err := h.Store.GetOrCreateDomain(strings.ToLower(u.Host))
		if err != nil {
			summary.Errors++
			logging.HeuristicError("cannot resolve canonical domain for expression %d: %v", expr.ID, err)
			continue
		}

		expr.URL = canonicalURL
		expr.DomainID = dom.ID
		if err := h.Store.SaveExpression(expr); err != nil {
			summary.Errors++
			logging.HeuristicError("failed to persist heuristic rewrite for expression %d: %v", expr.ID, err)
		}
	}
	return summary, nil
}

// normalize applies the first matching rule's canonical host to rawURL's
// host, leaving path/query/scheme untouched. Reports whether a rule
// matched and the host actually changed.
func (h *Heuristics) normalize(rawURL string) (string, bool) {
	for _, rule := range h.Rules {
		if !rule.Pattern.MatchString(rawURL) {
			continue
		}
		u, err := url.Parse(rawURL)
		if err != nil {
			return rawURL, false
		}
		if strings.EqualFold(u.Host, rule.Canonical) {
			return rawURL, false
		}
		u.Host = rule.Canonical
		return u.String(), true
	}
	return rawURL, false
}

// Package dictionary implements tokenization, stemming, and relevance
// scoring against a Land's vocabulary.
package dictionary

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenize splits text on Unicode word boundaries, lower-cases, and folds
// diacritics (NFD decomposition followed by combining-mark removal), so
// "Écologie" and "ecologie" stem to the same lemma.
func Tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	for i, t := range tokens {
		tokens[i] = foldDiacritics(t)
	}
	return tokens
}

// foldDiacritics strips combining marks left over after NFD decomposition,
// turning accented letters into their plain ASCII-ish base form.
func foldDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Count returns the number of tokens in tokens equal to target.
func Count(tokens []string, target string) int {
	n := 0
	for _, t := range tokens {
		if t == target {
			n++
		}
	}
	return n
}

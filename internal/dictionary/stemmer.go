package dictionary

import (
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/french"
)

// Stemmer reduces a folded token to its lemma.
type Stemmer interface {
	Stem(token string) string
}

// StemmerFor resolves a Stemmer for a Land's configured language, falling
// back to a no-op stemmer for languages with no dedicated implementation.
func StemmerFor(lang string) Stemmer {
	switch strings.ToLower(lang) {
	case "fr", "fra", "french":
		return frenchStemmer{}
	case "en", "eng", "english":
		return englishStemmer{}
	default:
		return noopStemmer{}
	}
}

// frenchStemmer wraps blevesearch/snowballstem's French algorithm.
type frenchStemmer struct{}

func (frenchStemmer) Stem(token string) string {
	env := snowballstem.NewEnv(token)
	french.Stem(env)
	return env.Current()
}

// englishStemmer wraps blevesearch/go-porterstemmer's Porter algorithm.
type englishStemmer struct{}

func (englishStemmer) Stem(token string) string {
	return porterstemmer.StemString(token)
}

// noopStemmer returns tokens unchanged, for languages without a
// registered stemming algorithm.
type noopStemmer struct{}

func (noopStemmer) Stem(token string) string { return token }

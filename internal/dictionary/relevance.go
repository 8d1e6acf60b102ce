package dictionary

import "strings"

// Dictionary is a Land's scoring vocabulary: the distinct lemmas of its
// LandDictionary rows, paired with the stemmer used to reduce incoming
// text to the same lemma space.
type Dictionary struct {
	Lemmas  map[string]struct{}
	Stemmer Stemmer
}

// Build constructs a Dictionary snapshot from a Land's registered lemmas
// and language. Callers obtain lemmas via store.Store.Dictionary.
func Build(lemmas []string, landLang string) *Dictionary {
	set := make(map[string]struct{}, len(lemmas))
	for _, l := range lemmas {
		set[l] = struct{}{}
	}
	return &Dictionary{Lemmas: set, Stemmer: StemmerFor(landLang)}
}

// lemmatize tokenizes and stems text against the dictionary's stemmer.
func (d *Dictionary) lemmatize(text string) []string {
	tokens := Tokenize(text)
	lemmas := make([]string, len(tokens))
	for i, t := range tokens {
		lemmas[i] = d.Stemmer.Stem(t)
	}
	return lemmas
}

// Score computes the integer relevance of an Expression per:
//
//	score = 10 * sum(count(lemma, tokens(title)) for lemma in dict)
//	      +  1 * sum(count(lemma, tokens(body))  for lemma in dict)
//
// If exprLang is non-empty and its lower-cased value is not a prefix match
// (in either direction) with landLang, the score is forced to 0 — a
// detected-language mismatch disqualifies the page regardless of term
// overlap. Empty dictionary, empty title, and empty body are all
// well-defined: they contribute 0.
func (d *Dictionary) Score(title, body, exprLang, landLang string) int {
	if languageMismatch(exprLang, landLang) {
		return 0
	}
	if len(d.Lemmas) == 0 {
		return 0
	}

	titleLemmas := d.lemmatize(title)
	bodyLemmas := d.lemmatize(body)

	score := 0
	for lemma := range d.Lemmas {
		score += 10 * Count(titleLemmas, lemma)
		score += Count(bodyLemmas, lemma)
	}
	return score
}

// languageMismatch reports whether exprLang is a detected, non-empty
// language code that disagrees with landLang by case-insensitive prefix
// match. A `dir` attribute value (ltr/rtl) is never a language code and
// must not reach this function as exprLang.
func languageMismatch(exprLang, landLang string) bool {
	if exprLang == "" || landLang == "" {
		return false
	}
	a := strings.ToLower(exprLang)
	b := strings.ToLower(landLang)
	if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
		return false
	}
	return true
}

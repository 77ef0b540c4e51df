// Package tokenize turns free text into normalized search terms.
//
// Terms are lowercase runs of Latin or Cyrillic letters, at least three
// runes long, with a fixed bilingual stop-word list removed. Everything else
// (digits, punctuation, symbols, whitespace) separates terms.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTermLength is the shortest term, in runes, that survives filtering.
const MinTermLength = 3

var stopwords = map[string]struct{}{
	"и": {}, "или": {}, "в": {}, "на": {}, "для": {}, "с": {}, "по": {}, "от": {}, "к": {},
	"the": {}, "a": {}, "an": {}, "in": {}, "on": {}, "for": {}, "with": {}, "to": {}, "from": {},
}

// Terms splits text into an ordered sequence of normalized terms.
// Duplicates are kept so callers can compute term frequencies.
func Terms(text string) []string {
	if text == "" {
		return nil
	}
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})

	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if utf8.RuneCountInString(token) < MinTermLength {
			continue
		}
		if IsStopword(token) {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Frequencies counts occurrences of each term.
func Frequencies(terms []string) map[string]int {
	freqs := make(map[string]int, len(terms))
	for _, t := range terms {
		freqs[t]++
	}
	return freqs
}

// IsStopword reports whether the lowercase token is filtered out.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

func isWordRune(r rune) bool {
	if !unicode.IsLetter(r) {
		return false
	}
	return unicode.In(r, unicode.Latin, unicode.Cyrillic)
}

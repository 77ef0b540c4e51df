package corpus

import (
	"math"

	"github.com/fyrsmithlabs/contextkit/internal/tokenize"
)

// Index holds per-document term lists, the vocabulary and the IDF table.
// It is immutable once built.
type Index struct {
	terms map[string][]string
	freqs map[string]map[string]int
	df    map[string]int
	idf   map[string]float64
	n     int
}

// NewIndex tokenizes every document's Text and computes
// idf(t) = ln(N / df(t)) in a single pass over the term lists.
func NewIndex(docs []Document) *Index {
	idx := &Index{
		terms: make(map[string][]string, len(docs)),
		freqs: make(map[string]map[string]int, len(docs)),
		df:    make(map[string]int),
		n:     len(docs),
	}

	for _, d := range docs {
		terms := tokenize.Terms(d.Text())
		freqs := tokenize.Frequencies(terms)
		idx.terms[d.ID] = terms
		idx.freqs[d.ID] = freqs
		for t := range freqs {
			idx.df[t]++
		}
	}

	idx.idf = make(map[string]float64, len(idx.df))
	for t, df := range idx.df {
		idx.idf[t] = math.Log(float64(idx.n) / float64(df))
	}
	return idx
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return x.n }

// VocabularySize returns the number of distinct terms.
func (x *Index) VocabularySize() int { return len(x.df) }

// InVocabulary reports whether any document contains term.
func (x *Index) InVocabulary(term string) bool {
	_, ok := x.df[term]
	return ok
}

// IDF returns the inverse document frequency of term, or 0 for terms
// outside the vocabulary.
func (x *Index) IDF(term string) float64 {
	return x.idf[term]
}

// DocumentFrequency returns how many documents contain term.
func (x *Index) DocumentFrequency(term string) int {
	return x.df[term]
}

// Terms returns the term list of a document. The slice must not be modified.
func (x *Index) Terms(docID string) []string {
	return x.terms[docID]
}

// TermCount returns how often term occurs in the document.
func (x *Index) TermCount(docID, term string) int {
	return x.freqs[docID][term]
}

// Package tfidf scores documents against a query with term frequency
// weighted by inverse document frequency.
package tfidf

import (
	"github.com/fyrsmithlabs/contextkit/internal/corpus"
	"github.com/fyrsmithlabs/contextkit/internal/tokenize"
)

// Scorer computes lexical similarity over a prebuilt index.
type Scorer struct {
	index *corpus.Index
}

// NewScorer creates a scorer over idx.
func NewScorer(idx *corpus.Index) *Scorer {
	return &Scorer{index: idx}
}

// Index returns the underlying term index.
func (s *Scorer) Index() *corpus.Index {
	return s.index
}

// Score tokenizes query and scores it against the document.
func (s *Scorer) Score(query, docID string) float64 {
	return s.ScoreTerms(tokenize.Terms(query), docID)
}

// ScoreTerms scores pre-tokenized query terms against the document.
//
// For every query term in the vocabulary it adds
// count(term, doc) / len(doc) * idf(term), then divides the sum by the
// number of query terms, matched or not. Empty input on either side
// scores 0.
func (s *Scorer) ScoreTerms(queryTerms []string, docID string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	docTerms := s.index.Terms(docID)
	if len(docTerms) == 0 {
		return 0
	}

	docLen := float64(len(docTerms))
	var sum float64
	for _, term := range queryTerms {
		if !s.index.InVocabulary(term) {
			continue
		}
		count := s.index.TermCount(docID, term)
		if count == 0 {
			continue
		}
		sum += float64(count) / docLen * s.index.IDF(term)
	}
	return sum / float64(len(queryTerms))
}

package ranker

import (
	"strings"

	"github.com/fyrsmithlabs/contextkit/internal/corpus"
)

// Strategy scores how well a document fits an analyzed query. Scores are
// expected in [0, 1]; the ranker clamps anything outside that range.
type Strategy interface {
	Score(doc corpus.Document, qa QueryAnalysis) float64
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(doc corpus.Document, qa QueryAnalysis) float64

// Score implements Strategy.
func (f StrategyFunc) Score(doc corpus.Document, qa QueryAnalysis) float64 {
	return f(doc, qa)
}

// ContextualStrategy rewards documents whose path segments mention the
// technologies or domain detected in the query.
type ContextualStrategy struct {
	// Weights per tag. Tags without an entry use DefaultWeight.
	Weights       map[string]float64
	DefaultWeight float64
}

// NewContextualStrategy returns the default tag weights: ai_ml 0.5,
// python 0.3, javascript 0.3 and 0.2 for any other tag.
func NewContextualStrategy() *ContextualStrategy {
	return &ContextualStrategy{
		Weights: map[string]float64{
			DomainAIML:   0.5,
			"python":     0.3,
			"javascript": 0.3,
		},
		DefaultWeight: 0.2,
	}
}

// Score sums the weights of every tag found in a path segment, capped at 1.
func (s *ContextualStrategy) Score(doc corpus.Document, qa QueryAnalysis) float64 {
	if len(qa.Tags) == 0 {
		return 0
	}
	segments := doc.Segments()

	var total float64
	for _, tag := range qa.Tags {
		if !anySegmentContains(segments, tag) {
			continue
		}
		w, ok := s.Weights[tag]
		if !ok {
			w = s.DefaultWeight
		}
		total += w
	}
	return clamp01(total)
}

// SemanticStrategy rewards documents that suit the query's action verb.
type SemanticStrategy struct {
	CreateBonus float64
	FindBonus   float64
	// Conventions are path fragments marking documents meant to be
	// created from.
	Conventions []string
}

// NewSemanticStrategy returns the default bonuses: 0.4 for a create query
// on a template-like document, 0.3 for any find query. With the default
// weights the find bonus alone lifts every document to 0.03, above the
// default threshold, so a find query returns the top of the whole corpus.
func NewSemanticStrategy() *SemanticStrategy {
	return &SemanticStrategy{
		CreateBonus: 0.4,
		FindBonus:   0.3,
		Conventions: []string{"template", "project", "starter", "scaffold", "boilerplate"},
	}
}

// Score implements Strategy.
func (s *SemanticStrategy) Score(doc corpus.Document, qa QueryAnalysis) float64 {
	var total float64
	if qa.HasVerb(VerbCreate) {
		segments := doc.Segments()
		for _, c := range s.Conventions {
			if anySegmentContains(segments, c) {
				total += s.CreateBonus
				break
			}
		}
	}
	if qa.HasVerb(VerbFind) {
		total += s.FindBonus
	}
	return clamp01(total)
}

func anySegmentContains(segments []string, s string) bool {
	for _, seg := range segments {
		if strings.Contains(seg, s) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

var (
	_ Strategy = (*ContextualStrategy)(nil)
	_ Strategy = (*SemanticStrategy)(nil)
	_ Strategy = StrategyFunc(nil)
)

// Package ranker combines lexical, usage and heuristic signals into a
// ranked list of recommended documents.
package ranker

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextkit/internal/corpus"
	"github.com/fyrsmithlabs/contextkit/internal/logging"
	"github.com/fyrsmithlabs/contextkit/internal/metrics"
	"github.com/fyrsmithlabs/contextkit/internal/patterns"
	"github.com/fyrsmithlabs/contextkit/internal/tfidf"
	"github.com/fyrsmithlabs/contextkit/internal/usage"
)

// Defaults for Recommend.
const (
	DefaultMinScore        = 0.01
	DefaultLimit           = 5
	DefaultMaxLimit        = 20
	DefaultPredictionBlend = 0.3
)

// Weights controls how the four signals are combined.
type Weights struct {
	Lexical    float64 `json:"lexical"`
	Usage      float64 `json:"usageFrequency"`
	Contextual float64 `json:"contextualRelevance"`
	Semantic   float64 `json:"semanticMatch"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		Lexical:    0.40, // term match is the primary signal
		Usage:      0.30,
		Contextual: 0.20,
		Semantic:   0.10,
	}
}

// UsageSource provides popularity scores and records queries.
type UsageSource interface {
	Score(docID string) float64
	RecordQuery(ctx context.Context, query, selected string) (usage.QueryEntry, error)
}

// SuccessPredictor estimates how likely a document is to work in a context.
type SuccessPredictor interface {
	PredictSuccess(docID string, uc patterns.UsageContext) float64
}

// Breakdown is the per-signal detail of one recommendation.
type Breakdown struct {
	Lexical             float64  `json:"lexical"`
	UsageFrequency      float64  `json:"usageFrequency"`
	ContextualRelevance float64  `json:"contextualRelevance"`
	SemanticMatch       float64  `json:"semanticMatch"`
	Combined            float64  `json:"combined"`
	SuccessPrediction   *float64 `json:"successPrediction,omitempty"`
}

// Recommendation is one ranked document.
type Recommendation struct {
	DocumentID string     `json:"documentId"`
	Score      float64    `json:"score"`
	Breakdown  *Breakdown `json:"scoreBreakdown,omitempty"`
}

// Request is the input to Recommend.
type Request struct {
	Query string
	// Limit is the number of results wanted. Zero selects the default;
	// values are clamped to [1, max limit].
	Limit int
	// Context enables success-prediction blending when non-nil.
	Context *patterns.UsageContext
	// Selected is recorded with the query as the chosen document.
	Selected string
}

// Result is the output of Recommend.
type Result struct {
	QueryID         string           `json:"queryId"`
	Analysis        QueryAnalysis    `json:"analysis"`
	Recommendations []Recommendation `json:"recommendations"`
	Considered      int              `json:"considered"`
	Failed          int              `json:"failed"`
}

// Ranker scores every corpus document for a query.
type Ranker struct {
	corpus     *corpus.Corpus
	lexical    *tfidf.Scorer
	usage      UsageSource
	predictor  SuccessPredictor
	contextual Strategy
	semantic   Strategy
	weights    Weights
	minScore   float64
	limit      int
	maxLimit   int
	blend      float64
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithWeights overrides the signal weights.
func WithWeights(w Weights) Option {
	return func(r *Ranker) { r.weights = w }
}

// WithMinScore sets the threshold a combined score must exceed.
func WithMinScore(threshold float64) Option {
	return func(r *Ranker) { r.minScore = threshold }
}

// WithLimits sets the default and maximum result counts.
func WithLimits(def, maxLimit int) Option {
	return func(r *Ranker) {
		if maxLimit > 0 {
			r.maxLimit = maxLimit
		}
		if def > 0 {
			r.limit = def
		}
	}
}

// WithPredictor enables success-prediction blending with weight blend for
// requests that carry a usage context.
func WithPredictor(p SuccessPredictor, blend float64) Option {
	return func(r *Ranker) {
		r.predictor = p
		r.blend = clamp01(blend)
	}
}

// WithContextualStrategy replaces the contextual relevance strategy.
func WithContextualStrategy(s Strategy) Option {
	return func(r *Ranker) {
		if s != nil {
			r.contextual = s
		}
	}
}

// WithSemanticStrategy replaces the semantic match strategy.
func WithSemanticStrategy(s Strategy) Option {
	return func(r *Ranker) {
		if s != nil {
			r.semantic = s
		}
	}
}

// WithMetrics reports scoring counters to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Ranker) { r.metrics = m }
}

// WithLogger sets the ranker logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Ranker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a ranker over c. usage may be nil, in which case every
// document has zero popularity and queries are not recorded.
func New(c *corpus.Corpus, idx *corpus.Index, src UsageSource, opts ...Option) *Ranker {
	r := &Ranker{
		corpus:     c,
		lexical:    tfidf.NewScorer(idx),
		usage:      src,
		contextual: NewContextualStrategy(),
		semantic:   NewSemanticStrategy(),
		weights:    DefaultWeights(),
		minScore:   DefaultMinScore,
		limit:      DefaultLimit,
		maxLimit:   DefaultMaxLimit,
		blend:      DefaultPredictionBlend,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.limit > r.maxLimit {
		r.limit = r.maxLimit
	}
	r.logger = r.logger.Named("ranker")
	return r
}

// Recommend ranks the corpus against req.Query. Only documents whose
// combined score exceeds the minimum are returned, highest first, ties
// broken by document id. A document whose scoring fails scores zero and is
// logged. The query is recorded in the usage ledger; a recording failure
// is logged and does not affect the result.
func (r *Ranker) Recommend(ctx context.Context, req Request) Result {
	done := r.metrics.StartStage("rank")
	defer done()

	queryID := uuid.NewString()
	ctx = logging.WithQueryID(ctx, queryID)

	qa := AnalyzeQuery(req.Query)
	limit := r.clampLimit(req.Limit)
	blend := r.predictor != nil && req.Context != nil

	res := Result{QueryID: queryID, Analysis: qa, Recommendations: []Recommendation{}}
	for _, doc := range r.corpus.Documents {
		res.Considered++
		bd, err := r.scoreDocument(doc, qa)
		r.metrics.RecordScored(err != nil)
		if err != nil {
			res.Failed++
			r.logger.Warn(ctx, "document scoring failed",
				zap.String("doc", doc.ID),
				zap.Error(err),
			)
			continue
		}
		if !(bd.Combined > r.minScore) {
			continue
		}

		score := bd.Combined
		if blend {
			pred := clamp01(r.predictor.PredictSuccess(doc.ID, *req.Context))
			bd.SuccessPrediction = &pred
			score = bd.Combined*(1-r.blend) + pred*r.blend
		}
		res.Recommendations = append(res.Recommendations, Recommendation{
			DocumentID: doc.ID,
			Score:      score,
			Breakdown:  bd,
		})
	}

	sort.SliceStable(res.Recommendations, func(i, j int) bool {
		a, b := res.Recommendations[i], res.Recommendations[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.DocumentID < b.DocumentID
	})
	if len(res.Recommendations) > limit {
		res.Recommendations = res.Recommendations[:limit]
	}
	r.metrics.AddRecommendations(len(res.Recommendations))

	if r.usage != nil {
		if _, err := r.usage.RecordQuery(ctx, req.Query, req.Selected); err != nil {
			r.logger.Warn(ctx, "failed to record query", zap.Error(err))
		}
	}

	r.logger.Debug(ctx, "recommendations computed",
		zap.String("intent", qa.Intent),
		zap.String("domain", qa.Domain),
		zap.Int("considered", res.Considered),
		zap.Int("returned", len(res.Recommendations)),
		zap.Int("failed", res.Failed),
	)
	return res
}

// scoreDocument computes every signal for doc. A panic in a strategy or a
// non-finite component is reported as an error.
func (r *Ranker) scoreDocument(doc corpus.Document, qa QueryAnalysis) (bd *Breakdown, err error) {
	defer func() {
		if p := recover(); p != nil {
			bd, err = nil, fmt.Errorf("panic while scoring: %v", p)
		}
	}()

	bd = &Breakdown{
		Lexical:             r.lexical.ScoreTerms(qa.Terms, doc.ID),
		ContextualRelevance: clamp01(r.contextual.Score(doc, qa)),
		SemanticMatch:       clamp01(r.semantic.Score(doc, qa)),
	}
	if r.usage != nil {
		bd.UsageFrequency = r.usage.Score(doc.ID)
	}
	for name, v := range map[string]float64{"lexical": bd.Lexical, "usage": bd.UsageFrequency} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("invalid %s score %v", name, v)
		}
	}

	bd.Combined = bd.Lexical*r.weights.Lexical +
		bd.UsageFrequency*r.weights.Usage +
		bd.ContextualRelevance*r.weights.Contextual +
		bd.SemanticMatch*r.weights.Semantic
	return bd, nil
}

func (r *Ranker) clampLimit(n int) int {
	if n == 0 {
		n = r.limit
	}
	if n < 1 {
		return 1
	}
	if n > r.maxLimit {
		return r.maxLimit
	}
	return n
}

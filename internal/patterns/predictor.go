package patterns

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/fyrsmithlabs/contextkit/internal/logging"
	"go.uber.org/zap"
)

// Prediction weights.
const (
	NeutralPrediction   = 0.5
	successWeight       = 0.6
	maxExperienceBonus  = 0.2
	experienceDivisor   = 10.0
	contextMatchBonus   = 0.15
	recencyWeight       = 0.05
	recencyWindowDays   = 30.0
	activeWindowDays    = 30.0
	mostUsedLimit       = 5
	increasingThreshold = 5
)

// Predictor estimates how likely a document is to work in a new context.
type Predictor struct {
	mu     sync.RWMutex
	store  Store
	data   Data
	now    func() time.Time
	logger *logging.Logger
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the predictor logger.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Predictor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPredictor loads all patterns from store.
func NewPredictor(ctx context.Context, store Store, opts ...Option) (*Predictor, error) {
	p := &Predictor{
		store:  store,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("patterns")

	data, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	p.data = data
	return p, nil
}

// PredictSuccess returns 0.5 for documents without history. Otherwise it
// returns the sum of
//
//	successRate * 0.6
//	min(usageCount/10, 0.2)
//	0.15 if the context domain was seen before
//	max(0, (30 - daysSinceLastUse) / 30) * 0.05
//
// The sum is not clamped.
func (p *Predictor) PredictSuccess(docID string, uc UsageContext) float64 {
	p.mu.RLock()
	pat, ok := p.data[docID]
	p.mu.RUnlock()
	if !ok {
		return NeutralPrediction
	}

	score := pat.SuccessRate * successWeight
	score += math.Min(float64(pat.UsageCount)/experienceDivisor, maxExperienceBonus)
	if pat.hasContext(uc.Domain) {
		score += contextMatchBonus
	}
	days := p.daysSince(pat.LastUsed)
	score += math.Max(0, (recencyWindowDays-days)/recencyWindowDays) * recencyWeight
	return score
}

// RecordOutcome folds one observed use into the document's pattern and
// persists it. A new pattern starts with a success rate of 1.
func (p *Predictor) RecordOutcome(ctx context.Context, docID string, o Outcome) error {
	if docID == "" {
		return ErrEmptyDocument
	}

	now := p.now().UTC()
	var snapshot Data
	err := p.store.Update(ctx, func(d Data) error {
		pat, ok := d[docID]
		if !ok {
			pat = &Pattern{
				ID:                  docID,
				SuccessRate:         1,
				ContextsUsedIn:      []string{},
				CommonModifications: []string{},
			}
			d[docID] = pat
		}

		pat.UsageCount++
		pat.LastUsed = now

		n := float64(pat.UsageCount)
		successes := pat.SuccessRate * (n - 1)
		if o.Success {
			successes++
		}
		pat.SuccessRate = successes / n

		if o.Context.Domain != "" && !contains(pat.ContextsUsedIn, o.Context.Domain) {
			pat.ContextsUsedIn = append(pat.ContextsUsedIn, o.Context.Domain)
		}
		for _, mod := range o.Modifications {
			if mod != "" && !contains(pat.CommonModifications, mod) {
				pat.CommonModifications = append(pat.CommonModifications, mod)
			}
		}

		snapshot = d.clone()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	p.mu.Lock()
	p.data = snapshot
	p.mu.Unlock()

	p.logger.Debug(ctx, "outcome recorded",
		zap.String("doc", docID),
		zap.Bool("success", o.Success),
		zap.String("domain", o.Context.Domain),
	)
	return nil
}

// Pattern returns a copy of the pattern for docID.
func (p *Predictor) Pattern(docID string) (Pattern, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pat, ok := p.data[docID]
	if !ok {
		return Pattern{}, false
	}
	return *pat.clone(), true
}

// Patterns returns the patterns used at least minUsage times, ordered by
// document id.
func (p *Predictor) Patterns(minUsage int) []Pattern {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Pattern, 0, len(p.data))
	for _, pat := range p.data {
		if pat.UsageCount >= minUsage {
			out = append(out, *pat.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// daysSince returns whole days elapsed since t, rounded down.
func (p *Predictor) daysSince(t time.Time) float64 {
	return math.Floor(p.now().Sub(t).Hours() / 24)
}

package usage

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/fyrsmithlabs/contextkit/internal/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger scores documents by recorded usage and records new usage through
// its Store.
type Ledger struct {
	mu       sync.RWMutex
	store    Store
	data     *Data
	maxScore float64
	limit    int
	now      func() time.Time
	logger   *logging.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithQueryLimit sets how many query log entries are retained.
func WithQueryLimit(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the ledger logger.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLedger loads the current ledger from store.
func NewLedger(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:  store,
		limit:  DefaultQueryLogLimit,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Named("usage")

	data, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage ledger: %w", err)
	}
	l.setData(data)
	return l, nil
}

// RecordUsage increments the counter for action on docID and updates its
// last-used time.
func (l *Ledger) RecordUsage(ctx context.Context, docID string, action Action) error {
	if docID == "" {
		return ErrEmptyDocument
	}
	if action != ActionView && action != ActionCreate {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	now := l.now().UTC()
	var snapshot *Data
	err := l.store.Update(ctx, func(d *Data) error {
		rec, ok := d.Templates[docID]
		if !ok {
			rec = &Record{}
			d.Templates[docID] = rec
		}
		switch action {
		case ActionView:
			rec.Views++
		case ActionCreate:
			rec.Creates++
		}
		rec.LastUsed = now
		snapshot = d.clone()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	l.setData(snapshot)
	l.logger.Debug(ctx, "usage recorded",
		zap.String("doc", docID),
		zap.String("action", string(action)),
	)
	return nil
}

// RecordQuery appends query to the log, dropping the oldest entries beyond
// the retention limit. The entry id is the query id carried by ctx, or a
// new UUID.
func (l *Ledger) RecordQuery(ctx context.Context, query, selected string) (QueryEntry, error) {
	entry := QueryEntry{
		ID:               logging.QueryIDFromContext(ctx),
		Timestamp:        l.now().UTC(),
		Query:            query,
		SelectedTemplate: selected,
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	var snapshot *Data
	err := l.store.Update(ctx, func(d *Data) error {
		d.Queries = append(d.Queries, entry)
		d.trimQueries(l.limit)
		snapshot = d.clone()
		return nil
	})
	if err != nil {
		return QueryEntry{}, fmt.Errorf("failed to record query: %w", err)
	}

	l.setData(snapshot)
	return entry, nil
}

// Score returns the normalized popularity of docID: its weighted usage
// divided by the largest weighted usage in the ledger, where the divisor is
// never below 1. Documents without usage score 0.
func (l *Ledger) Score(docID string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.data.Templates[docID]
	if !ok {
		return 0
	}
	return rec.Weighted() / math.Max(l.maxScore, 1)
}

// Record returns the counters for docID.
func (l *Ledger) Record(docID string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.data.Templates[docID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Queries returns a copy of the query log, oldest first.
func (l *Ledger) Queries() []QueryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]QueryEntry, len(l.data.Queries))
	copy(out, l.data.Queries)
	return out
}

// Len returns the number of documents with recorded usage.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.data.Templates)
}

func (l *Ledger) setData(d *Data) {
	var maxScore float64
	for _, rec := range d.Templates {
		if w := rec.Weighted(); w > maxScore {
			maxScore = w
		}
	}

	l.mu.Lock()
	l.data = d
	l.maxScore = maxScore
	l.mu.Unlock()
}

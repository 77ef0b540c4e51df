package usage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fyrsmithlabs/contextkit/internal/logging"
	"github.com/fyrsmithlabs/contextkit/internal/sqlitedb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) Store

func fileStore(t *testing.T) Store {
	return NewFileStore(filepath.Join(t.TempDir(), "usage_stats.json"), time.Second)
}

func sqliteStore(t *testing.T) Store {
	db, err := sqlitedb.Open(context.Background(), filepath.Join(t.TempDir(), "ctxkit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db)
}

var backends = map[string]storeFactory{
	"file":   fileStore,
	"sqlite": sqliteStore,
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
		err  bool
	}{
		{"view", ActionView, false},
		{"viewed", ActionView, false},
		{"CREATE", ActionCreate, false},
		{"created", ActionCreate, false},
		{"delete", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLedger_EmptyStore(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			l, err := NewLedger(context.Background(), factory(t))
			require.NoError(t, err)

			assert.Equal(t, 0.0, l.Score("anything"))
			assert.Zero(t, l.Len())
			assert.Empty(t, l.Queries())
		})
	}
}

func TestLedger_RecordUsageAndScore(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			l, err := NewLedger(ctx, store, WithClock(fixedClock()))
			require.NoError(t, err)

			for i := 0; i < 3; i++ {
				require.NoError(t, l.RecordUsage(ctx, "a.json", ActionView))
			}
			for i := 0; i < 2; i++ {
				require.NoError(t, l.RecordUsage(ctx, "a.json", ActionCreate))
			}
			require.NoError(t, l.RecordUsage(ctx, "b.json", ActionView))

			rec, ok := l.Record("a.json")
			require.True(t, ok)
			assert.Equal(t, 3, rec.Views)
			assert.Equal(t, 2, rec.Creates)
			assert.True(t, rec.LastUsed.Equal(fixedClock()()))

			// a: 3*0.3 + 2*0.7 = 2.3 is the maximum.
			assert.InDelta(t, 1.0, l.Score("a.json"), 1e-12)
			assert.InDelta(t, 0.3/2.3, l.Score("b.json"), 1e-12)
			assert.Equal(t, 0.0, l.Score("c.json"))

			// A fresh ledger on the same store sees the persisted counters.
			reloaded, err := NewLedger(ctx, store)
			require.NoError(t, err)
			assert.InDelta(t, l.Score("b.json"), reloaded.Score("b.json"), 1e-12)
		})
	}
}

func TestLedger_ScoreDenominatorNeverBelowOne(t *testing.T) {
	ctx := context.Background()
	l, err := NewLedger(ctx, fileStore(t))
	require.NoError(t, err)

	require.NoError(t, l.RecordUsage(ctx, "only.json", ActionView))
	assert.InDelta(t, 0.3, l.Score("only.json"), 1e-12)
}

func TestLedger_ScoreMonotonicInCreates(t *testing.T) {
	ctx := context.Background()
	l, err := NewLedger(ctx, fileStore(t))
	require.NoError(t, err)

	require.NoError(t, l.RecordUsage(ctx, "popular.json", ActionCreate))
	require.NoError(t, l.RecordUsage(ctx, "popular.json", ActionCreate))
	require.NoError(t, l.RecordUsage(ctx, "d.json", ActionView))

	before := l.Score("d.json") - l.Score("sibling.json")
	require.NoError(t, l.RecordUsage(ctx, "d.json", ActionCreate))
	after := l.Score("d.json") - l.Score("sibling.json")

	assert.Greater(t, after, before)
}

func TestLedger_RecordUsageValidation(t *testing.T) {
	ctx := context.Background()
	l, err := NewLedger(ctx, fileStore(t))
	require.NoError(t, err)

	assert.ErrorIs(t, l.RecordUsage(ctx, "", ActionView), ErrEmptyDocument)
	assert.ErrorIs(t, l.RecordUsage(ctx, "a", Action("bookmark")), ErrUnknownAction)
}

func TestLedger_RecordQuery(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := logging.WithQueryID(context.Background(), "q-123")
			l, err := NewLedger(ctx, factory(t), WithClock(fixedClock()))
			require.NoError(t, err)

			entry, err := l.RecordQuery(ctx, "python api", "web/api.json")
			require.NoError(t, err)
			assert.Equal(t, "q-123", entry.ID)

			entry, err = l.RecordQuery(context.Background(), "rust", "")
			require.NoError(t, err)
			assert.Len(t, entry.ID, 36)

			queries := l.Queries()
			require.Len(t, queries, 2)
			assert.Equal(t, "python api", queries[0].Query)
			assert.Equal(t, "web/api.json", queries[0].SelectedTemplate)
			assert.Equal(t, "rust", queries[1].Query)
			assert.Empty(t, queries[1].SelectedTemplate)
		})
	}
}

func TestLedger_QueryLogIsCapped(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l, err := NewLedger(ctx, factory(t), WithQueryLimit(3))
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				_, err := l.RecordQuery(ctx, fmt.Sprintf("q%d", i), "")
				require.NoError(t, err)
			}

			queries := l.Queries()
			require.Len(t, queries, 3)
			assert.Equal(t, "q2", queries[0].Query)
			assert.Equal(t, "q4", queries[2].Query)
		})
	}
}

func TestFileStore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_stats.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewLedger(context.Background(), NewFileStore(path, time.Second))
	assert.ErrorIs(t, err, ErrStoreCorrupted)
}

func TestFileStore_ReadsLegacyShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_stats.json")
	legacy := `{"version":"1.0","templates":{"a.json":{"views":4,"creates":1}}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	data, err := NewFileStore(path, time.Second).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, data.Templates["a.json"].Views)
	assert.NotNil(t, data.Queries)
}

func TestFileStore_FailedUpdateWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_stats.json")
	store := NewFileStore(path, time.Second)

	err := store.Update(context.Background(), func(d *Data) error {
		d.Templates["x"] = &Record{Views: 1}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoFileExists(t, path)
}

func TestFileStore_ConcurrentUpdatesAreNotLost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_stats.json")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := NewLedger(ctx, NewFileStore(path, 10*time.Second))
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, l.RecordUsage(ctx, "shared.json", ActionView))
		}()
	}
	wg.Wait()

	l, err := NewLedger(ctx, NewFileStore(path, time.Second))
	require.NoError(t, err)
	rec, ok := l.Record("shared.json")
	require.True(t, ok)
	assert.Equal(t, 8, rec.Views)
}

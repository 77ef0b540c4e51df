package patterns

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fyrsmithlabs/contextkit/internal/sqlitedb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newClock() *clock {
	return &clock{t: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
}

func stores(t *testing.T) map[string]Store {
	db, err := sqlitedb.Open(context.Background(), filepath.Join(t.TempDir(), "ctxkit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "template_patterns.json"), time.Second),
		"sqlite": NewSQLiteStore(db),
	}
}

func TestPredictSuccess_UnknownDocumentIsNeutral(t *testing.T) {
	p, err := NewPredictor(context.Background(), NewFileStore(filepath.Join(t.TempDir(), "p.json"), time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.PredictSuccess("missing", UsageContext{Domain: "web"}))
}

func TestRecordOutcome_RunningSuccessRate(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClock()
			p, err := NewPredictor(ctx, store, WithClock(c.now))
			require.NoError(t, err)

			outcomes := []Outcome{
				{Context: UsageContext{Domain: "web"}, Success: true, Modifications: []string{"add auth"}},
				{Context: UsageContext{Domain: "ai_ml"}, Success: false, Modifications: []string{"add auth", "docker"}},
				{Context: UsageContext{Domain: "web"}, Success: true},
				{Context: UsageContext{}, Success: false, Modifications: []string{""}},
			}
			for _, o := range outcomes {
				require.NoError(t, p.RecordOutcome(ctx, "api.json", o))
			}

			pat, ok := p.Pattern("api.json")
			require.True(t, ok)
			assert.Equal(t, 4, pat.UsageCount)
			assert.InDelta(t, 0.5, pat.SuccessRate, 1e-12)
			assert.Equal(t, []string{"web", "ai_ml"}, pat.ContextsUsedIn)
			assert.Equal(t, []string{"add auth", "docker"}, pat.CommonModifications)
			assert.True(t, pat.LastUsed.Equal(c.t))

			reloaded, err := NewPredictor(ctx, store, WithClock(c.now))
			require.NoError(t, err)
			again, ok := reloaded.Pattern("api.json")
			require.True(t, ok)
			assert.Equal(t, pat, again)
		})
	}
}

func TestPredictSuccess_Components(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	p, err := NewPredictor(ctx, NewFileStore(filepath.Join(t.TempDir(), "p.json"), time.Second), WithClock(c.now))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.RecordOutcome(ctx, "doc", Outcome{Context: UsageContext{Domain: "web"}, Success: true}))
	}

	// rate 1.0 -> 0.6, experience 3/10 capped at 0.2, recency full 0.05.
	assert.InDelta(t, 0.6+0.2+0.15+0.05, p.PredictSuccess("doc", UsageContext{Domain: "web"}), 1e-12)
	assert.InDelta(t, 0.6+0.2+0.05, p.PredictSuccess("doc", UsageContext{Domain: "cli"}), 1e-12)
	assert.InDelta(t, 0.6+0.2+0.05, p.PredictSuccess("doc", UsageContext{}), 1e-12)

	c.t = c.t.Add(15 * 24 * time.Hour)
	assert.InDelta(t, 0.6+0.2+0.025, p.PredictSuccess("doc", UsageContext{}), 1e-12)

	c.t = c.t.Add(60 * 24 * time.Hour)
	assert.InDelta(t, 0.8, p.PredictSuccess("doc", UsageContext{}), 1e-12)
}

func TestPredictSuccess_ExperienceBonusGrowsWithUse(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	p, err := NewPredictor(ctx, NewFileStore(filepath.Join(t.TempDir(), "p.json"), time.Second), WithClock(c.now))
	require.NoError(t, err)

	require.NoError(t, p.RecordOutcome(ctx, "doc", Outcome{Success: true}))
	assert.InDelta(t, 0.6+0.1+0.05, p.PredictSuccess("doc", UsageContext{}), 1e-12)
}

func TestRecordOutcome_EmptyDocument(t *testing.T) {
	p, err := NewPredictor(context.Background(), NewFileStore(filepath.Join(t.TempDir(), "p.json"), time.Second))
	require.NoError(t, err)
	assert.ErrorIs(t, p.RecordOutcome(context.Background(), "", Outcome{}), ErrEmptyDocument)
}

func TestPatterns_MinUsage(t *testing.T) {
	ctx := context.Background()
	p, err := NewPredictor(ctx, NewFileStore(filepath.Join(t.TempDir(), "p.json"), time.Second))
	require.NoError(t, err)

	require.NoError(t, p.RecordOutcome(ctx, "b", Outcome{Success: true}))
	require.NoError(t, p.RecordOutcome(ctx, "b", Outcome{Success: true}))
	require.NoError(t, p.RecordOutcome(ctx, "a", Outcome{Success: true}))
	require.NoError(t, p.RecordOutcome(ctx, "a", Outcome{Success: true}))
	require.NoError(t, p.RecordOutcome(ctx, "c", Outcome{Success: true}))

	got := p.Patterns(2)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Len(t, p.Patterns(0), 3)
}

func TestFileStore_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template_patterns.json")
	legacy := `{
  "web/api.json": {
    "usageCount": 2,
    "successRate": 0.5,
    "contextsUsedIn": ["web"],
    "commonModifications": null,
    "lastUsed": "2026-05-01T10:00:00Z"
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	data, err := NewFileStore(path, time.Second).Load(context.Background())
	require.NoError(t, err)
	pat := data["web/api.json"]
	require.NotNil(t, pat)
	assert.Equal(t, "web/api.json", pat.ID)
	assert.Equal(t, 2, pat.UsageCount)
	assert.Equal(t, []string{}, pat.CommonModifications)
}

func TestFileStore_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template_patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "a", "map"]`), 0o644))

	_, err := NewPredictor(context.Background(), NewFileStore(path, time.Second))
	assert.ErrorIs(t, err, ErrStoreCorrupted)
}

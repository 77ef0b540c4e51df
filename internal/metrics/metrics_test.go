package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.AddDocumentsLoaded(3, 1)
	m.RecordScored(false)
	m.RecordScored(true)
	m.AddRecommendations(2)
	m.RecordUsage("view")
	m.RecordUsage("view")
	m.RecordMarker(MarkerNotFound)
	m.RecordResolvedFile()
	m.AddRedactions(4)
	m.AddRedactions(0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.DocumentsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsSkipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsScored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScoringFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecommendationsReturned))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UsageRecorded.WithLabelValues("view")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolverMarkers.WithLabelValues(MarkerNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesResolved))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.SecretsRedacted))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.AddRecommendations(5)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RecommendationsReturned))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddDocumentsLoaded(1, 1)
		m.RecordScored(true)
		m.AddRecommendations(1)
		m.RecordUsage("create")
		m.RecordMarker(MarkerTooLarge)
		m.RecordResolvedFile()
		m.AddRedactions(1)
		m.StartStage("rank")()
		assert.NoError(t, m.WriteTextfile("ignored.prom"))
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_StageDuration(t *testing.T) {
	m := New()
	m.ObserveStage("rank", 3*time.Millisecond)
	m.StartStage("load")()

	assert.Equal(t, 2, testutil.CollectAndCount(m.StageDuration))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.AddRecommendations(3)

	path := filepath.Join(t.TempDir(), "ctxkit.prom")
	require.NoError(t, m.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "ctxkit_recommendations_returned_total 3"))

	expected := `
# HELP ctxkit_recommendations_returned_total Total number of recommendations returned
# TYPE ctxkit_recommendations_returned_total counter
ctxkit_recommendations_returned_total 3
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "ctxkit_recommendations_returned_total"))
}

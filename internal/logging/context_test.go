package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_AllIDs(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithQueryID(ctx, "query-2")
	ctx = WithCommand(ctx, "resolve")

	fields := ContextFields(ctx)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Key] = f.String
	}

	assert.Equal(t, map[string]string{
		"run.id":   "run-1",
		"query.id": "query-2",
		"command":  "resolve",
	}, got)
}

func TestWithRunID_Validation(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		panic bool
	}{
		{"uuid", "5f0c7e0a-6d1b-4b7e-9f57-3c1f8b2d9a11", false},
		{"empty", "", true},
		{"spaces", "run 1", true},
		{"too long", strings.Repeat("a", maxIDLen+1), true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := func() { WithRunID(context.Background(), tt.id) }
			if tt.panic {
				assert.Panics(t, fn)
			} else {
				assert.NotPanics(t, fn)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	assert.Same(t, tl.Logger, FromContext(ctx))

	fallback := FromContext(context.Background())
	assert.NotNil(t, fallback)
	assert.False(t, fallback.Enabled(TraceLevel))
}

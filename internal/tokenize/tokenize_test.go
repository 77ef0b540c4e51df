package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTerms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "lowercases and splits on punctuation",
			input: "Python, Web-API!",
			want:  []string{"python", "web", "api"},
		},
		{
			name:  "drops english stopwords and short tokens",
			input: "the tool for an API to go",
			want:  []string{"tool", "api"},
		},
		{
			name:  "drops russian stopwords",
			input: "шаблон для проекта или сервиса",
			want:  []string{"шаблон", "проекта", "сервиса"},
		},
		{
			name:  "digits separate terms",
			input: "python3 vue2app",
			want:  []string{"python", "vue", "app"},
		},
		{
			name:  "underscores split and accented letters stay",
			input: "python3 ai_ml web_development café ёлка",
			want:  []string{"python", "web", "development", "café", "ёлка"},
		},
		{
			name:  "keeps duplicates in order",
			input: "data science data",
			want:  []string{"data", "science", "data"},
		},
		{
			name:  "non latin or cyrillic letters separate",
			input: "api中文service",
			want:  []string{"api", "service"},
		},
		{
			name:  "only noise",
			input: "a, b; 12 -- ??",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Terms(tt.input)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerms_MinimumLengthCountsRunes(t *testing.T) {
	// Two Cyrillic runes are four bytes but still too short.
	assert.Empty(t, Terms("ии ок"))
	assert.Equal(t, []string{"код"}, Terms("код"))
}

func TestFrequencies(t *testing.T) {
	freqs := Frequencies([]string{"api", "web", "api"})
	assert.Equal(t, map[string]int{"api": 2, "web": 1}, freqs)
	assert.Empty(t, Frequencies(nil))
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("для"))
	assert.False(t, IsStopword("python"))
}

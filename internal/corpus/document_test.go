package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDocument(t *testing.T) {
	payload := map[string]any{
		"name":        "Python Web API",
		"description": "FastAPI starter",
		"tags":        []any{"python", "web", 42, ""},
		"keywords":    "rest",
		"template_info": map[string]any{
			"keywords":        []any{"fastapi", "uvicorn"},
			"target_projects": []any{"microservice"},
		},
	}

	doc := NewDocument("web/python_api.json", "/corpus/web/python_api.json", payload)

	assert.Equal(t, "Python Web API", doc.Name)
	assert.Equal(t, "FastAPI starter", doc.Description)
	assert.Equal(t, []string{"python", "web"}, doc.Tags)
	assert.Equal(t, []string{"rest", "microservice", "fastapi", "uvicorn"}, doc.Keywords)
	assert.Equal(t, "Python Web API FastAPI starter python web rest microservice fastapi uvicorn", doc.Text())
}

func TestNewDocument_TemplateInfoFallback(t *testing.T) {
	payload := map[string]any{
		"template_info": map[string]any{
			"name":        "Agent",
			"description": "LLM agent skeleton",
		},
	}

	doc := NewDocument("ai_ml/agent.json", "", payload)
	assert.Equal(t, "Agent", doc.Name)
	assert.Equal(t, "LLM agent skeleton", doc.Description)
	assert.Equal(t, "Agent LLM agent skeleton", doc.Text())
}

func TestNewDocument_EmptyPayload(t *testing.T) {
	doc := NewDocument("empty.json", "", map[string]any{})
	assert.Empty(t, doc.Text())
	assert.Empty(t, doc.Tags)
	assert.Empty(t, doc.Keywords)
}

func TestDocument_PathHelpers(t *testing.T) {
	tests := []struct {
		id       string
		category string
		segments []string
	}{
		{"ai_ml/Python-Agent.json", "ai_ml", []string{"ai_ml", "python-agent"}},
		{"root.yaml", "", []string{"root"}},
		{"a/b/c.toml", "a", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			doc := Document{ID: tt.id}
			assert.Equal(t, tt.category, doc.Category())
			assert.Equal(t, tt.segments, doc.Segments())
		})
	}
}

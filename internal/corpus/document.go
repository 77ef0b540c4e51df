// Package corpus loads the knowledge-base documents and builds the term
// statistics the lexical scorer needs.
package corpus

import (
	"path"
	"strings"
)

// Document is one knowledge-base entry.
type Document struct {
	ID          string // corpus-relative slash path, unique
	Path        string // absolute path on disk
	Name        string
	Description string
	Tags        []string
	Keywords    []string
	Payload     map[string]any
}

// NewDocument extracts the searchable fields from a decoded payload.
//
// Keywords come from a top-level "keywords" list and from
// template_info.keywords and template_info.target_projects. Name and
// description fall back to their template_info counterparts.
func NewDocument(id, absPath string, payload map[string]any) Document {
	doc := Document{
		ID:      id,
		Path:    absPath,
		Payload: payload,
	}

	info, _ := payload["template_info"].(map[string]any)

	doc.Name = stringField(payload, "name")
	if doc.Name == "" {
		doc.Name = stringField(info, "name")
	}
	doc.Description = stringField(payload, "description")
	if doc.Description == "" {
		doc.Description = stringField(info, "description")
	}

	doc.Tags = stringList(payload["tags"])
	doc.Keywords = append(doc.Keywords, stringList(payload["keywords"])...)
	doc.Keywords = append(doc.Keywords, stringList(info["target_projects"])...)
	doc.Keywords = append(doc.Keywords, stringList(info["keywords"])...)

	return doc
}

// Text is the synthetic document used for term statistics:
// name, description, tags and keywords joined by spaces.
func (d Document) Text() string {
	parts := make([]string, 0, 2+len(d.Tags)+len(d.Keywords))
	if d.Name != "" {
		parts = append(parts, d.Name)
	}
	if d.Description != "" {
		parts = append(parts, d.Description)
	}
	parts = append(parts, d.Tags...)
	parts = append(parts, d.Keywords...)
	return strings.Join(parts, " ")
}

// Category is the first path segment of the document id, or "" for
// documents at the corpus root.
func (d Document) Category() string {
	if i := strings.IndexByte(d.ID, '/'); i > 0 {
		return d.ID[:i]
	}
	return ""
}

// Segments returns the lowercase path segments of the id with the file
// extension removed, e.g. "ai_ml/python-agent.json" yields
// ["ai_ml", "python-agent"].
func (d Document) Segments() []string {
	id := strings.TrimSuffix(d.ID, path.Ext(d.ID))
	parts := strings.Split(strings.ToLower(id), "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// stringList accepts a list of strings (possibly mixed with other values,
// which are skipped) or a single string.
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

package resolver

import "path/filepath"

// assemble rewrites every loaded document so that references to indexed
// files become aliases, then builds the bundle.
func (rn *run) assemble(seeds []string) *Bundle {
	b := &Bundle{
		RootDocuments: make([]RootDocument, 0, len(seeds)),
		Index:         make(map[string]*Entry, len(rn.order)),
	}

	for _, e := range rn.order {
		if e.Error == "" {
			e.Content = rn.rewrite(e.Content, filepath.Dir(e.CanonicalPath))
		}
		b.Index[e.ID] = e
		if e.Depth > b.Stats.MaxDepthReached {
			b.Stats.MaxDepthReached = e.Depth
		}
	}
	b.Stats.TotalFilesLoaded = len(rn.order)
	b.Stats.RedactedSecrets = rn.redacted

	seen := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		e, ok := rn.index[rn.canonical(s, rn.r.root)]
		if !ok {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		b.RootDocuments = append(b.RootDocuments, RootDocument{Path: s, Ref: e.ID, Content: e.Content})
	}
	return b
}

// rewrite returns v with indexed references replaced by aliases.
func (rn *run) rewrite(v any, fromDir string) any {
	switch t := v.(type) {
	case map[string]any:
		if lit, ok := refLiteral(t); ok {
			if a, ok := rn.alias(lit, fromDir); ok {
				return a
			}
		}
		for k, item := range t {
			if _, ok := rn.r.linkFields[k]; ok {
				t[k] = rn.rewriteLinks(item, fromDir)
				continue
			}
			t[k] = rn.rewrite(item, fromDir)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = rn.rewrite(item, fromDir)
		}
		return t
	}
	return v
}

// rewriteLinks handles the value of a link field. Plain path strings are
// aliased when indexed and left as literals otherwise.
func (rn *run) rewriteLinks(v any, fromDir string) any {
	switch t := v.(type) {
	case string:
		if a, ok := rn.alias(t, fromDir); ok {
			return a
		}
		return t
	case []any:
		for i, item := range t {
			if s, ok := item.(string); ok {
				if a, ok := rn.alias(s, fromDir); ok {
					t[i] = a
				}
				continue
			}
			t[i] = rn.rewrite(item, fromDir)
		}
		return t
	}
	return rn.rewrite(v, fromDir)
}

func (rn *run) alias(literal, fromDir string) (Alias, bool) {
	if _, ok := referenceTarget(literal); !ok {
		return Alias{}, false
	}
	c := rn.canonical(literal, fromDir)
	e, ok := rn.index[c]
	if !ok {
		return Alias{}, false
	}
	return Alias{Ref: e.ID, Path: literal, CanonicalPath: c, Note: AliasNote}, true
}

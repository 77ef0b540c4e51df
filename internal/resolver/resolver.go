package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextkit/internal/corpus"
	"github.com/fyrsmithlabs/contextkit/internal/logging"
	"github.com/fyrsmithlabs/contextkit/internal/metrics"
	"github.com/fyrsmithlabs/contextkit/internal/secrets"
)

// Resolver builds bundles for one corpus. A Resolver holds no per-run
// state and may be reused; every Resolve call starts from an empty index.
type Resolver struct {
	opts       Options
	root       string
	rootName   string
	linkFields map[string]struct{}
	redactor   secrets.Redactor
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRedactor masks secrets in loaded content.
func WithRedactor(r secrets.Redactor) Option {
	return func(res *Resolver) {
		if r != nil {
			res.redactor = r
		}
	}
}

// WithMetrics records resolved files, markers and redactions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger sets the resolver logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver. Zero-valued limits in opts take their defaults.
func New(opts Options, options ...Option) *Resolver {
	opts = opts.withDefaults()
	root := canonicalize(opts.Root)

	r := &Resolver{
		opts:       opts,
		root:       root,
		rootName:   filepath.Base(root),
		linkFields: make(map[string]struct{}, len(opts.LinkFields)),
		redactor:   secrets.NoopRedactor{},
		logger:     logging.NewNop(),
	}
	if r.rootName == string(filepath.Separator) || r.rootName == "." {
		r.rootName = ""
	}
	for _, f := range opts.LinkFields {
		r.linkFields[f] = struct{}{}
	}
	for _, opt := range options {
		opt(r)
	}
	r.logger = r.logger.Named("resolver")
	return r
}

// Root returns the canonical corpus root.
func (r *Resolver) Root() string {
	return r.root
}

// node is a queued reference.
type node struct {
	literal   string
	canonical string
	depth     int
}

// run is the state of a single Resolve call.
type run struct {
	r        *Resolver
	index    map[string]*Entry // canonical path -> entry
	order    []*Entry
	resolved map[string]string // fromDir + NUL + literal -> canonical path
	redacted int
}

// Resolve loads seeds and everything they reference up to MaxDepth and
// returns the assembled bundle. Seeds are resolved like references found
// in a document at the corpus root.
func (r *Resolver) Resolve(ctx context.Context, seeds []string) (*Bundle, error) {
	defer r.metrics.StartStage("resolve")()

	rn := &run{
		r:        r,
		index:    make(map[string]*Entry),
		resolved: make(map[string]string),
	}

	queue := make([]node, 0, len(seeds))
	for _, s := range seeds {
		queue = append(queue, node{literal: s, canonical: rn.canonical(s, r.root), depth: 1})
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := queue[0]
		queue = queue[1:]

		if _, seen := rn.index[n.canonical]; seen {
			continue
		}
		e := rn.load(ctx, n)
		if e.Error != "" || n.depth >= r.opts.MaxDepth {
			continue
		}

		fromDir := filepath.Dir(e.CanonicalPath)
		for _, lit := range r.references(e.Content) {
			c := rn.canonical(lit, fromDir)
			if _, seen := rn.index[c]; seen {
				continue
			}
			queue = append(queue, node{literal: lit, canonical: c, depth: n.depth + 1})
		}
	}

	b := rn.assemble(seeds)
	r.logger.Info(ctx, "bundle resolved",
		zap.Int("seeds", len(seeds)),
		zap.Int("files", b.Stats.TotalFilesLoaded),
		zap.Int("max_depth", b.Stats.MaxDepthReached),
		zap.Int("redacted", b.Stats.RedactedSecrets),
	)
	return b, nil
}

// canonical resolves literal relative to fromDir, memoised per run.
func (rn *run) canonical(literal, fromDir string) string {
	key := fromDir + "\x00" + literal
	if c, ok := rn.resolved[key]; ok {
		return c
	}
	target, _ := referenceTarget(literal)
	if target == "" {
		target = literal
	}
	c := canonicalize(rn.r.resolvePath(target, fromDir))
	rn.resolved[key] = c
	return c
}

// load reads one node, assigns it the next id and indexes it.
func (rn *run) load(ctx context.Context, n node) *Entry {
	e := &Entry{
		ID:            fmt.Sprintf("file_%03d", len(rn.order)+1),
		Path:          n.literal,
		CanonicalPath: n.canonical,
		Depth:         n.depth,
	}
	rn.index[n.canonical] = e
	rn.order = append(rn.order, e)

	var redacted int
	e.Content, e.Error, redacted = rn.r.read(n)
	rn.redacted += redacted
	rn.r.metrics.AddRedactions(redacted)

	if e.Error != "" {
		rn.r.metrics.RecordMarker(markerMetric(e.Error))
		rn.r.logger.Warn(ctx, "reference not loaded",
			zap.String("path", n.literal),
			zap.String("canonical", n.canonical),
			zap.String("kind", e.Error),
		)
		return e
	}
	rn.r.metrics.RecordResolvedFile()
	rn.r.logger.Debug(ctx, "file loaded",
		zap.String("id", e.ID),
		zap.String("canonical", n.canonical),
		zap.Int("depth", n.depth),
	)
	return e
}

// read returns the content of n, or an in-band marker and its kind.
func (r *Resolver) read(n node) (content any, kind string, redacted int) {
	info, err := os.Stat(n.canonical)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("[%s: %s -> %s]", KindNotFound, n.literal, n.canonical), KindNotFound, 0
	case err != nil:
		return readFailure(n.literal, err), KindReadFailure, 0
	case info.IsDir():
		return readFailure(n.literal, errors.New("is a directory")), KindReadFailure, 0
	case info.Size() > r.opts.MaxFileSize:
		return fmt.Sprintf("[%s: %s (%d bytes)]", KindTooLarge, n.literal, info.Size()), KindTooLarge, 0
	}

	raw, err := os.ReadFile(n.canonical)
	if err != nil {
		return readFailure(n.literal, err), KindReadFailure, 0
	}

	found := r.redactor.Redact(n.canonical, string(raw))
	if !corpus.IsStructured(n.canonical) {
		text, cut := truncate(found.Content, r.opts.MaxTextChars)
		if cut {
			r.metrics.RecordMarker(metrics.MarkerTruncated)
		}
		return text, "", found.Count()
	}

	v, err := corpus.Decode(n.canonical, raw)
	if err != nil {
		return fmt.Sprintf("[%s: %s]", KindInvalidFormat, n.literal), KindInvalidFormat, 0
	}
	return maskStrings(v, found), "", found.Count()
}

func readFailure(literal string, err error) string {
	return fmt.Sprintf("[%s: %s - %v]", KindReadFailure, literal, err)
}

// truncate keeps the first limit characters of s.
func truncate(s string, limit int) (string, bool) {
	n := utf8.RuneCountInString(s)
	if n <= limit {
		return s, false
	}
	cut := 0
	for i := range s {
		if cut == limit {
			return fmt.Sprintf("%s\n[TRUNCATED: %d more characters]", s[:i], n-limit), true
		}
		cut++
	}
	return s, false
}

// maskStrings applies the redaction found in the raw text to every string
// value of a decoded document.
func maskStrings(v any, found secrets.Result) any {
	if found.Count() == 0 {
		return v
	}
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = maskStrings(item, found)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = maskStrings(item, found)
		}
		return t
	case string:
		return found.Mask(t)
	}
	return v
}

// references lists the reference literals in content in document order.
// Object keys are visited in sorted order so ids are stable across runs.
func (r *Resolver) references(content any) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			if lit, ok := refLiteral(t); ok {
				out = append(out, lit)
			}
			for _, k := range sortedKeys(t) {
				if k == RefKey {
					continue
				}
				if _, ok := r.linkFields[k]; ok {
					out = append(out, linkLiterals(t[k], walk)...)
					continue
				}
				walk(t[k])
			}
		case []any:
			for _, item := range t {
				walk(item)
			}
		}
	}
	walk(content)
	return out
}

// linkLiterals returns the references held by a link field value. Non-string
// list items are walked for embedded pointer objects.
func linkLiterals(v any, walk func(any)) []string {
	switch t := v.(type) {
	case string:
		if _, ok := referenceTarget(t); ok {
			return []string{t}
		}
	case []any:
		var out []string
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				walk(item)
				continue
			}
			if _, ok := referenceTarget(s); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		walk(v)
	}
	return nil
}

// refLiteral reports whether m is a pointer object to a local file.
func refLiteral(m map[string]any) (string, bool) {
	s, ok := m[RefKey].(string)
	if !ok {
		return "", false
	}
	if _, ok := referenceTarget(s); !ok {
		return "", false
	}
	return s, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func markerMetric(kind string) string {
	switch kind {
	case KindNotFound:
		return metrics.MarkerNotFound
	case KindTooLarge:
		return metrics.MarkerTooLarge
	case KindInvalidFormat:
		return metrics.MarkerInvalidFormat
	default:
		return metrics.MarkerReadFailure
	}
}

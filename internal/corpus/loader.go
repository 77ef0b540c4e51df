package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/contextkit/internal/ignore"
	"github.com/fyrsmithlabs/contextkit/internal/logging"
	"go.uber.org/zap"
)

// ErrRootUnreadable is returned when the corpus root is missing or cannot be
// listed. It is the only fatal corpus error.
var ErrRootUnreadable = errors.New("corpus root unreadable")

// DefaultExtensions are the file types treated as documents.
var DefaultExtensions = []string{".json", ".yaml", ".yml", ".toml"}

// Corpus is the set of documents available for one invocation.
type Corpus struct {
	Root      string
	Documents []Document // sorted by ID
	Skipped   []Skipped

	byID map[string]int
}

// Skipped records a file that could not be loaded as a document.
type Skipped struct {
	ID     string
	Reason string
}

// Lookup returns the document with the given id.
func (c *Corpus) Lookup(id string) (Document, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Document{}, false
	}
	return c.Documents[i], true
}

// Len returns the number of loaded documents.
func (c *Corpus) Len() int {
	return len(c.Documents)
}

// New builds a corpus from already-constructed documents. Documents are
// sorted by id; later duplicates of an id are dropped.
func New(root string, docs []Document) *Corpus {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := &Corpus{Root: root, byID: make(map[string]int, len(sorted))}
	for _, d := range sorted {
		if _, dup := c.byID[d.ID]; dup {
			continue
		}
		c.byID[d.ID] = len(c.Documents)
		c.Documents = append(c.Documents, d)
	}
	return c
}

// Loader reads documents from a directory tree.
type Loader struct {
	root       string
	extensions map[string]struct{}
	logger     *logging.Logger
}

// NewLoader creates a loader for root. Empty extensions selects
// DefaultExtensions.
func NewLoader(root string, extensions []string, logger *logging.Logger) *Loader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loader{root: root, extensions: exts, logger: logger.Named("corpus")}
}

// Load walks the root and decodes every matching file. Hidden files and
// directories (names starting with '.') are ignored, which keeps the
// store directory out of the corpus, as are paths excluded by a
// .ctxkitignore file at the root. A file that fails to read or decode
// is logged and skipped.
func (l *Loader) Load(ctx context.Context) (*Corpus, error) {
	root, err := filepath.Abs(l.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootUnreadable, l.root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootUnreadable, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}

	ign, err := ignore.Load(root)
	if err != nil {
		l.logger.Warn(ctx, "ignore file not applied", zap.String("file", ignore.FileName), zap.Error(err))
	}

	var (
		docs    []Document
		skipped []Skipped
	)
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return err
			}
			rel, _ := filepath.Rel(root, p)
			skipped = append(skipped, Skipped{ID: filepath.ToSlash(rel), Reason: err.Error()})
			l.logger.Warn(ctx, "skipping unreadable path", zap.String("path", p), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if ign.Match(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := l.extensions[strings.ToLower(filepath.Ext(p))]; !ok {
			return nil
		}
		id := filepath.ToSlash(rel)

		doc, err := loadDocument(id, p)
		if err != nil {
			skipped = append(skipped, Skipped{ID: id, Reason: err.Error()})
			l.logger.Warn(ctx, "skipping document", zap.String("doc", id), zap.Error(err))
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, walkErr)
	}

	c := New(root, docs)
	c.Skipped = skipped
	l.logger.Debug(ctx, "corpus loaded",
		zap.String("root", root),
		zap.Int("documents", c.Len()),
		zap.Int("skipped", len(skipped)),
	)
	return c, nil
}

func loadDocument(id, absPath string) (Document, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return Document{}, fmt.Errorf("read: %w", err)
	}
	payload, err := DecodeObject(absPath, data)
	if err != nil {
		return Document{}, err
	}
	return NewDocument(id, absPath, payload), nil
}

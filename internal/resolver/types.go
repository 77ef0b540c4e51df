package resolver

// Defaults for Options.
const (
	DefaultMaxDepth           = 5
	DefaultMaxFileSize  int64 = 100 * 1024
	DefaultMaxTextChars       = 5000
)

// DefaultLinkFields are the keys whose values list documents to load along
// with the document that declares them.
var DefaultLinkFields = []string{"auto_load", "files_to_load", "suggested_files_to_load", "related_files"}

// AliasNote is the note carried by every alias object.
const AliasNote = "alias to already-loaded document"

// RefKey is the key of an embedded pointer object.
const RefKey = "$ref"

// Marker kinds stored in Entry.Error.
const (
	KindNotFound      = "FILE_NOT_FOUND"
	KindTooLarge      = "FILE_TOO_LARGE"
	KindInvalidFormat = "INVALID_FORMAT"
	KindReadFailure   = "READ_FAILURE"
)

// Options bound a resolution run.
type Options struct {
	// Root is the corpus root. Relative references that are not relative
	// to their document resolve against it.
	Root string

	// MaxDepth is the deepest level loaded. Seeds are depth 1.
	MaxDepth int

	// MaxFileSize is the largest file read, in bytes.
	MaxFileSize int64

	// MaxTextChars caps the characters kept from unstructured files.
	MaxTextChars int

	// LinkFields lists the keys that hold references.
	LinkFields []string
}

// DefaultOptions returns the defaults for a corpus rooted at root.
func DefaultOptions(root string) Options {
	return Options{
		Root:         root,
		MaxDepth:     DefaultMaxDepth,
		MaxFileSize:  DefaultMaxFileSize,
		MaxTextChars: DefaultMaxTextChars,
		LinkFields:   append([]string(nil), DefaultLinkFields...),
	}
}

func (o Options) withDefaults() Options {
	if o.MaxDepth < 1 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxFileSize < 1 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.MaxTextChars < 1 {
		o.MaxTextChars = DefaultMaxTextChars
	}
	if len(o.LinkFields) == 0 {
		o.LinkFields = append([]string(nil), DefaultLinkFields...)
	}
	return o
}

// Alias replaces a reference to a document that is already in the bundle
// index.
type Alias struct {
	Ref           string `json:"ref"`
	Path          string `json:"path"`
	CanonicalPath string `json:"canonicalPath"`
	Note          string `json:"note"`
}

// Entry is one loaded file in the bundle index.
type Entry struct {
	ID            string `json:"-"`
	Path          string `json:"path"`
	CanonicalPath string `json:"canonicalPath"`
	Content       any    `json:"content"`
	Error         string `json:"error,omitempty"`
	Depth         int    `json:"-"`
}

// RootDocument is a seed document as it appears at the top of a bundle.
type RootDocument struct {
	Path    string `json:"path"`
	Ref     string `json:"ref"`
	Content any    `json:"content"`
}

// Stats summarises a run.
type Stats struct {
	TotalFilesLoaded int `json:"totalFilesLoaded"`
	MaxDepthReached  int `json:"maxDepthReached"`
	RedactedSecrets  int `json:"redactedSecrets"`
}

// Bundle is the output of a resolution run.
type Bundle struct {
	RootDocuments []RootDocument    `json:"rootDocuments"`
	Index         map[string]*Entry `json:"index"`
	Stats         Stats             `json:"stats"`
}

// Entry returns the index entry for id.
func (b *Bundle) Entry(id string) (*Entry, bool) {
	e, ok := b.Index[id]
	return e, ok
}

// EntryFor returns the index entry whose canonical path is canonical.
func (b *Bundle) EntryFor(canonical string) (*Entry, bool) {
	for _, e := range b.Index {
		if e.CanonicalPath == canonical {
			return e, true
		}
	}
	return nil, false
}

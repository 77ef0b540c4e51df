package usage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DataVersion is written into every persisted ledger.
const DataVersion = "1.0"

// DefaultQueryLogLimit is the number of query entries retained.
const DefaultQueryLogLimit = 1000

// Usage weights. Creating from a document counts for more than viewing it.
const (
	ViewWeight   = 0.3
	CreateWeight = 0.7
)

// Errors for ledger operations.
var (
	ErrStoreCorrupted = errors.New("usage store corrupted")
	ErrUnknownAction  = errors.New("unknown usage action")
	ErrEmptyDocument  = errors.New("document id cannot be empty")
)

// Action is a kind of recorded usage.
type Action string

// Supported actions.
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
)

// ParseAction accepts "view"/"viewed" and "create"/"created".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "view", "viewed", "views":
		return ActionView, nil
	case "create", "created", "creates":
		return ActionCreate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Record holds the usage counters of one document.
type Record struct {
	Views    int       `json:"views"`
	Creates  int       `json:"creates"`
	LastUsed time.Time `json:"lastUsed"`
}

// Weighted returns views*0.3 + creates*0.7.
func (r Record) Weighted() float64 {
	return float64(r.Views)*ViewWeight + float64(r.Creates)*CreateWeight
}

// QueryEntry is one logged recommendation query.
type QueryEntry struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Query            string    `json:"query"`
	SelectedTemplate string    `json:"selectedTemplate,omitempty"`
}

// Data is the persisted ledger.
type Data struct {
	Version   string             `json:"version"`
	Templates map[string]*Record `json:"templates"`
	Queries   []QueryEntry       `json:"queries"`
}

// NewData returns an empty ledger.
func NewData() *Data {
	return &Data{
		Version:   DataVersion,
		Templates: make(map[string]*Record),
		Queries:   []QueryEntry{},
	}
}

// normalize fills fields that older or hand-edited files may omit.
func (d *Data) normalize() {
	if d.Version == "" {
		d.Version = DataVersion
	}
	if d.Templates == nil {
		d.Templates = make(map[string]*Record)
	}
	for id, r := range d.Templates {
		if r == nil {
			d.Templates[id] = &Record{}
		}
	}
	if d.Queries == nil {
		d.Queries = []QueryEntry{}
	}
}

// clone returns a deep copy of d.
func (d *Data) clone() *Data {
	out := &Data{
		Version:   d.Version,
		Templates: make(map[string]*Record, len(d.Templates)),
		Queries:   make([]QueryEntry, len(d.Queries)),
	}
	for id, r := range d.Templates {
		rc := *r
		out.Templates[id] = &rc
	}
	copy(out.Queries, d.Queries)
	return out
}

// trimQueries drops the oldest entries beyond limit.
func (d *Data) trimQueries(limit int) {
	if limit > 0 && len(d.Queries) > limit {
		d.Queries = append([]QueryEntry(nil), d.Queries[len(d.Queries)-limit:]...)
	}
}

package patterns

import (
	"errors"
	"time"
)

// Errors for pattern operations.
var (
	ErrStoreCorrupted = errors.New("pattern store corrupted")
	ErrEmptyDocument  = errors.New("document id cannot be empty")
)

// Pattern is the learned usage history of one document.
type Pattern struct {
	ID                  string    `json:"-"`
	UsageCount          int       `json:"usageCount"`
	SuccessRate         float64   `json:"successRate"`
	ContextsUsedIn      []string  `json:"contextsUsedIn"`
	CommonModifications []string  `json:"commonModifications"`
	LastUsed            time.Time `json:"lastUsed"`
}

func (p *Pattern) clone() *Pattern {
	c := *p
	c.ContextsUsedIn = append([]string(nil), p.ContextsUsedIn...)
	c.CommonModifications = append([]string(nil), p.CommonModifications...)
	return &c
}

func (p *Pattern) hasContext(domain string) bool {
	return domain != "" && contains(p.ContextsUsedIn, domain)
}

// Data maps document ids to patterns.
type Data map[string]*Pattern

func (d Data) normalize() {
	for id, p := range d {
		if p == nil {
			p = &Pattern{SuccessRate: 1}
			d[id] = p
		}
		p.ID = id
		if p.ContextsUsedIn == nil {
			p.ContextsUsedIn = []string{}
		}
		if p.CommonModifications == nil {
			p.CommonModifications = []string{}
		}
	}
}

func (d Data) clone() Data {
	out := make(Data, len(d))
	for id, p := range d {
		out[id] = p.clone()
	}
	return out
}

// UsageContext describes the project a document is about to be used in.
type UsageContext struct {
	Domain       string   `json:"domain"`
	Technologies []string `json:"technologies,omitempty"`
	ProjectSize  string   `json:"projectSize,omitempty"` // small, medium, large
	Complexity   string   `json:"complexity,omitempty"`  // simple, moderate, complex
	TeamSize     int      `json:"teamSize,omitempty"`
}

// Outcome is one observed use of a document.
type Outcome struct {
	Context       UsageContext
	Success       bool
	Modifications []string
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

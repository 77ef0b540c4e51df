package secrets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Redactor masks secrets in text.
type Redactor interface {
	// Redact returns content with every detected secret replaced by a
	// [REDACTED:rule-id] marker. path identifies the source for
	// allowlist path rules and may be empty.
	Redact(path, content string) Result

	// Enabled reports whether redaction is active.
	Enabled() bool
}

// Result is the outcome of one Redact call.
type Result struct {
	Content  string
	Findings []Finding
}

// Count returns the number of secrets that were masked.
func (r Result) Count() int {
	return len(r.Findings)
}

// Mask applies the same replacements to s. It is used to redact decoded
// values of a document whose raw text was scanned.
func (r Result) Mask(s string) string {
	if len(r.Findings) == 0 || s == "" {
		return s
	}
	return replaceSecrets(s, r.Findings)
}

// GitleaksRedactor redacts with a shared Detector.
type GitleaksRedactor struct {
	detector  *Detector
	skipPaths []*regexp.Regexp
}

// NewRedactor builds a Gitleaks-backed redactor.
func NewRedactor(allowlist *Allowlist) (*GitleaksRedactor, error) {
	d, err := NewDetector(allowlist)
	if err != nil {
		return nil, err
	}
	r := &GitleaksRedactor{detector: d}
	if allowlist != nil {
		for _, pattern := range allowlist.Paths {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: path pattern %q: %v", ErrInvalidRegex, pattern, err)
			}
			r.skipPaths = append(r.skipPaths, re)
		}
	}
	return r, nil
}

// Redact implements Redactor.
func (r *GitleaksRedactor) Redact(path, content string) Result {
	if content == "" || r.skipsPath(path) {
		return Result{Content: content}
	}
	findings := r.detector.Detect(content)
	if len(findings) == 0 {
		return Result{Content: content}
	}
	return Result{Content: replaceSecrets(content, findings), Findings: findings}
}

// Enabled implements Redactor.
func (r *GitleaksRedactor) Enabled() bool { return true }

func (r *GitleaksRedactor) skipsPath(path string) bool {
	if path == "" {
		return false
	}
	for _, re := range r.skipPaths {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// replaceSecrets substitutes longer secrets first so a secret that
// contains another is masked whole.
func replaceSecrets(content string, findings []Finding) string {
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Secret) > len(sorted[j].Secret)
	})

	for _, f := range sorted {
		if f.Secret == "" {
			continue
		}
		content = strings.ReplaceAll(content, f.Secret, fmt.Sprintf("[REDACTED:%s]", f.RuleID))
	}
	return content
}

// NoopRedactor returns content unchanged.
type NoopRedactor struct{}

// Redact implements Redactor.
func (NoopRedactor) Redact(_, content string) Result { return Result{Content: content} }

// Enabled implements Redactor.
func (NoopRedactor) Enabled() bool { return false }

var (
	_ Redactor = (*GitleaksRedactor)(nil)
	_ Redactor = NoopRedactor{}
)

// Package ignore provides gitignore-style exclusion of corpus paths.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileName is the ignore file read from the corpus root.
const FileName = ".ctxkitignore"

// Matcher reports whether corpus-relative paths are excluded.
type Matcher struct {
	rules []rule
}

type rule struct {
	glob     string
	anywhere bool // may match at any directory level
	dir      bool // excludes everything below a matching directory
}

// New builds a matcher from glob patterns in the form produced by
// parseLine (e.g. "**/drafts/**", "*.bak", "archive/old/**").
func New(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range deduplicate(patterns) {
		r := rule{glob: p}
		if strings.HasPrefix(r.glob, "**/") {
			r.glob = strings.TrimPrefix(r.glob, "**/")
			r.anywhere = true
		}
		if strings.HasSuffix(r.glob, "/**") {
			r.glob = strings.TrimSuffix(r.glob, "/**")
			r.dir = true
		}
		if strings.HasPrefix(p, "*") && !strings.Contains(r.glob, "/") {
			r.anywhere = true
		}
		if _, err := path.Match(r.glob, "test"); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		m.rules = append(m.rules, r)
	}
	return m, nil
}

// Load reads the ignore files named in names (FileName when none) from
// root. Missing files are skipped; with no file present the matcher is
// empty.
func Load(root string, names ...string) (*Matcher, error) {
	if len(names) == 0 {
		names = []string{FileName}
	}
	var patterns []string
	for _, name := range names {
		filePatterns, err := parseFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		patterns = append(patterns, filePatterns...)
	}
	return New(patterns)
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Match reports whether rel, a slash- or OS-separated path relative to the
// corpus root, is excluded. isDir marks rel itself as a directory.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil || rel == "" || rel == "." {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, r := range m.rules {
		if r.match(parts, isDir) {
			return true
		}
	}
	return false
}

func (r rule) match(parts []string, isDir bool) bool {
	last := 1
	if r.anywhere {
		last = len(parts)
	}
	for start := 0; start < last; start++ {
		if !r.dir {
			if ok, _ := path.Match(r.glob, strings.Join(parts[start:], "/")); ok {
				return true
			}
			continue
		}
		// A directory rule matches an ancestor of the path, or the path
		// itself when it is a directory.
		for end := start + 1; end <= len(parts); end++ {
			if end == len(parts) && !isDir {
				break
			}
			if ok, _ := path.Match(r.glob, strings.Join(parts[start:end], "/")); ok {
				return true
			}
		}
	}
	return false
}

// parseFile reads a single gitignore-style file and returns patterns.
func parseFile(name string) ([]string, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pattern := parseLine(scanner.Text()); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// parseLine parses a single line from an ignore file.
// Returns empty string for comments and blank lines.
func parseLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	// Negation is not supported.
	if strings.HasPrefix(line, "!") {
		return ""
	}
	return toGlobPattern(line)
}

// toGlobPattern converts a gitignore pattern to a glob pattern.
func toGlobPattern(pattern string) string {
	// A leading slash anchors the pattern at the root.
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	dirOnly := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	if !anchored && !strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "*") {
		pattern = "**/" + pattern
	}
	if dirOnly {
		pattern += "/**"
	}

	// Names without an extension are treated as directories.
	if !strings.HasSuffix(pattern, "/**") && !strings.HasSuffix(pattern, "/*") && !strings.Contains(pattern, ".") {
		pattern += "/**"
	}
	return pattern
}

// deduplicate removes duplicate patterns while preserving order.
func deduplicate(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}

package resolver

import (
	"os"
	"path/filepath"
	"strings"
)

// resolvePath maps a reference literal found in a document located in
// fromDir to an absolute path. Rules apply in order:
//
//  1. absolute paths are used as-is
//  2. paths starting with "./" are rooted at the corpus root; paths starting
//     with the root's own directory name are too, unless a subdirectory of
//     that name under the root holds the file
//  3. bare file names are looked up next to the referencing document and
//     fall back to the corpus root
//  4. paths starting with "../" are relative to the referencing document
//  5. anything else is relative to the corpus root
func (r *Resolver) resolvePath(literal, fromDir string) string {
	p := filepath.FromSlash(literal)
	sep := string(filepath.Separator)

	switch {
	case filepath.IsAbs(p):
		return filepath.Clean(p)
	case strings.HasPrefix(p, "."+sep):
		return filepath.Join(r.root, p)
	case r.rootName != "" && strings.HasPrefix(p, r.rootName+sep):
		under := filepath.Join(r.root, p)
		if exists(under) {
			return under
		}
		return filepath.Join(filepath.Dir(r.root), p)
	case !strings.Contains(p, sep):
		local := filepath.Join(fromDir, p)
		if exists(local) {
			return local
		}
		return filepath.Join(r.root, p)
	case strings.HasPrefix(p, ".."+sep):
		return filepath.Join(fromDir, p)
	default:
		return filepath.Join(r.root, p)
	}
}

// canonicalize returns the absolute, cleaned form of p with symlinks
// evaluated when p exists.
func canonicalize(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// referenceTarget strips a JSON-pointer fragment and reports whether the
// literal names a local file at all.
func referenceTarget(literal string) (string, bool) {
	s := strings.TrimSpace(literal)
	if s == "" || strings.HasPrefix(s, "#") {
		return "", false
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return "", false
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return s, s != ""
}

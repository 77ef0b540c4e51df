package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Allowlist contains patterns to exclude from secret detection.
type Allowlist struct {
	Paths   []string // document path patterns to skip entirely
	Regexes []string // content patterns to ignore
}

// LoadAllowlist reads an allowlist file. An empty path or a missing file
// yields an empty allowlist. Invalid TOML or regex patterns are errors.
func LoadAllowlist(path string) (*Allowlist, error) {
	empty := &Allowlist{Paths: []string{}, Regexes: []string{}}
	if path == "" {
		return empty, nil
	}

	var file struct {
		Allowlist struct {
			Paths   []string `toml:"paths"`
			Regexes []string `toml:"regexes"`
		} `toml:"allowlist"`
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return empty, nil
		}
		return nil, fmt.Errorf("reading allowlist: %w", err)
	}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	al := &Allowlist{
		Paths:   append([]string{}, file.Allowlist.Paths...),
		Regexes: append([]string{}, file.Allowlist.Regexes...),
	}
	if err := al.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return al, nil
}

// Validate compiles every pattern.
func (a *Allowlist) Validate() error {
	for _, pattern := range a.Paths {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: path pattern %q: %v", ErrInvalidRegex, pattern, err)
		}
	}
	for _, pattern := range a.Regexes {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: content pattern %q: %v", ErrInvalidRegex, pattern, err)
		}
	}
	return nil
}

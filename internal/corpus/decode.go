package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Decoding errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrInvalidFormat     = errors.New("invalid document format")
)

// IsStructured reports whether files with this name are decoded as
// structured data.
func IsStructured(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	}
	return false
}

// Decode parses structured content by file extension. The result uses
// only JSON-compatible types: map[string]any, []any, string, float64 or
// int64, bool and nil.
func Decode(name string, data []byte) (any, error) {
	var (
		v   any
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err = dec.Decode(&v); err == nil && dec.More() {
			err = errors.New("trailing data after JSON value")
		}
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &v)
	case ".toml":
		var m map[string]any
		_, err = toml.Decode(string(data), &m)
		v = m
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, name, err)
	}
	return normalize(v), nil
}

// DecodeObject decodes name and requires a top-level object.
func DecodeObject(name string, data []byte) (map[string]any, error) {
	v, err := Decode(name, data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: top-level value is not an object", ErrInvalidFormat, name)
	}
	return m, nil
}

// normalize converts decoder-specific container and number types so that
// all formats look alike to the rest of the program.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = normalize(item)
		}
		return m
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case int:
		return int64(t)
	}
	return v
}

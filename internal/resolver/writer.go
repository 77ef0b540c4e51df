package resolver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/fyrsmithlabs/contextkit/internal/fileutil"
)

// Compression selects the encoding of a written bundle.
type Compression string

// Supported compressions.
const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression parses a --compress value. The empty string means none.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unsupported compression %q (want none, gzip or zstd)", s)
	}
}

// Extension returns the conventional file suffix for c.
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	}
	return ""
}

// WriteBundle encodes b as indented JSON to w using compression c.
func WriteBundle(w io.Writer, b *Bundle, c Compression) error {
	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	raw = append(raw, '\n')

	switch c {
	case "", CompressionNone:
		_, err = w.Write(raw)
	case CompressionGzip:
		err = writeGzip(w, raw)
	case CompressionZstd:
		err = writeZstd(w, raw)
	default:
		return fmt.Errorf("unsupported compression %q", c)
	}
	if err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	return nil
}

// WriteBundleFile writes b to path atomically.
func WriteBundleFile(path string, b *Bundle, c Compression) error {
	var buf bytes.Buffer
	if err := WriteBundle(&buf, b, c); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

func writeGzip(w io.Writer, raw []byte) error {
	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func writeZstd(w io.Writer, raw []byte) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return err
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

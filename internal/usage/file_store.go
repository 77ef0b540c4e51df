package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/fyrsmithlabs/contextkit/internal/fileutil"
)

// FileStore keeps the ledger in a single JSON file.
type FileStore struct {
	path        string
	lockTimeout time.Duration
}

// NewFileStore creates a store backed by path. The file is created on the
// first update.
func NewFileStore(path string, lockTimeout time.Duration) *FileStore {
	return &FileStore{path: path, lockTimeout: lockTimeout}
}

// Path returns the ledger file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the ledger without taking the lock. Writers replace the file
// atomically, so a reader always sees a complete ledger.
func (s *FileStore) Load(ctx context.Context) (*Data, error) {
	return s.read()
}

// Update holds an exclusive lock on <path>.lock while it reloads the
// ledger, applies fn and renames the new content into place.
func (s *FileStore) Update(ctx context.Context, fn func(*Data) error) error {
	lock, err := fileutil.AcquireLock(ctx, s.path+".lock", s.lockTimeout)
	if err != nil {
		return fmt.Errorf("failed to lock usage store: %w", err)
	}
	defer func() { _ = lock.Release() }()

	data, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage data: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to save usage data: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (*Data, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read usage data: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorrupted, s.path, err)
	}
	data.normalize()
	return &data, nil
}

package patterns

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/fyrsmithlabs/contextkit/internal/fileutil"
	"github.com/fyrsmithlabs/contextkit/internal/sqlitedb"
)

// Store persists patterns.
type Store interface {
	// Load returns all patterns. A missing store yields an empty map.
	Load(ctx context.Context) (Data, error)

	// Update loads the latest patterns, applies fn and persists the result
	// as one atomic step. Nothing is written if fn returns an error.
	Update(ctx context.Context, fn func(Data) error) error

	Close() error
}

// FileStore keeps patterns in one JSON object keyed by document id.
type FileStore struct {
	path        string
	lockTimeout time.Duration
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string, lockTimeout time.Duration) *FileStore {
	return &FileStore{path: path, lockTimeout: lockTimeout}
}

// Load reads the pattern file.
func (s *FileStore) Load(ctx context.Context) (Data, error) {
	return s.read()
}

// Update locks <path>.lock for the whole read-modify-write cycle.
func (s *FileStore) Update(ctx context.Context, fn func(Data) error) error {
	lock, err := fileutil.AcquireLock(ctx, s.path+".lock", s.lockTimeout)
	if err != nil {
		return fmt.Errorf("failed to lock pattern store: %w", err)
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
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to save patterns: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (Data, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Data{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorrupted, s.path, err)
	}
	if data == nil {
		data = Data{}
	}
	data.normalize()
	return data, nil
}

// SQLiteStore keeps patterns in the patterns table of the shared database.
// List columns hold JSON arrays.
type SQLiteStore struct {
	db *sqlitedb.DB
}

// NewSQLiteStore creates a store on db. The caller owns db.
func NewSQLiteStore(db *sqlitedb.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Load reads every pattern.
func (s *SQLiteStore) Load(ctx context.Context) (Data, error) {
	return loadRows(ctx, s.db.Conn())
}

// Update applies fn inside one write transaction.
func (s *SQLiteStore) Update(ctx context.Context, fn func(Data) error) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		data, err := loadRows(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
		return saveRows(ctx, tx, data)
	})
}

// Close is a no-op.
func (s *SQLiteStore) Close() error { return nil }

func loadRows(ctx context.Context, q queryer) (Data, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT doc_id, usage_count, success_rate, contexts, modifications, last_used FROM patterns")
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	data := Data{}
	for rows.Next() {
		var (
			p        Pattern
			contexts string
			mods     string
			lastUsed sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.UsageCount, &p.SuccessRate, &contexts, &mods, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		if err := json.Unmarshal([]byte(contexts), &p.ContextsUsedIn); err != nil {
			return nil, fmt.Errorf("%w: contexts of %s: %v", ErrStoreCorrupted, p.ID, err)
		}
		if err := json.Unmarshal([]byte(mods), &p.CommonModifications); err != nil {
			return nil, fmt.Errorf("%w: modifications of %s: %v", ErrStoreCorrupted, p.ID, err)
		}
		if lastUsed.Valid && lastUsed.String != "" {
			if p.LastUsed, err = time.Parse(time.RFC3339Nano, lastUsed.String); err != nil {
				return nil, fmt.Errorf("%w: last_used of %s: %v", ErrStoreCorrupted, p.ID, err)
			}
		}
		data[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	data.normalize()
	return data, nil
}

func saveRows(ctx context.Context, tx *sql.Tx, data Data) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM patterns"); err != nil {
		return fmt.Errorf("failed to clear patterns: %w", err)
	}
	for id, p := range data {
		contexts, err := json.Marshal(nonNil(p.ContextsUsedIn))
		if err != nil {
			return err
		}
		mods, err := json.Marshal(nonNil(p.CommonModifications))
		if err != nil {
			return err
		}
		var lastUsed any
		if !p.LastUsed.IsZero() {
			lastUsed = p.LastUsed.UTC().Format(time.RFC3339Nano)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO patterns (doc_id, usage_count, success_rate, contexts, modifications, last_used)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, p.UsageCount, p.SuccessRate, string(contexts), string(mods), lastUsed)
		if err != nil {
			return fmt.Errorf("failed to write pattern %s: %w", id, err)
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

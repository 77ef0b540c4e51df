package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/contextkit/internal/sqlitedb"
)

// SQLiteStore keeps the ledger in the usage_* tables of the shared
// database.
type SQLiteStore struct {
	db *sqlitedb.DB
}

// NewSQLiteStore creates a store on db. The caller owns db; Close does not
// close it.
func NewSQLiteStore(db *sqlitedb.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Load reads the whole ledger.
func (s *SQLiteStore) Load(ctx context.Context) (*Data, error) {
	return load(ctx, s.db.Conn())
}

// Update applies fn inside one write transaction.
func (s *SQLiteStore) Update(ctx context.Context, fn func(*Data) error) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		data, err := load(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
		return save(ctx, tx, data)
	})
}

// Close is a no-op.
func (s *SQLiteStore) Close() error {
	return nil
}

func load(ctx context.Context, q queryer) (*Data, error) {
	data := NewData()

	var version sql.NullString
	err := q.QueryRowContext(ctx, "SELECT value FROM usage_meta WHERE key = 'version'").Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read usage version: %w", err)
	}
	if version.Valid {
		data.Version = version.String
	}

	rows, err := q.QueryContext(ctx, "SELECT doc_id, views, creates, last_used FROM usage_records")
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id       string
			rec      Record
			lastUsed sql.NullString
		)
		if err := rows.Scan(&id, &rec.Views, &rec.Creates, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		if rec.LastUsed, err = parseTime(lastUsed); err != nil {
			return nil, fmt.Errorf("%w: record %s: %v", ErrStoreCorrupted, id, err)
		}
		data.Templates[id] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	qrows, err := q.QueryContext(ctx, "SELECT id, timestamp, query, selected_template FROM usage_queries ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query usage log: %w", err)
	}
	defer qrows.Close()
	for qrows.Next() {
		var (
			entry    QueryEntry
			ts       sql.NullString
			selected sql.NullString
		)
		if err := qrows.Scan(&entry.ID, &ts, &entry.Query, &selected); err != nil {
			return nil, fmt.Errorf("failed to scan query entry: %w", err)
		}
		if entry.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("%w: query %s: %v", ErrStoreCorrupted, entry.ID, err)
		}
		entry.SelectedTemplate = selected.String
		data.Queries = append(data.Queries, entry)
	}
	return data, qrows.Err()
}

func save(ctx context.Context, tx *sql.Tx, data *Data) error {
	stmts := []string{
		"DELETE FROM usage_records",
		"DELETE FROM usage_queries",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear usage tables: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO usage_meta (key, value) VALUES ('version', ?)", data.Version); err != nil {
		return fmt.Errorf("failed to write usage version: %w", err)
	}

	for id, rec := range data.Templates {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO usage_records (doc_id, views, creates, last_used) VALUES (?, ?, ?, ?)",
			id, rec.Views, rec.Creates, formatTime(rec.LastUsed))
		if err != nil {
			return fmt.Errorf("failed to write usage record %s: %w", id, err)
		}
	}

	for _, entry := range data.Queries {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO usage_queries (id, timestamp, query, selected_template) VALUES (?, ?, ?, ?)",
			entry.ID, formatTime(entry.Timestamp), entry.Query, nullString(entry.SelectedTemplate))
		if err != nil {
			return fmt.Errorf("failed to write query entry: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s.String)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

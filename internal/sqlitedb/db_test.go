package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "ctxkit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_CreatesSchema(t *testing.T) {
	db := openTemp(t)

	for _, table := range []string{"usage_records", "usage_queries", "usage_meta", "patterns", "schema_version"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	var version int
	require.NoError(t, db.Conn().QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, SchemaVersion, version)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctxkit.db")
	ctx := context.Background()

	db, err := Open(ctx, path, nil)
	require.NoError(t, err)
	_, err = db.Conn().Exec("INSERT INTO usage_records (doc_id, views) VALUES ('a', 2)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer db.Close()

	var views int
	require.NoError(t, db.Conn().QueryRow("SELECT views FROM usage_records WHERE doc_id='a'").Scan(&views))
	assert.Equal(t, 2, views)
	assert.Equal(t, path, db.Path())
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO usage_meta (key, value) VALUES ('version', '1.0')")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("UPDATE usage_meta SET value='2.0'"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var value string
	require.NoError(t, db.Conn().QueryRow("SELECT value FROM usage_meta WHERE key='version'").Scan(&value))
	assert.Equal(t, "1.0", value)
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	db := openTemp(t)

	assert.Panics(t, func() {
		_ = db.WithTx(context.Background(), func(tx *sql.Tx) error {
			_, _ = tx.Exec("INSERT INTO usage_meta (key, value) VALUES ('k', 'v')")
			panic("boom")
		})
	})

	var n int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM usage_meta").Scan(&n))
	assert.Zero(t, n)
}

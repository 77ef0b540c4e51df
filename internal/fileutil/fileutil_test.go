package fileutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "store.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":1}`), 0o600))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(data))

	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":2}`), 0o600))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestAcquireLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")
	ctx := context.Background()

	first, err := AcquireLock(ctx, path, time.Second)
	require.NoError(t, err)

	_, err = AcquireLock(ctx, path, 50*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockTimeout)

	require.NoError(t, first.Release())

	second, err := AcquireLock(ctx, path, time.Second)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestAcquireLock_WaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")
	ctx := context.Background()

	first, err := AcquireLock(ctx, path, time.Second)
	require.NoError(t, err)

	released := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = first.Release()
		close(released)
	}()

	second, err := AcquireLock(ctx, path, 5*time.Second)
	require.NoError(t, err)
	<-released
	require.NoError(t, second.Release())
}

func TestAcquireLock_ContextCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	first, err := AcquireLock(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer first.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AcquireLock(ctx, path, 5*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLock_ReleaseNil(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Release())
}

//go:build !windows

package fileutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

// ErrLockTimeout is returned when another process holds the lock for longer
// than the caller is willing to wait.
var ErrLockTimeout = errors.New("timed out waiting for lock")

const lockPollInterval = 25 * time.Millisecond

// Lock represents an exclusive advisory lock on a lock file.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes an exclusive flock on path, waiting up to timeout.
// The lock file is created if needed and our PID is written into it for
// diagnostics. A zero timeout tries exactly once.
func AcquireLock(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			_ = file.Close()
			return nil, fmt.Errorf("locking %s: %w", path, err)
		}
		if !time.Now().Before(deadline) {
			_ = file.Close()
			return nil, lockTimeoutError(path)
		}
		select {
		case <-ctx.Done():
			_ = file.Close()
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}

	if err := file.Truncate(0); err == nil {
		_, _ = file.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}

	return &Lock{path: path, file: file}, nil
}

// Release unlocks and closes the lock file. The file itself is left in
// place; removing it would let a waiter lock an orphaned inode.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("unlocking %s: %w", l.path, unlockErr)
	}
	return closeErr
}

func lockTimeoutError(path string) error {
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return fmt.Errorf("%w: %s is held by PID %s", ErrLockTimeout, path, string(content))
	}
	return fmt.Errorf("%w: %s", ErrLockTimeout, path)
}

// Package filelock provides cross-process exclusive locking for
// persisted blobs (embedding matrices, HNSW indexes). It guards against
// two processes racing to build and write the same (corpus-id,
// model-id) artifact concurrently.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is an exclusive, cross-process file lock over a blob path. The
// lock file lives alongside the blob it protects, suffixed ".lock".
type Lock struct {
	path   string
	fl     *flock.Flock
	locked bool
}

// New creates a Lock guarding blobPath.
func New(blobPath string) *Lock {
	lockPath := blobPath + ".lock"
	return &Lock{path: lockPath, fl: flock.New(lockPath)}
}

// Lock acquires the exclusive lock, blocking until it is available.
func (l *Lock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("filelock: create lock directory: %w", err)
	}
	if err := l.fl.Lock(); err != nil {
		return fmt.Errorf("filelock: acquire lock: %w", err)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Safe to call on an already-unlocked Lock.
func (l *Lock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("filelock: release lock: %w", err)
	}
	l.locked = false
	return nil
}

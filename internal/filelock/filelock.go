// Package filelock serializes builds that target the same output archive and
// publishes finished archives atomically, so readers never observe a
// half-written zip.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("output is locked by another build")

// LockPath returns the lock file path used for an output file.
func LockPath(output string) string { return output + ".lock" }

// Lock guards one output path.
type Lock struct {
	flock *flock.Flock
	path  string
}

// New creates a lock for output. The lock file lives next to it.
func New(output string) *Lock {
	p := LockPath(output)
	return &Lock{flock: flock.New(p), path: p}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// TryLock acquires the lock without blocking. It returns ErrLocked when the
// lock is already held.
func (l *Lock) TryLock() error {
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", l.path, ErrLocked)
	}
	return nil
}

// Unlock releases the lock. The lock file is left in place; removing it
// would let a racing process lock an unlinked inode.
func (l *Lock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// TempFile is an in-progress output. It is created in the target directory
// so the final rename stays on one filesystem.
type TempFile struct {
	*os.File
	target string
	done   bool
}

// tempPattern is the os.CreateTemp pattern for in-progress outputs.
const tempPattern = ".plugpack-*.tmp"

// IsTemp reports whether name looks like an in-progress output file.
func IsTemp(name string) bool {
	ok, _ := filepath.Match(tempPattern, filepath.Base(name))
	return ok
}

// Create opens a temp file that Commit will rename to target.
func Create(target string) (*TempFile, error) {
	f, err := os.CreateTemp(filepath.Dir(target), tempPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return &TempFile{File: f, target: target}, nil
}

// Commit syncs, closes and renames the temp file onto the target.
func (t *TempFile) Commit() error {
	if t.done {
		return errors.New("temp file already finalized")
	}
	if err := t.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := t.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(t.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(t.Name(), t.target); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", t.target, err)
	}
	t.done = true
	return nil
}

// Abort closes and removes the temp file. It is a no-op after Commit, which
// makes it safe to defer.
func (t *TempFile) Abort() {
	if t.done {
		return
	}
	t.done = true
	_ = t.Close()
	_ = os.Remove(t.Name())
}

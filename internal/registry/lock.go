package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Lock holds an advisory file lock on a directory managed by pystand.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the advisory lock guarding dir, retrying until wait has
// elapsed. A lock already held by another process yields ErrBusy so callers
// can report which directory is contended instead of blocking forever.
func AcquireLock(ctx context.Context, dir string, wait time.Duration) (*Lock, error) {
	fl := flock.New(filepath.Join(dir, ".lock"))
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	ok, err := fl.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("registry: %q: %w", dir, ErrBusy)
		}
		return nil, fmt.Errorf("registry: lock %q: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("registry: %q: %w", dir, ErrBusy)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Safe to call once per acquired lock.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

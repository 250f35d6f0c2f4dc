package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/docshelf"
	"github.com/gofrs/flock"
)

// LockRetryDelay is how often a contended lock is retried.
const LockRetryDelay = 250 * time.Millisecond

var _ docshelf.SourceLocker = (*Locker)(nil)

// Locker hands out advisory per-source file locks so that processes
// sharing a cache root never fetch the same source at the same time.
type Locker struct {
	dir string
}

// NewLocker creates a Locker that keeps its lock files in <root>/.locks.
func NewLocker(root string) *Locker {
	return &Locker{dir: filepath.Join(root, ".locks")}
}

// Lock blocks until the lock for source is held or ctx is done.
func (l *Locker) Lock(ctx context.Context, source string) (func() error, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, err
	}

	fl := flock.New(filepath.Join(l.dir, source+".lock"))
	locked, err := fl.TryLockContext(ctx, LockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", source, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: not acquired", source)
	}
	return fl.Unlock, nil
}

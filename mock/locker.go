package mock

import (
	"context"

	"github.com/fwojciec/docshelf"
)

var _ docshelf.SourceLocker = (*SourceLocker)(nil)

// SourceLocker is a mock implementation of docshelf.SourceLocker.
type SourceLocker struct {
	LockFn func(ctx context.Context, source string) (func() error, error)
}

func (l *SourceLocker) Lock(ctx context.Context, source string) (func() error, error) {
	return l.LockFn(ctx, source)
}

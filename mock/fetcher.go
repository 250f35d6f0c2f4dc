package mock

import (
	"context"

	"github.com/fwojciec/docshelf"
)

var _ docshelf.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of docshelf.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, target docshelf.FetchTarget) error
}

func (f *Fetcher) Fetch(ctx context.Context, target docshelf.FetchTarget) error {
	return f.FetchFn(ctx, target)
}

package mock

import (
	"context"

	"github.com/fwojciec/docshelf"
)

var _ docshelf.Indexer = (*Indexer)(nil)

// Indexer is a mock implementation of docshelf.Indexer.
type Indexer struct {
	ReindexFn func(ctx context.Context, source, dir string, files []string) (*docshelf.IndexResult, error)
}

func (i *Indexer) Reindex(ctx context.Context, source, dir string, files []string) (*docshelf.IndexResult, error) {
	return i.ReindexFn(ctx, source, dir, files)
}

package mock

import (
	"context"

	"github.com/fwojciec/docshelf"
)

var _ docshelf.DocsService = (*DocsService)(nil)

// DocsService is a mock implementation of docshelf.DocsService.
type DocsService struct {
	EnsureFn      func(ctx context.Context, source string, opts docshelf.EnsureOptions) (*docshelf.EnsureResult, error)
	ListSourcesFn func(ctx context.Context, category string) ([]*docshelf.SourceStatus, error)
}

func (s *DocsService) Ensure(ctx context.Context, source string, opts docshelf.EnsureOptions) (*docshelf.EnsureResult, error) {
	return s.EnsureFn(ctx, source, opts)
}

func (s *DocsService) ListSources(ctx context.Context, category string) ([]*docshelf.SourceStatus, error) {
	return s.ListSourcesFn(ctx, category)
}

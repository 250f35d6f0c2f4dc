package mock

import (
	"context"

	"github.com/fwojciec/docshelf"
)

var _ docshelf.SearchService = (*SearchService)(nil)

// SearchService is a mock implementation of docshelf.SearchService.
type SearchService struct {
	SearchFn func(ctx context.Context, query string, opts docshelf.SearchOptions) ([]*docshelf.SearchResult, error)
	GrepFn   func(ctx context.Context, pattern string, opts docshelf.GrepOptions) ([]*docshelf.GrepResult, error)
}

func (s *SearchService) Search(ctx context.Context, query string, opts docshelf.SearchOptions) ([]*docshelf.SearchResult, error) {
	return s.SearchFn(ctx, query, opts)
}

func (s *SearchService) Grep(ctx context.Context, pattern string, opts docshelf.GrepOptions) ([]*docshelf.GrepResult, error) {
	return s.GrepFn(ctx, pattern, opts)
}

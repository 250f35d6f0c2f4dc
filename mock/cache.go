package mock

import (
	"context"

	"github.com/fwojciec/docshelf"
)

var _ docshelf.CacheService = (*CacheService)(nil)

// CacheService is a mock implementation of docshelf.CacheService.
type CacheService struct {
	InfoFn          func(ctx context.Context, source string) (*docshelf.CacheInfo, error)
	RecordSuccessFn func(ctx context.Context, source string, fileCount int, indexed bool) error
	SetIndexedFn    func(ctx context.Context, source string, indexed bool) error
	DirFn           func(source string) string
	ListFilesFn     func(ctx context.Context, source string) ([]string, error)
}

func (s *CacheService) Info(ctx context.Context, source string) (*docshelf.CacheInfo, error) {
	return s.InfoFn(ctx, source)
}

func (s *CacheService) RecordSuccess(ctx context.Context, source string, fileCount int, indexed bool) error {
	return s.RecordSuccessFn(ctx, source, fileCount, indexed)
}

func (s *CacheService) SetIndexed(ctx context.Context, source string, indexed bool) error {
	return s.SetIndexedFn(ctx, source, indexed)
}

func (s *CacheService) Dir(source string) string {
	return s.DirFn(source)
}

func (s *CacheService) ListFiles(ctx context.Context, source string) ([]string, error) {
	return s.ListFilesFn(ctx, source)
}

package mock

import (
	"context"

	"github.com/fwojciec/docshelf"
)

var _ docshelf.ChunkService = (*ChunkService)(nil)

// ChunkService is a mock implementation of docshelf.ChunkService.
type ChunkService struct {
	CreateChunksFn         func(ctx context.Context, chunks []*docshelf.Chunk) error
	FindChunksFn           func(ctx context.Context, filter docshelf.ChunkFilter) ([]*docshelf.Chunk, error)
	DeleteChunksBySourceFn func(ctx context.Context, source string) (int, error)
	CountChunksBySourceFn  func(ctx context.Context) ([]docshelf.SourceCount, error)
}

func (s *ChunkService) CreateChunks(ctx context.Context, chunks []*docshelf.Chunk) error {
	return s.CreateChunksFn(ctx, chunks)
}

func (s *ChunkService) FindChunks(ctx context.Context, filter docshelf.ChunkFilter) ([]*docshelf.Chunk, error) {
	return s.FindChunksFn(ctx, filter)
}

func (s *ChunkService) DeleteChunksBySource(ctx context.Context, source string) (int, error) {
	return s.DeleteChunksBySourceFn(ctx, source)
}

func (s *ChunkService) CountChunksBySource(ctx context.Context) ([]docshelf.SourceCount, error) {
	return s.CountChunksBySourceFn(ctx)
}

package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docshelf"
)

// Ensure LoggingChunkService implements docshelf.ChunkService.
var _ docshelf.ChunkService = (*LoggingChunkService)(nil)

// LoggingChunkService wraps a ChunkService with logging of writes.
type LoggingChunkService struct {
	next   docshelf.ChunkService
	logger *slog.Logger
}

// NewLoggingChunkService creates a new LoggingChunkService.
func NewLoggingChunkService(next docshelf.ChunkService, logger *slog.Logger) *LoggingChunkService {
	return &LoggingChunkService{next: next, logger: logger}
}

// CreateChunks delegates to the wrapped service and logs the operation.
func (s *LoggingChunkService) CreateChunks(ctx context.Context, chunks []*docshelf.Chunk) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("create chunks",
			"count", len(chunks),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateChunks(ctx, chunks)
}

// FindChunks delegates to the wrapped service.
func (s *LoggingChunkService) FindChunks(ctx context.Context, filter docshelf.ChunkFilter) ([]*docshelf.Chunk, error) {
	return s.next.FindChunks(ctx, filter)
}

// DeleteChunksBySource delegates to the wrapped service and logs the operation.
func (s *LoggingChunkService) DeleteChunksBySource(ctx context.Context, source string) (n int, err error) {
	defer func(begin time.Time) {
		s.logger.Info("delete chunks",
			"source", source,
			"deleted", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteChunksBySource(ctx, source)
}

// CountChunksBySource delegates to the wrapped service.
func (s *LoggingChunkService) CountChunksBySource(ctx context.Context) ([]docshelf.SourceCount, error) {
	return s.next.CountChunksBySource(ctx)
}

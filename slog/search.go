package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docshelf"
)

// Ensure LoggingSearchService implements docshelf.SearchService.
var _ docshelf.SearchService = (*LoggingSearchService)(nil)

// LoggingSearchService wraps a SearchService with logging.
type LoggingSearchService struct {
	next   docshelf.SearchService
	logger *slog.Logger
}

// NewLoggingSearchService creates a new LoggingSearchService.
func NewLoggingSearchService(next docshelf.SearchService, logger *slog.Logger) *LoggingSearchService {
	return &LoggingSearchService{next: next, logger: logger}
}

// Search delegates to the wrapped service and logs the operation.
func (s *LoggingSearchService) Search(ctx context.Context, query string, opts docshelf.SearchOptions) (results []*docshelf.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Info("search",
			"query", query,
			"source", opts.Source,
			"results", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query, opts)
}

// Grep delegates to the wrapped service and logs the operation.
func (s *LoggingSearchService) Grep(ctx context.Context, pattern string, opts docshelf.GrepOptions) (results []*docshelf.GrepResult, err error) {
	defer func(begin time.Time) {
		s.logger.Info("grep",
			"pattern", pattern,
			"source", opts.Source,
			"results", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Grep(ctx, pattern, opts)
}

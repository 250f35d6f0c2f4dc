// Package slog provides logging decorators for docshelf services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docshelf"
)

// Ensure LoggingFetcher implements docshelf.Fetcher.
var _ docshelf.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   docshelf.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next docshelf.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the operation.
func (f *LoggingFetcher) Fetch(ctx context.Context, target docshelf.FetchTarget) (err error) {
	f.logger.Info("fetch started", "source", target.Source, "url", target.URL)
	defer func(begin time.Time) {
		f.logger.Info("fetch",
			"source", target.Source,
			"url", target.URL,
			"dir", target.Dir,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, target)
}

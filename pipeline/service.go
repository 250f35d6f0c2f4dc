package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fwojciec/docshelf"
)

// Ensure Service implements docshelf.DocsService at compile time.
var _ docshelf.DocsService = (*Service)(nil)

// Service implements docshelf.DocsService by resolving sources, fetching
// them through a Coordinator and handing the files to an Indexer.
type Service struct {
	Sources     docshelf.SourceRegistry
	Cache       docshelf.CacheService
	Coordinator *Coordinator

	// Indexer is nil when storage or an embedding provider is missing;
	// sources are then fetched but never indexed.
	Indexer docshelf.Indexer

	Logger *slog.Logger
}

// Ensure fetches a source if it is missing, stale or forced, and indexes
// it when requested and possible. A fresh but unindexed source is only
// indexed.
//
// Concurrent calls for the same source share one fetch and one indexing
// run; the options of the call that started the work apply to all.
func (s *Service) Ensure(ctx context.Context, name string, opts docshelf.EnsureOptions) (*docshelf.EnsureResult, error) {
	src, err := s.Sources.Resolve(name)
	if err != nil {
		return nil, err
	}

	index := opts.Index && s.Indexer != nil
	target := docshelf.FetchTarget{
		Source:   src.Name,
		URL:      src.URL,
		Dir:      s.Cache.Dir(src.Name),
		MaxItems: src.MaxItems,
	}

	if n := s.Coordinator.Waiting(src.Name); n > 0 {
		s.logger().Info("joining in-flight fetch", "source", src.Name, "waiting", n)
	}

	out, err := s.Coordinator.EnsureFetched(ctx, target, opts.Force, s.finishFetch(src.Name, index))
	if err == nil && !out.Fetched && index && !out.Indexed {
		out, err = s.Coordinator.Finish(ctx, src.Name, target.Dir, s.finishIndexOnly(src.Name))
	}
	if out == nil {
		return nil, err
	}

	return &docshelf.EnsureResult{
		Source:    src.Name,
		Fetched:   out.Fetched,
		FileCount: out.FileCount,
		Indexed:   out.Indexed,
		Shared:    out.Shared,
	}, err
}

// finishFetch records a completed fetch, indexing first if requested.
// An indexing failure still records the fetch, as not indexed, so a
// retry can reindex without fetching again. Chunks committed by the
// failed run are left in place until that reindex replaces them.
func (s *Service) finishFetch(source string, index bool) FinishFunc {
	return func(ctx context.Context, out *docshelf.FetchOutcome) error {
		files, err := s.Cache.ListFiles(ctx, source)
		if err != nil {
			return err
		}
		out.FileCount = len(files)

		var indexErr error
		if index {
			indexErr = s.reindex(ctx, source, out.Dir, files)
			out.Indexed = indexErr == nil
		}

		if err := s.Cache.RecordSuccess(ctx, source, out.FileCount, out.Indexed); err != nil {
			return errors.Join(indexErr, err)
		}
		return indexErr
	}
}

// finishIndexOnly indexes a source whose files are already fresh.
func (s *Service) finishIndexOnly(source string) FinishFunc {
	return func(ctx context.Context, out *docshelf.FetchOutcome) error {
		files, err := s.Cache.ListFiles(ctx, source)
		if err != nil {
			return err
		}
		out.FileCount = len(files)

		if err := s.reindex(ctx, source, out.Dir, files); err != nil {
			return err
		}
		out.Indexed = true
		return s.Cache.SetIndexed(ctx, source, true)
	}
}

func (s *Service) reindex(ctx context.Context, source, dir string, files []string) error {
	res, err := s.Indexer.Reindex(ctx, source, dir, files)
	if err != nil {
		var indexErr *docshelf.IndexError
		if !errors.As(err, &indexErr) {
			err = &docshelf.IndexError{Source: source, Batch: -1, Err: err}
		}
		s.logger().Error("index failed", "source", source, "err", err)
		return err
	}
	s.logger().Info("indexed source", "source", source, "files", res.Files, "chunks", res.Chunks)
	return nil
}

// ListSources returns the registered sources with their cache status.
func (s *Service) ListSources(ctx context.Context, category string) ([]*docshelf.SourceStatus, error) {
	sources, err := s.Sources.List(category)
	if err != nil {
		return nil, err
	}

	statuses := make([]*docshelf.SourceStatus, 0, len(sources))
	for _, src := range sources {
		info, err := s.Cache.Info(ctx, src.Name)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, &docshelf.SourceStatus{
			Name:        src.Name,
			Description: src.Description,
			Category:    src.Category,
			Status:      info.Status(),
			Fetching:    s.Coordinator.Waiting(src.Name) > 0,
		})
	}
	return statuses, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

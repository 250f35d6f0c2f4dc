// Package pipeline orchestrates fetching, chunking, embedding and storing
// documentation sources.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fwojciec/docshelf"
	"golang.org/x/sync/singleflight"
)

// FinishFunc runs after a successful fetch, inside the shared call, and
// fills in the remaining outcome fields. Every coalesced caller observes
// its result.
type FinishFunc func(ctx context.Context, out *docshelf.FetchOutcome) error

// Coordinator guarantees that at most one fetch per source is in flight.
// Concurrent requests for a source that is already being fetched wait
// for that fetch and receive its outcome.
//
// The shared work runs detached from the caller that started it, so a
// caller that gives up does not abort the fetch others are waiting on.
type Coordinator struct {
	Cache   docshelf.CacheService
	Fetcher docshelf.Fetcher

	// Locker serializes fetches across processes. Optional.
	Locker docshelf.SourceLocker

	// Timeout bounds one external fetch. Defaults to docshelf.DefaultFetchTimeout.
	Timeout time.Duration

	group singleflight.Group

	mu      sync.Mutex
	waiting map[string]int
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(cache docshelf.CacheService, fetcher docshelf.Fetcher) *Coordinator {
	return &Coordinator{Cache: cache, Fetcher: fetcher}
}

// EnsureFetched fetches target unless force is false and the cache is
// fresh, then runs finish. A nil finish leaves FileCount and Indexed
// zero for fetched outcomes.
func (c *Coordinator) EnsureFetched(ctx context.Context, target docshelf.FetchTarget, force bool, finish FinishFunc) (*docshelf.FetchOutcome, error) {
	if !force {
		info, err := c.Cache.Info(ctx, target.Source)
		if err != nil {
			return nil, err
		}
		if info.Exists && !info.IsStale {
			return &docshelf.FetchOutcome{
				Dir:       info.Dir,
				FileCount: info.FileCount,
				Indexed:   info.Indexed,
			}, nil
		}
	}

	return c.share(ctx, target.Source, func(ctx context.Context) (*docshelf.FetchOutcome, error) {
		if err := c.fetch(ctx, target); err != nil {
			return nil, err
		}
		out := &docshelf.FetchOutcome{Fetched: true, Dir: target.Dir}
		if finish == nil {
			return out, nil
		}
		return out, finish(ctx, out)
	})
}

// Finish runs finish without fetching. It joins a fetch of the same
// source that is already in flight instead of running alongside it.
func (c *Coordinator) Finish(ctx context.Context, source, dir string, finish FinishFunc) (*docshelf.FetchOutcome, error) {
	return c.share(ctx, source, func(ctx context.Context) (*docshelf.FetchOutcome, error) {
		out := &docshelf.FetchOutcome{Dir: dir}
		return out, finish(ctx, out)
	})
}

// Waiting returns the number of callers currently waiting on the
// in-flight call for source.
func (c *Coordinator) Waiting(source string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting[source]
}

// share runs fn once per in-flight source. The entry is removed by the
// singleflight group when fn returns, whatever the result.
func (c *Coordinator) share(ctx context.Context, source string, fn func(context.Context) (*docshelf.FetchOutcome, error)) (*docshelf.FetchOutcome, error) {
	detached := context.WithoutCancel(ctx)

	c.mu.Lock()
	ch := c.group.DoChan(source, func() (any, error) {
		return fn(detached)
	})
	if c.waiting == nil {
		c.waiting = make(map[string]int)
	}
	c.waiting[source]++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.waiting[source]--; c.waiting[source] <= 0 {
			delete(c.waiting, source)
		}
		c.mu.Unlock()
	}()

	select {
	case res := <-ch:
		out, _ := res.Val.(*docshelf.FetchOutcome)
		if out == nil {
			return nil, res.Err
		}
		// Each caller gets its own copy of the shared outcome.
		o := *out
		o.Shared = res.Shared
		return &o, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetch runs the external fetcher under the per-source lock and timeout.
func (c *Coordinator) fetch(ctx context.Context, target docshelf.FetchTarget) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	if c.Locker != nil {
		unlock, err := c.Locker.Lock(ctx, target.Source)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return &docshelf.FetchError{Source: target.Source, Kind: docshelf.FetchTimeout, Err: err}
			}
			return err
		}
		defer unlock()
	}

	err := c.Fetcher.Fetch(ctx, target)
	if err == nil {
		return nil
	}

	var fetchErr *docshelf.FetchError
	if !errors.As(err, &fetchErr) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &docshelf.FetchError{Source: target.Source, Kind: docshelf.FetchTimeout, Err: err}
	}
	return err
}

func (c *Coordinator) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return docshelf.DefaultFetchTimeout
}

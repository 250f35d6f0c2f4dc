package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/docshelf"
	"github.com/fwojciec/docshelf/mock"
	"github.com/fwojciec/docshelf/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheWith(info docshelf.CacheInfo) *mock.CacheService {
	return &mock.CacheService{
		InfoFn: func(_ context.Context, source string) (*docshelf.CacheInfo, error) {
			i := info
			i.Dir = "/cache/" + source
			return &i, nil
		},
		DirFn: func(source string) string { return "/cache/" + source },
	}
}

var (
	freshCache = docshelf.CacheInfo{Exists: true, FileCount: 3, Indexed: true}
	staleCache = docshelf.CacheInfo{Exists: true, FileCount: 3, IsStale: true}
	emptyCache = docshelf.CacheInfo{}
)

func fetchTarget(source string) docshelf.FetchTarget {
	return docshelf.FetchTarget{Source: source, URL: "https://example.com/" + source, Dir: "/cache/" + source}
}

// blockingFetcher counts calls and blocks each one until release is closed.
type blockingFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{release: make(chan struct{})}
}

func (f *blockingFetcher) Fetch(ctx context.Context, _ docshelf.FetchTarget) error {
	f.calls.Add(1)
	select {
	case <-f.release:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestCoordinator_EnsureFetched(t *testing.T) {
	t.Parallel()

	t.Run("skips the fetch when the cache is fresh", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, docshelf.FetchTarget) error {
				t.Fatal("fetcher must not run")
				return nil
			},
		}
		c := pipeline.NewCoordinator(cacheWith(freshCache), fetcher)

		out, err := c.EnsureFetched(context.Background(), fetchTarget("react"), false, nil)
		require.NoError(t, err)
		assert.False(t, out.Fetched)
		assert.Equal(t, 3, out.FileCount)
		assert.True(t, out.Indexed)
		assert.Equal(t, "/cache/react", out.Dir)
	})

	t.Run("fetches when the cache is stale or missing", func(t *testing.T) {
		t.Parallel()

		for _, info := range []docshelf.CacheInfo{staleCache, emptyCache} {
			var got docshelf.FetchTarget
			fetcher := &mock.Fetcher{
				FetchFn: func(_ context.Context, target docshelf.FetchTarget) error {
					got = target
					return nil
				},
			}
			c := pipeline.NewCoordinator(cacheWith(info), fetcher)

			out, err := c.EnsureFetched(context.Background(), fetchTarget("react"), false, nil)
			require.NoError(t, err)
			assert.True(t, out.Fetched)
			assert.False(t, out.Shared)
			assert.Equal(t, fetchTarget("react"), got)
		}
	})

	t.Run("force bypasses a fresh cache", func(t *testing.T) {
		t.Parallel()

		var calls int
		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, docshelf.FetchTarget) error {
				calls++
				return nil
			},
		}
		c := pipeline.NewCoordinator(cacheWith(freshCache), fetcher)

		out, err := c.EnsureFetched(context.Background(), fetchTarget("react"), true, nil)
		require.NoError(t, err)
		assert.True(t, out.Fetched)
		assert.Equal(t, 1, calls)
	})

	t.Run("coalesces concurrent fetches of one source", func(t *testing.T) {
		t.Parallel()

		fetcher := newBlockingFetcher()
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)

		var finishes atomic.Int32
		finish := func(_ context.Context, out *docshelf.FetchOutcome) error {
			finishes.Add(1)
			out.FileCount = 12
			return nil
		}

		var wg sync.WaitGroup
		outs := make([]*docshelf.FetchOutcome, 2)
		errs := make([]error, 2)
		for i := range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				outs[i], errs[i] = c.EnsureFetched(context.Background(), fetchTarget("x"), false, finish)
			}()
		}

		require.Eventually(t, func() bool { return c.Waiting("x") == 2 }, 5*time.Second, time.Millisecond)
		close(fetcher.release)
		wg.Wait()

		assert.Equal(t, int32(1), fetcher.calls.Load())
		assert.Equal(t, int32(1), finishes.Load())
		for i := range 2 {
			require.NoError(t, errs[i])
			assert.True(t, outs[i].Fetched)
			assert.True(t, outs[i].Shared)
			assert.Equal(t, 12, outs[i].FileCount)
		}
		assert.NotSame(t, outs[0], outs[1])
		assert.Zero(t, c.Waiting("x"))
	})

	t.Run("coalesced callers observe the same failure", func(t *testing.T) {
		t.Parallel()

		fetcher := newBlockingFetcher()
		fetcher.err = &docshelf.FetchError{Source: "x", Kind: docshelf.FetchExit, ExitCode: 2}
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = c.EnsureFetched(context.Background(), fetchTarget("x"), false, nil)
			}()
		}

		require.Eventually(t, func() bool { return c.Waiting("x") == 2 }, 5*time.Second, time.Millisecond)
		close(fetcher.release)
		wg.Wait()

		assert.Equal(t, int32(1), fetcher.calls.Load())
		for _, err := range errs {
			var fetchErr *docshelf.FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, 2, fetchErr.ExitCode)
		}
	})

	t.Run("fetches distinct sources in parallel", func(t *testing.T) {
		t.Parallel()

		var running atomic.Int32
		release := make(chan struct{})
		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, docshelf.FetchTarget) error {
				running.Add(1)
				<-release
				return nil
			},
		}
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)

		var wg sync.WaitGroup
		for _, source := range []string{"react", "stripe"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.EnsureFetched(context.Background(), fetchTarget(source), false, nil)
				assert.NoError(t, err)
			}()
		}

		require.Eventually(t, func() bool { return running.Load() == 2 }, 5*time.Second, time.Millisecond)
		close(release)
		wg.Wait()
	})

	t.Run("releases the in-flight entry after a failure", func(t *testing.T) {
		t.Parallel()

		var calls int
		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, docshelf.FetchTarget) error {
				calls++
				if calls == 1 {
					return &docshelf.FetchError{Source: "x", Kind: docshelf.FetchLaunch, Err: errors.New("not found")}
				}
				return nil
			},
		}
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)

		_, err := c.EnsureFetched(context.Background(), fetchTarget("x"), false, nil)
		require.Error(t, err)

		out, err := c.EnsureFetched(context.Background(), fetchTarget("x"), false, nil)
		require.NoError(t, err)
		assert.True(t, out.Fetched)
		assert.Equal(t, 2, calls)
	})

	t.Run("a caller giving up does not cancel the shared fetch", func(t *testing.T) {
		t.Parallel()

		fetcher := newBlockingFetcher()
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)

		ctx, cancel := context.WithCancel(context.Background())
		leaderErr := make(chan error, 1)
		go func() {
			_, err := c.EnsureFetched(ctx, fetchTarget("x"), false, nil)
			leaderErr <- err
		}()
		require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, 5*time.Second, time.Millisecond)

		followerOut := make(chan *docshelf.FetchOutcome, 1)
		go func() {
			out, err := c.EnsureFetched(context.Background(), fetchTarget("x"), false, nil)
			assert.NoError(t, err)
			followerOut <- out
		}()
		require.Eventually(t, func() bool { return c.Waiting("x") == 2 }, 5*time.Second, time.Millisecond)

		cancel()
		assert.ErrorIs(t, <-leaderErr, context.Canceled)

		close(fetcher.release)
		out := <-followerOut
		require.NotNil(t, out)
		assert.True(t, out.Fetched)
		assert.Equal(t, int32(1), fetcher.calls.Load())
	})

	t.Run("reports a timeout as a fetch error", func(t *testing.T) {
		t.Parallel()

		fetcher := newBlockingFetcher()
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)
		c.Timeout = 50 * time.Millisecond

		_, err := c.EnsureFetched(context.Background(), fetchTarget("x"), false, nil)

		var fetchErr *docshelf.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, docshelf.FetchTimeout, fetchErr.Kind)
		assert.Zero(t, c.Waiting("x"))
	})

	t.Run("holds the source lock during the fetch", func(t *testing.T) {
		t.Parallel()

		var events []string
		locker := &mock.SourceLocker{
			LockFn: func(_ context.Context, source string) (func() error, error) {
				events = append(events, "lock "+source)
				return func() error {
					events = append(events, "unlock "+source)
					return nil
				}, nil
			},
		}
		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, docshelf.FetchTarget) error {
				events = append(events, "fetch")
				return nil
			},
		}
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)
		c.Locker = locker

		_, err := c.EnsureFetched(context.Background(), fetchTarget("x"), false, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"lock x", "fetch", "unlock x"}, events)
	})

	t.Run("does not finish after a failed fetch", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, docshelf.FetchTarget) error {
				return &docshelf.FetchError{Source: "x", Kind: docshelf.FetchExit, ExitCode: 1}
			},
		}
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)

		_, err := c.EnsureFetched(context.Background(), fetchTarget("x"), false, func(context.Context, *docshelf.FetchOutcome) error {
			t.Fatal("finish must not run")
			return nil
		})
		require.Error(t, err)
	})

	t.Run("returns the outcome together with a finish error", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{FetchFn: func(context.Context, docshelf.FetchTarget) error { return nil }}
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)

		indexErr := &docshelf.IndexError{Source: "x", Batch: 1, Batches: 3, Err: errors.New("boom")}
		out, err := c.EnsureFetched(context.Background(), fetchTarget("x"), false, func(_ context.Context, out *docshelf.FetchOutcome) error {
			out.FileCount = 4
			return indexErr
		})

		require.ErrorIs(t, err, indexErr)
		require.NotNil(t, out)
		assert.True(t, out.Fetched)
		assert.Equal(t, 4, out.FileCount)
	})
}

func TestCoordinator_Finish(t *testing.T) {
	t.Parallel()

	t.Run("joins an in-flight fetch", func(t *testing.T) {
		t.Parallel()

		fetcher := newBlockingFetcher()
		c := pipeline.NewCoordinator(cacheWith(emptyCache), fetcher)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, err := c.EnsureFetched(context.Background(), fetchTarget("x"), false, nil)
			assert.NoError(t, err)
		}()
		require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, 5*time.Second, time.Millisecond)

		finished := make(chan *docshelf.FetchOutcome, 1)
		go func() {
			out, err := c.Finish(context.Background(), "x", "/cache/x", func(context.Context, *docshelf.FetchOutcome) error {
				t.Error("finish must not run while a fetch is in flight")
				return nil
			})
			assert.NoError(t, err)
			finished <- out
		}()
		require.Eventually(t, func() bool { return c.Waiting("x") == 2 }, 5*time.Second, time.Millisecond)

		close(fetcher.release)
		<-done
		out := <-finished
		assert.True(t, out.Fetched)
		assert.True(t, out.Shared)
	})

	t.Run("runs alone when nothing is in flight", func(t *testing.T) {
		t.Parallel()

		c := pipeline.NewCoordinator(cacheWith(freshCache), &mock.Fetcher{})

		out, err := c.Finish(context.Background(), "x", "/cache/x", func(_ context.Context, out *docshelf.FetchOutcome) error {
			out.Indexed = true
			return nil
		})
		require.NoError(t, err)
		assert.False(t, out.Fetched)
		assert.True(t, out.Indexed)
		assert.Equal(t, "/cache/x", out.Dir)
	})
}

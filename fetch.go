package docshelf

import (
	"context"
	"fmt"
	"time"
)

// DefaultFetchTimeout bounds a single invocation of the external fetcher.
const DefaultFetchTimeout = 10 * time.Minute

// FetchTarget tells the external fetcher what to retrieve and where to
// write it.
type FetchTarget struct {
	Source   string
	URL      string
	Dir      string
	MaxItems int
}

// Fetcher retrieves a documentation set into a directory of text files.
// Implementations typically run an external crawler process.
type Fetcher interface {
	// Fetch blocks until the documentation set has been written to
	// target.Dir. The context carries the timeout; on expiry the
	// implementation must terminate any external process and return a
	// FetchError of kind FetchTimeout.
	Fetch(ctx context.Context, target FetchTarget) error
}

// FetchOutcome reports the result of an ensure-fetched request.
type FetchOutcome struct {
	// Fetched is true when the external fetcher ran, for this caller or
	// for a caller it was coalesced with. False means the cache was fresh.
	Fetched bool

	// Shared is true when the outcome was delivered to more than one caller.
	Shared bool

	Dir       string
	FileCount int
	Indexed   bool
}

// FetchErrorKind distinguishes fetch failure modes.
type FetchErrorKind string

// Fetch failure kinds.
const (
	FetchLaunch  FetchErrorKind = "launch"
	FetchExit    FetchErrorKind = "exit"
	FetchTimeout FetchErrorKind = "timeout"
)

// FetchError is returned when the external fetcher could not be started,
// exited non-zero, or ran out of time.
type FetchError struct {
	Source   string
	Kind     FetchErrorKind
	ExitCode int

	// Stderr holds the tail of the fetcher's diagnostic output.
	Stderr string

	Err error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchLaunch:
		return fmt.Sprintf("fetch %s: could not start fetcher: %v", e.Source, e.Err)
	case FetchTimeout:
		return fmt.Sprintf("fetch %s: timed out", e.Source)
	default:
		if e.Stderr != "" {
			return fmt.Sprintf("fetch %s: fetcher exited with code %d: %s", e.Source, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("fetch %s: fetcher exited with code %d", e.Source, e.ExitCode)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SourceLocker serializes fetches of one source across processes.
type SourceLocker interface {
	// Lock blocks until the lock for source is held or ctx is done.
	Lock(ctx context.Context, source string) (unlock func() error, err error)
}

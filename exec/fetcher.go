// Package exec runs an external documentation crawler as a child process.
package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/docshelf"
)

// DefaultCommand is the crawler invoked when none is configured.
const DefaultCommand = "docpull"

// StderrTail is the number of trailing stderr bytes kept for diagnostics.
const StderrTail = 10_000

// StagingDir is the directory, next to the target directories, where a
// crawl writes its output until it succeeds.
const StagingDir = ".staging"

// Ensure Fetcher implements docshelf.Fetcher at compile time.
var _ docshelf.Fetcher = (*Fetcher)(nil)

// Fetcher invokes an external crawler as
//
//	<command> [args...] <url> --output-dir <dir> [--max-pages N]
//
// and waits for it to exit.
type Fetcher struct {
	command   string
	args      []string
	timeout   time.Duration
	waitDelay time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the wall-clock limit of one crawl.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithArgs sets arguments placed before the URL, for wrappers such as
// "uvx docpull".
func WithArgs(args ...string) Option {
	return func(f *Fetcher) {
		f.args = args
	}
}

// WithWaitDelay bounds how long to wait for output pipes to close after
// the process has been killed.
func WithWaitDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.waitDelay = d
	}
}

// NewFetcher creates a Fetcher for command.
func NewFetcher(command string, opts ...Option) *Fetcher {
	f := &Fetcher{
		command:   command,
		timeout:   docshelf.DefaultFetchTimeout,
		waitDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Args returns the command-line arguments for target.
func (f *Fetcher) Args(target docshelf.FetchTarget) []string {
	args := append([]string{}, f.args...)
	args = append(args, target.URL, "--output-dir", target.Dir)
	if target.MaxItems > 0 {
		args = append(args, "--max-pages", strconv.Itoa(target.MaxItems))
	}
	return args
}

// Fetch runs the crawler. The process is killed when the timeout expires
// or ctx is cancelled.
//
// The crawler writes into a staging directory that replaces target.Dir
// only after a clean exit. A failed crawl leaves target.Dir untouched.
func (f *Fetcher) Fetch(ctx context.Context, target docshelf.FetchTarget) error {
	staging := filepath.Join(filepath.Dir(target.Dir), StagingDir, filepath.Base(target.Dir))
	if err := os.RemoveAll(staging); err != nil {
		return &docshelf.FetchError{Source: target.Source, Kind: docshelf.FetchLaunch, Err: err}
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return &docshelf.FetchError{Source: target.Source, Kind: docshelf.FetchLaunch, Err: err}
	}

	staged := target
	staged.Dir = staging
	if err := f.run(ctx, staged); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}

	if err := os.RemoveAll(target.Dir); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("replace %s: %w", target.Dir, err)
	}
	if err := os.Rename(staging, target.Dir); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("replace %s: %w", target.Dir, err)
	}
	return nil
}

func (f *Fetcher) run(ctx context.Context, target docshelf.FetchTarget) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	stderr := newTailBuffer(StderrTail)
	cmd := osexec.CommandContext(ctx, f.command, f.Args(target)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	cmd.WaitDelay = f.waitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &docshelf.FetchError{
			Source: target.Source,
			Kind:   docshelf.FetchTimeout,
			Stderr: stderr.String(),
			Err:    ctx.Err(),
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		return &docshelf.FetchError{
			Source:   target.Source,
			Kind:     docshelf.FetchExit,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	return &docshelf.FetchError{Source: target.Source, Kind: docshelf.FetchLaunch, Err: err}
}

// tailBuffer is an io.Writer that keeps only the last max bytes written.
type tailBuffer struct {
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= b.max {
		b.buf = append(b.buf[:0], p[len(p)-b.max:]...)
		return n, nil
	}
	if over := len(b.buf) + len(p) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	b.buf = append(b.buf, p...)
	return n, nil
}

// String returns the retained bytes, trimmed, with any multi-byte
// character cut by truncation dropped.
func (b *tailBuffer) String() string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b.buf), ""))
}

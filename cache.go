package docshelf

import (
	"context"
	"strconv"
	"time"
)

// CacheTTL is the maximum age of a fetched source before it is stale.
const CacheTTL = 7 * 24 * time.Hour

// CacheMeta is the persisted fetch state of a source.
type CacheMeta struct {
	FetchedAt time.Time
	FileCount int
	Indexed   bool
}

// CacheInfo describes the current cache state of a source.
type CacheInfo struct {
	Exists    bool      `json:"exists"`
	FetchedAt time.Time `json:"fetchedAt"`
	FileCount int       `json:"fileCount"`
	Indexed   bool      `json:"indexed"`
	IsStale   bool      `json:"isStale"`

	// Dir is the directory holding the fetched files.
	Dir string `json:"dir"`
}

// IsStale reports whether a fetch made at fetchedAt has outlived the TTL.
// A fetch made exactly TTL ago is still fresh.
func IsStale(fetchedAt, now time.Time) bool {
	return now.Sub(fetchedAt) > CacheTTL
}

// Status renders the cache state for listings: "not fetched", "stale",
// or "<n> files[, indexed]".
func (i *CacheInfo) Status() string {
	switch {
	case !i.Exists:
		return "not fetched"
	case i.IsStale:
		return "stale"
	case i.Indexed:
		return pluralFiles(i.FileCount) + ", indexed"
	default:
		return pluralFiles(i.FileCount)
	}
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return strconv.Itoa(n) + " files"
}

// CacheService tracks per-source fetch state on disk.
type CacheService interface {
	// Info returns the cache state of a source. Absence of metadata is a
	// valid state and yields Exists=false rather than an error.
	Info(ctx context.Context, source string) (*CacheInfo, error)

	// RecordSuccess atomically overwrites the metadata of a source after
	// a successful fetch (and, if requested, indexing).
	RecordSuccess(ctx context.Context, source string, fileCount int, indexed bool) error

	// SetIndexed updates the indexed flag of a source, keeping its fetch
	// time. Returns ENOTFOUND if the source has never been fetched.
	SetIndexed(ctx context.Context, source string, indexed bool) error

	// Dir returns the directory the fetcher writes the source into.
	Dir(source string) string

	// ListFiles returns the relative paths of the text files of a source,
	// sorted lexically.
	ListFiles(ctx context.Context, source string) ([]string, error)
}

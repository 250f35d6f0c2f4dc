// Package fs provides file-based cache tracking for fetched documentation.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/docshelf"
	"github.com/google/renameio"
)

// MetaFile is the name of the per-source metadata file.
const MetaFile = ".docshelf.json"

// TextExtensions lists the file extensions considered fetched documents.
var TextExtensions = []string{".md", ".mdx", ".markdown", ".txt", ".rst"}

// Ensure CacheService implements docshelf.CacheService at compile time.
var _ docshelf.CacheService = (*CacheService)(nil)

// CacheService tracks fetched sources under a root directory. Each source
// lives in its own subdirectory alongside a MetaFile.
type CacheService struct {
	root string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewCacheService creates a CacheService rooted at root.
func NewCacheService(root string) *CacheService {
	return &CacheService{root: root, Now: time.Now}
}

// meta is the on-disk form of docshelf.CacheMeta.
type meta struct {
	FetchedAt int64 `json:"fetchedAt"`
	FileCount int   `json:"fileCount"`
	Indexed   bool  `json:"indexed"`
}

// Dir returns the directory of a source.
func (s *CacheService) Dir(source string) string {
	return filepath.Join(s.root, source)
}

// Info returns the cache state of a source. A source directory without
// readable metadata is treated as a legacy fetch: its modification time
// stands in for the fetch time and its files are counted.
func (s *CacheService) Info(ctx context.Context, source string) (*docshelf.CacheInfo, error) {
	dir := s.Dir(source)
	info := &docshelf.CacheInfo{Dir: dir}

	if m, err := s.readMeta(source); err == nil {
		info.Exists = true
		info.FetchedAt = time.UnixMilli(m.FetchedAt)
		info.FileCount = m.FileCount
		info.Indexed = m.Indexed
		info.IsStale = docshelf.IsStale(info.FetchedAt, s.Now())
		return info, nil
	}

	fi, err := os.Stat(dir)
	if errors.Is(err, iofs.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return info, nil
	}

	files, err := s.ListFiles(ctx, source)
	if err != nil {
		return nil, err
	}

	info.Exists = true
	info.FetchedAt = fi.ModTime()
	info.FileCount = len(files)
	info.IsStale = docshelf.IsStale(info.FetchedAt, s.Now())
	return info, nil
}

func (s *CacheService) readMeta(source string) (*meta, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(source), MetaFile))
	if err != nil {
		return nil, err
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.FetchedAt <= 0 {
		return nil, errors.New("missing fetchedAt")
	}
	return &m, nil
}

// RecordSuccess overwrites the metadata of a source. The file is written
// to a temporary name and renamed into place.
func (s *CacheService) RecordSuccess(_ context.Context, source string, fileCount int, indexed bool) error {
	return s.writeMeta(source, meta{
		FetchedAt: s.Now().UnixMilli(),
		FileCount: fileCount,
		Indexed:   indexed,
	})
}

// SetIndexed rewrites the indexed flag of a source. A legacy source gets
// its inferred fetch time and file count persisted.
func (s *CacheService) SetIndexed(ctx context.Context, source string, indexed bool) error {
	info, err := s.Info(ctx, source)
	if err != nil {
		return err
	}
	if !info.Exists {
		return docshelf.Errorf(docshelf.ENOTFOUND, "source %q has not been fetched", source)
	}
	return s.writeMeta(source, meta{
		FetchedAt: info.FetchedAt.UnixMilli(),
		FileCount: info.FileCount,
		Indexed:   indexed,
	})
}

func (s *CacheService) writeMeta(source string, m meta) error {
	dir := s.Dir(source)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return renameio.WriteFile(filepath.Join(dir, MetaFile), data, 0644)
}

// ListFiles returns the text files of a source relative to its directory,
// using forward slashes, sorted. Dot-files and dot-directories are skipped.
func (s *CacheService) ListFiles(ctx context.Context, source string) ([]string, error) {
	root := s.Dir(source)
	var files []string

	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isTextFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

func isTextFile(name string) bool {
	return slices.Contains(TextExtensions, strings.ToLower(filepath.Ext(name)))
}

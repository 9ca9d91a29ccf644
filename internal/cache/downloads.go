package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pystand/pystand/internal/feed"
)

// ErrNoDownloads indicates a release tag has no staged bytes on disk.
var ErrNoDownloads = errors.New("no downloads for release")

// DownloadsDir returns the directory holding staged asset bytes, one
// subdirectory per release tag.
func (s *Store) DownloadsDir() string {
	return filepath.Join(s.dir, "downloads")
}

func (s *Store) tagDownloadsDir(tag string) string {
	return filepath.Join(s.DownloadsDir(), tag)
}

// Fetch returns the local path of the asset's bytes, downloading them on
// first use. Bytes are keyed by (tag, asset filename) so repeated installs of
// the same asset reuse the cached copy. The download is written to a unique
// temp file and renamed into place, so a concurrent reader never observes a
// half-written cache file.
func (s *Store) Fetch(ctx context.Context, tag string, a feed.Asset) (string, error) {
	dst := filepath.Join(s.tagDownloadsDir(tag), a.Name)
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("cache: create downloads dir: %w", err)
	}

	tmp := dst + ".tmp-" + uuid.NewString()
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("cache: create download temp file: %w", err)
	}
	if err := s.feed.Download(ctx, a.URL, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("cache: finish download %q: %w", a.Name, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("cache: commit download %q: %w", a.Name, err)
	}
	return dst, nil
}

// DownloadTags lists the release tags that have staged bytes on disk.
func (s *Store) DownloadTags() ([]string, error) {
	entries, err := os.ReadDir(s.DownloadsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: read downloads dir: %w", err)
	}
	var tags []string
	for _, e := range entries {
		if e.IsDir() {
			tags = append(tags, e.Name())
		}
	}
	return tags, nil
}

// DownloadCount returns how many asset files are staged for a tag.
func (s *Store) DownloadCount(tag string) (int, error) {
	entries, err := os.ReadDir(s.tagDownloadsDir(tag))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("cache: read downloads for %q: %w", tag, err)
	}
	return len(entries), nil
}

// DownloadSize returns the total bytes staged for a tag, or ErrNoDownloads
// when nothing is staged for it.
func (s *Store) DownloadSize(tag string) (int64, error) {
	entries, err := os.ReadDir(s.tagDownloadsDir(tag))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("cache: %w %s", ErrNoDownloads, tag)
		}
		return 0, fmt.Errorf("cache: read downloads for %q: %w", tag, err)
	}
	var total int64
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// RemoveDownloads deletes the staged bytes for one tag.
func (s *Store) RemoveDownloads(tag string) error {
	if err := os.RemoveAll(s.tagDownloadsDir(tag)); err != nil {
		return fmt.Errorf("cache: remove downloads for %q: %w", tag, err)
	}
	return nil
}

// RemoveAllDownloads deletes every staged byte.
func (s *Store) RemoveAllDownloads() error {
	if err := os.RemoveAll(s.DownloadsDir()); err != nil {
		return fmt.Errorf("cache: remove downloads: %w", err)
	}
	return nil
}

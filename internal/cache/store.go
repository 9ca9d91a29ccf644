// Package cache maintains the persistent release cache: a TTL-governed
// latest-tag pointer, per-tag asset catalogs, and downloaded asset bytes.
// Everything lives under one cache directory; catalog metadata is kept in a
// local SQLite database, asset bytes on disk keyed by tag and filename.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/pystand/pystand/internal/feed"
	"github.com/pystand/pystand/internal/version"
)

// Feed is the slice of the release feed the cache consumes. Implemented by
// *feed.Client; faked in tests.
type Feed interface {
	LatestTag(ctx context.Context) (string, error)
	ReleaseAssets(ctx context.Context, tag string) ([]feed.Asset, error)
	Download(ctx context.Context, url string, w io.Writer) error
}

// schema contains the DDL executed on every open. IF NOT EXISTS makes it
// idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS latest_tag (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    tag        TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS releases (
    tag                TEXT PRIMARY KEY,
    fetched_at         TEXT NOT NULL,
    last_referenced_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
    tag          TEXT NOT NULL,
    version      TEXT NOT NULL,
    distribution TEXT NOT NULL,
    name         TEXT NOT NULL,
    url          TEXT NOT NULL,
    checksum     TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (tag, version, distribution)
);
`

// Store is the open release cache. Not safe for concurrent use by multiple
// goroutines; cross-process safety comes from the caller's advisory lock.
type Store struct {
	db   *sql.DB
	dir  string
	feed Feed

	now  func() time.Time
	warn func(format string, args ...any)
}

// Option adjusts Store construction.
type Option func(*Store)

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithWarn routes degraded-mode warnings somewhere visible. Default is to
// drop them.
func WithWarn(warn func(format string, args ...any)) Option {
	return func(s *Store) { s.warn = warn }
}

// Open opens (or creates) the cache database under dir and prepares the
// schema.
func Open(ctx context.Context, dir string, f Feed, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", filepath.Join(dir, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	// One connection: SQLite has a single writer, and a lone connection
	// avoids SQLITE_BUSY between pooled connections needing PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	s := &Store{
		db:   db,
		dir:  dir,
		feed: f,
		now:  time.Now,
		warn: func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the cache base directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func parseStamp(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

// LatestTag returns the cached latest-release pointer when its age is within
// ttl, refreshing it from the feed otherwise. When the feed is unreachable a
// stale pointer is still returned with a warning, because stale availability
// data is enough to resolve an already-installed version. With no cached
// pointer at all the feed error surfaces.
func (s *Store) LatestTag(ctx context.Context, ttl time.Duration) (string, error) {
	var cached string
	var fetchedAt string
	err := s.db.QueryRowContext(ctx, "SELECT tag, fetched_at FROM latest_tag WHERE id = 1").
		Scan(&cached, &fetchedAt)
	haveCached := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("cache: read latest tag: %w", err)
	}

	if haveCached && s.now().Sub(parseStamp(fetchedAt)) <= ttl {
		return cached, nil
	}

	tag, err := s.feed.LatestTag(ctx)
	if err != nil {
		if haveCached {
			s.warn("could not refresh latest release tag, using cached %s: %v", cached, err)
			return cached, nil
		}
		return "", err
	}

	const q = `
		INSERT INTO latest_tag (id, tag, fetched_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET tag = excluded.tag, fetched_at = excluded.fetched_at`
	if _, err := s.db.ExecContext(ctx, q, tag, s.stamp()); err != nil {
		return "", fmt.Errorf("cache: store latest tag: %w", err)
	}
	return tag, nil
}

// CachedLatestTag returns the pointer without consulting the feed, or empty
// if none has ever been fetched.
func (s *Store) CachedLatestTag(ctx context.Context) (string, error) {
	var tag string
	err := s.db.QueryRowContext(ctx, "SELECT tag FROM latest_tag WHERE id = 1").Scan(&tag)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cache: read latest tag: %w", err)
	}
	return tag, nil
}

// Catalog returns the asset catalog for a release tag, fetching and
// persisting it on first use. A fetched catalog is immediately marked
// referenced so the purge grace period starts now. Catalogs persist until
// purged; an upstream release with no parseable assets is remembered as an
// empty catalog rather than refetched.
func (s *Store) Catalog(ctx context.Context, tag string) ([]feed.Asset, error) {
	known, err := s.hasRelease(ctx, tag)
	if err != nil {
		return nil, err
	}
	if known {
		return s.readAssets(ctx, tag)
	}

	assets, err := s.feed.ReleaseAssets(ctx, tag)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: begin catalog tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	now := s.stamp()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO releases (tag, fetched_at, last_referenced_at) VALUES (?, ?, ?)",
		tag, now, now); err != nil {
		return nil, fmt.Errorf("cache: store release %q: %w", tag, err)
	}
	for _, a := range assets {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO assets (tag, version, distribution, name, url, checksum) VALUES (?, ?, ?, ?, ?, ?)",
			tag, a.Version.String(), a.Distribution, a.Name, a.URL, a.Checksum); err != nil {
			return nil, fmt.Errorf("cache: store asset %q: %w", a.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cache: commit catalog %q: %w", tag, err)
	}
	return assets, nil
}

func (s *Store) hasRelease(ctx context.Context, tag string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM releases WHERE tag = ?", tag).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: check release %q: %w", tag, err)
	}
	return true, nil
}

func (s *Store) readAssets(ctx context.Context, tag string) ([]feed.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT version, distribution, name, url, checksum FROM assets WHERE tag = ? ORDER BY version, distribution", tag)
	if err != nil {
		return nil, fmt.Errorf("cache: query catalog %q: %w", tag, err)
	}
	defer rows.Close()

	var assets []feed.Asset
	for rows.Next() {
		var a feed.Asset
		var ver string
		if err := rows.Scan(&ver, &a.Distribution, &a.Name, &a.URL, &a.Checksum); err != nil {
			return nil, fmt.Errorf("cache: scan asset: %w", err)
		}
		key, err := version.Parse(ver)
		if err != nil {
			return nil, fmt.Errorf("cache: corrupt version %q in catalog %q: %w", ver, tag, err)
		}
		a.Version = key
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache: iterate catalog %q: %w", tag, err)
	}
	return assets, nil
}

// MarkReferenced records that an installed version now depends on the tag,
// refreshing its last-referenced timestamp.
func (s *Store) MarkReferenced(ctx context.Context, tag string) error {
	return s.touch(ctx, tag)
}

// UnmarkReferenced records that an installed version depending on the tag was
// removed. The timestamp is refreshed rather than aged: the purge grace
// period restarts from the removal.
func (s *Store) UnmarkReferenced(ctx context.Context, tag string) error {
	return s.touch(ctx, tag)
}

func (s *Store) touch(ctx context.Context, tag string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE releases SET last_referenced_at = ? WHERE tag = ?", s.stamp(), tag); err != nil {
		return fmt.Errorf("cache: touch release %q: %w", tag, err)
	}
	return nil
}

// TagStat describes one cached catalog.
type TagStat struct {
	Tag              string
	FetchedAt        time.Time
	LastReferencedAt time.Time
}

// CachedTags lists every cached catalog, oldest tag first.
func (s *Store) CachedTags(ctx context.Context) ([]TagStat, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT tag, fetched_at, last_referenced_at FROM releases ORDER BY tag")
	if err != nil {
		return nil, fmt.Errorf("cache: query releases: %w", err)
	}
	defer rows.Close()

	var stats []TagStat
	for rows.Next() {
		var st TagStat
		var fetched, referenced string
		if err := rows.Scan(&st.Tag, &fetched, &referenced); err != nil {
			return nil, fmt.Errorf("cache: scan release: %w", err)
		}
		st.FetchedAt = parseStamp(fetched)
		st.LastReferencedAt = parseStamp(referenced)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache: iterate releases: %w", err)
	}
	return stats, nil
}

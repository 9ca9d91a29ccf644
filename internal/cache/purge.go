package cache

import (
	"context"
	"fmt"
	"time"
)

// Purge reclaims catalogs and staged bytes for releases no longer needed.
// A catalog is deleted only when no installed version references its tag, it
// is not the current latest pointer, and its last reference is older than the
// grace period. Referenced tags are never purged regardless of age.
// Returns the tags whose catalogs were deleted.
func (s *Store) Purge(ctx context.Context, referenced map[string]bool, grace time.Duration) ([]string, error) {
	latest, err := s.CachedLatestTag(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.CachedTags(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-grace)
	keep := make(map[string]bool, len(stats)+len(referenced)+1)
	for tag := range referenced {
		keep[tag] = true
	}
	if latest != "" {
		keep[latest] = true
	}

	var purged []string
	for _, st := range stats {
		if keep[st.Tag] || !st.LastReferencedAt.Before(cutoff) {
			keep[st.Tag] = true
			continue
		}
		if err := s.deleteCatalog(ctx, st.Tag); err != nil {
			return purged, err
		}
		purged = append(purged, st.Tag)
	}

	// Drop staged bytes for any tag no longer worth keeping, including tags
	// whose catalog is already gone.
	tags, err := s.DownloadTags()
	if err != nil {
		return purged, err
	}
	for _, tag := range tags {
		if !keep[tag] {
			if err := s.RemoveDownloads(tag); err != nil {
				return purged, err
			}
		}
	}
	return purged, nil
}

func (s *Store) deleteCatalog(ctx context.Context, tag string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache: begin purge tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM assets WHERE tag = ?", tag); err != nil {
		return fmt.Errorf("cache: purge assets for %q: %w", tag, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM releases WHERE tag = ?", tag); err != nil {
		return fmt.Errorf("cache: purge release %q: %w", tag, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache: commit purge of %q: %w", tag, err)
	}
	return nil
}

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pystand/pystand/internal/version"
)

// RebuildSymlinks recomputes the whole convenience link set from the
// installed directories: for every major.minor line a link named "major.minor"
// to its newest install, and for every major a link named "major" to its
// newest line. The set is always derived wholesale from what is on disk,
// never patched incrementally, so partial failures cannot leave drift behind.
//
// A major or minor link only targets a pre-release when the line has no final
// release to point at. Each link is replaced atomically (create aside, then
// rename) so a concurrent reader never observes a missing link.
func (r *Registry) RebuildSymlinks() error {
	entries, err := os.ReadDir(r.base)
	if err != nil {
		return fmt.Errorf("registry: read base dir: %w", err)
	}

	oldLinks := make(map[string]string)
	var versions []string
	for _, e := range entries {
		name := e.Name()
		if name == "" || name[0] == '.' || name[0] < '0' || name[0] > '9' {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			if target, err := os.Readlink(filepath.Join(r.base, name)); err == nil {
				oldLinks[name] = target
			}
			continue
		}
		if e.IsDir() {
			versions = append(versions, name)
		}
	}

	newLinks := computeLinks(versions)

	// Drop links with no successor. Links whose target merely changed are
	// left in place for replaceLink to rename over, so a reader resolving
	// one mid-rebuild never finds it missing.
	for name := range oldLinks {
		if _, ok := newLinks[name]; !ok {
			if err := os.Remove(filepath.Join(r.base, name)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("registry: remove stale link %q: %w", name, err)
			}
		}
	}

	// Create or replace the rest.
	for name, target := range newLinks {
		if oldLinks[name] == target {
			continue
		}
		if err := r.replaceLink(name, target); err != nil {
			return err
		}
	}
	return nil
}

// computeLinks derives the full link set for the given version directory
// names. Links chain: "3" points at "3.12", which points at "3.12.3".
func computeLinks(versions []string) map[string]string {
	candidates := make(map[string]map[string]bool)
	preRelease := make(map[string]bool)
	for _, name := range versions {
		if key, err := version.Parse(name); err == nil && !key.Final() {
			preRelease[name] = true
		}
	}

	for _, name := range versions {
		for {
			i := lastDot(name)
			if i <= 0 {
				break
			}
			parent := name[:i]
			if candidates[parent] == nil {
				candidates[parent] = make(map[string]bool)
			}
			candidates[parent][name] = true
			name = parent
		}
	}

	// Resolve deepest parents first so that a parent like "3" sees the
	// pre-release status of intermediate names like "3.13" already settled.
	parents := make([]string, 0, len(candidates))
	for p := range candidates {
		parents = append(parents, p)
	}
	sort.Slice(parents, func(i, j int) bool {
		return strings.Count(parents[i], ".") > strings.Count(parents[j], ".")
	})

	links := make(map[string]string, len(candidates))
	for _, parent := range parents {
		var finals, all []string
		for c := range candidates[parent] {
			all = append(all, c)
			if !preRelease[c] {
				finals = append(finals, c)
			}
		}
		pool := all
		if len(finals) > 0 {
			pool = finals
		} else {
			// A line with only pre-releases is itself a pre-release
			// candidate for the level above.
			preRelease[parent] = true
		}
		links[parent] = maxName(pool)
	}
	return links
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func maxName(names []string) string {
	best := names[0]
	for _, n := range names[1:] {
		if version.CompareText(best, n) < 0 {
			best = n
		}
	}
	return best
}

// replaceLink atomically points base/name at target.
func (r *Registry) replaceLink(name, target string) error {
	tmp := filepath.Join(r.base, ".lnk-"+uuid.NewString())
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("registry: create link %q: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(r.base, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("registry: replace link %q: %w", name, err)
	}
	return nil
}

package feed

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pystand/pystand/internal/version"
)

// Select returns the catalog asset exactly matching the given version and
// distribution string. Installation always requires an exact distribution
// match so a different build variant is never installed silently. When
// nothing matches, the error names the distributions that do exist for the
// version to aid diagnosis.
func Select(catalog []Asset, key version.Key, distribution string) (Asset, error) {
	var near []string
	for _, a := range catalog {
		if a.Version != key {
			continue
		}
		if a.Distribution == distribution {
			return a, nil
		}
		near = append(near, a.Distribution)
	}
	if len(near) == 0 {
		return Asset{}, fmt.Errorf("%w: %q for version %s (version not in catalog)",
			ErrDistributionNotFound, distribution, key)
	}
	sort.Strings(near)
	return Asset{}, fmt.Errorf("%w: %q for version %s; available: %s",
		ErrDistributionNotFound, distribution, key, strings.Join(near, ", "))
}

// Search returns catalog entries whose formatted "version distribution"
// string matches the pattern. Used by discovery queries only, never to pick
// an install target.
func Search(catalog []Asset, pattern *regexp.Regexp) []Asset {
	if pattern == nil {
		return catalog
	}
	var out []Asset
	for _, a := range catalog {
		if pattern.MatchString(a.Version.String() + " " + a.Distribution) {
			out = append(out, a)
		}
	}
	return out
}

// Versions returns the distinct version keys present in a catalog.
func Versions(catalog []Asset) []version.Key {
	seen := make(map[version.Key]bool, len(catalog))
	var keys []version.Key
	for _, a := range catalog {
		if !seen[a.Version] {
			seen[a.Version] = true
			keys = append(keys, a.Version)
		}
	}
	return keys
}

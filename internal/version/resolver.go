package version

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoMatchingVersion indicates a specifier matched nothing in the candidate
// pool.
var ErrNoMatchingVersion = errors.New("no matching version")

// Spec is a parsed version specifier: a dot-delimited numeric prefix with an
// optional pre-release suffix. Trailing unspecified fields are wildcards.
type Spec struct {
	fields []int
	pre    string
	text   string
}

// ParseSpec parses user-supplied specifier text such as "3", "3.12",
// "3.12.3", or "3.14.0rc2". The empty string is a valid specifier meaning
// "latest final release".
func ParseSpec(s string) (Spec, error) {
	if s == "" {
		return Spec{}, nil
	}
	fields, pre, err := split(s)
	if err != nil {
		return Spec{}, err
	}
	return Spec{fields: fields, pre: pre, text: s}, nil
}

// String returns the original specifier text.
func (s Spec) String() string { return s.text }

// Exact reports whether the specifier pins a single concrete version.
func (s Spec) Exact() bool {
	return len(s.fields) == 3
}

// FinalOnly reports whether the specifier is in formal-release form, i.e.
// carries no pre-release suffix.
func (s Spec) FinalOnly() bool { return s.pre == "" }

// Matches reports whether a key satisfies the specifier. Every given numeric
// field must match; a fully specified version with no pre-release suffix
// matches only the final release, never a pre-release of the same numerics.
func (s Spec) Matches(k Key) bool {
	nums := [3]int{k.Major, k.Minor, k.Patch}
	for i, f := range s.fields {
		if nums[i] != f {
			return false
		}
	}
	if s.Exact() {
		return k.Pre == s.pre
	}
	return true
}

// widen drops the last given numeric field so an exact or minor-level
// specifier can extrapolate across its release line: "3.12.1" widens to
// "3.12". Major-only specifiers widen to themselves.
func (s Spec) widen() Spec {
	if len(s.fields) <= 1 {
		return Spec{fields: s.fields, pre: "", text: s.text}
	}
	fields := s.fields[:len(s.fields)-1]
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%d", f)
	}
	return Spec{fields: fields, pre: "", text: strings.Join(parts, ".")}
}

// Resolver resolves specifiers against a fixed candidate pool. The pool is
// supplied by the caller (installed versions or a release catalog), keeping
// the resolver pool-agnostic.
type Resolver struct {
	keys []Key // sorted descending
}

// NewResolver builds a resolver over the given candidate keys.
func NewResolver(keys []Key) *Resolver {
	sorted := make([]Key, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[j].Less(sorted[i]) })
	return &Resolver{keys: sorted}
}

// Keys returns the candidate pool in descending order.
func (r *Resolver) Keys() []Key { return r.keys }

// Resolve turns specifier text into the single best-matching key. Ambiguity
// is resolved deterministically: the maximum matching key wins. An empty
// specifier resolves to the newest final release in the pool.
func (r *Resolver) Resolve(spec string) (Key, error) {
	s, err := ParseSpec(spec)
	if err != nil {
		return Key{}, err
	}
	if spec == "" {
		for _, k := range r.keys {
			if k.Final() {
				return k, nil
			}
		}
		return Key{}, fmt.Errorf("%w: pool has no final release", ErrNoMatchingVersion)
	}
	for _, k := range r.keys {
		if s.Matches(k) {
			return k, nil
		}
	}
	return Key{}, fmt.Errorf("%w: %q", ErrNoMatchingVersion, spec)
}

// ResolveUpdate resolves an installed version to its update target within the
// pool. A version still present in the pool resolves to itself, so it is
// rebuilt from the newer release rather than replaced. Otherwise the last
// given field is widened so "3.12.1" can move to the highest 3.12.x. A final
// release never updates onto a pre-release; a pre-release specifier may land
// anywhere in its line, including the final release that supersedes it.
func (r *Resolver) ResolveUpdate(spec string) (Key, error) {
	s, err := ParseSpec(spec)
	if err != nil {
		return Key{}, err
	}
	if spec == "" {
		return r.Resolve(spec)
	}
	if s.Exact() {
		for _, k := range r.keys {
			if s.Matches(k) {
				return k, nil
			}
		}
	}
	finalOnly := s.FinalOnly()
	w := s.widen()
	for _, k := range r.keys {
		if !w.Matches(k) {
			continue
		}
		if finalOnly && !k.Final() {
			continue
		}
		return k, nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrNoMatchingVersion, spec)
}

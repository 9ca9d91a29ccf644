// Package version implements parsing, ordering, and specifier resolution for
// CPython version strings as they appear in python-build-standalone release
// assets (e.g. "3.12.3", "3.14.0rc2").
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVersion indicates a string could not be parsed as a version or
// version specifier.
var ErrInvalidVersion = errors.New("invalid version string")

// Key is a fully parsed version: three numeric fields plus an optional
// pre-release label ("a1", "b3", "rc2"). A Key with an empty Pre label is a
// final release. String() round-trips losslessly with Parse().
type Key struct {
	Major int
	Minor int
	Patch int
	Pre   string
}

// Parse parses a full major.minor.patch version with an optional trailing
// pre-release label attached to the patch field.
func Parse(s string) (Key, error) {
	fields, pre, err := split(s)
	if err != nil {
		return Key{}, err
	}
	if len(fields) != 3 {
		return Key{}, fmt.Errorf("%w: %q: want major.minor.patch", ErrInvalidVersion, s)
	}
	return Key{Major: fields[0], Minor: fields[1], Patch: fields[2], Pre: pre}, nil
}

// String formats the key back to its canonical text form.
func (k Key) String() string {
	return fmt.Sprintf("%d.%d.%d%s", k.Major, k.Minor, k.Patch, k.Pre)
}

// Final reports whether the key names a final release rather than a
// pre-release.
func (k Key) Final() bool {
	return k.Pre == ""
}

// Compare returns -1, 0, or +1 ordering k against o. Numeric fields compare
// numerically. At equal numerics a final release orders above any
// pre-release; two pre-releases compare by phase letter then phase number,
// so a1 < b2 < rc1 < rc10.
func (k Key) Compare(o Key) int {
	if c := cmpInt(k.Major, o.Major); c != 0 {
		return c
	}
	if c := cmpInt(k.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmpInt(k.Patch, o.Patch); c != 0 {
		return c
	}
	return cmpPre(k.Pre, o.Pre)
}

// Less reports whether k orders strictly before o.
func (k Key) Less(o Key) bool {
	return k.Compare(o) < 0
}

// SharesMinor reports whether both keys belong to the same major.minor line.
func (k Key) SharesMinor(o Key) bool {
	return k.Major == o.Major && k.Minor == o.Minor
}

// cmpInt is a three-way integer comparison.
func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// cmpPre orders pre-release labels. Empty (final) sorts above any label.
func cmpPre(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	ap, an := splitPre(a)
	bp, bn := splitPre(b)
	if ap != bp {
		// Phase letters happen to order correctly lexically: a < b < rc.
		if ap < bp {
			return -1
		}
		return 1
	}
	return cmpInt(an, bn)
}

// splitPre divides a pre-release label into its phase letters and number,
// e.g. "rc10" -> ("rc", 10). A missing number is treated as zero.
func splitPre(pre string) (string, int) {
	i := 0
	for i < len(pre) && (pre[i] < '0' || pre[i] > '9') {
		i++
	}
	n, _ := strconv.Atoi(pre[i:])
	return pre[:i], n
}

// CompareText orders two dot-delimited version names that need not be full
// three-field versions, e.g. "3.9" against "3.12". Numeric fields compare
// numerically, a missing field orders below a present one, and at equal
// numerics a name without a pre-release label orders above one with it.
func CompareText(a, b string) int {
	af, apre, aerr := split(a)
	bf, bpre, berr := split(b)
	if aerr != nil || berr != nil {
		// Unparsable names fall back to lexical order so the result is
		// still deterministic.
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	for i := 0; i < len(af) && i < len(bf); i++ {
		if c := cmpInt(af[i], bf[i]); c != 0 {
			return c
		}
	}
	if c := cmpInt(len(af), len(bf)); c != 0 {
		return c
	}
	return cmpPre(apre, bpre)
}

// split parses a dot-delimited numeric sequence with an optional pre-release
// label glued to the last field. Shared by Parse and ParseSpec.
func split(s string) ([]int, string, error) {
	if s == "" {
		return nil, "", fmt.Errorf("%w: empty", ErrInvalidVersion)
	}
	parts := strings.Split(s, ".")
	fields := make([]int, 0, len(parts))
	var pre string
	for i, p := range parts {
		if p == "" {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		if i == len(parts)-1 {
			// Split trailing non-digits off the last field.
			j := 0
			for j < len(p) && p[j] >= '0' && p[j] <= '9' {
				j++
			}
			if j == 0 {
				return nil, "", fmt.Errorf("%w: %q", ErrInvalidVersion, s)
			}
			pre = p[j:]
			p = p[:j]
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		fields = append(fields, n)
	}
	if len(fields) > 3 {
		return nil, "", fmt.Errorf("%w: %q: too many fields", ErrInvalidVersion, s)
	}
	if pre != "" && len(fields) != 3 {
		return nil, "", fmt.Errorf("%w: %q: pre-release label needs a full version", ErrInvalidVersion, s)
	}
	return fields, pre, nil
}

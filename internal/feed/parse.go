package feed

import (
	"strings"

	"github.com/pystand/pystand/internal/version"
)

// Asset is one row of a release's catalog: a concrete version of one
// distribution flavor, with its download locator and content checksum when
// the feed provides one.
type Asset struct {
	Version      version.Key
	Distribution string
	Name         string // original asset filename
	URL          string
	Checksum     string // hex sha256, empty when the feed gave none
}

// Implementation is the only interpreter implementation currently handled.
const Implementation = "cpython"

// archiveExts lists the asset archive suffixes the feed publishes for
// installable builds. Anything else (checksum files, sources, sdists) is
// skipped.
var archiveExts = []string{".tar.zst", ".tar.gz"}

// ParseAssetName parses a release asset filename against the feed's naming
// grammar:
//
//	<impl>-<version>[+<tag>]-<distribution>.tar.(gz|zst)
//
// e.g. "cpython-3.12.3+20240415-x86_64-unknown-linux-gnu-install_only_stripped.tar.gz".
// Older releases omit the "+<tag>" part. The distribution is everything after
// the version, an opaque platform/arch/build-variant string. Assets whose
// embedded tag disagrees with the release tag, whose implementation is not
// cpython, or whose name does not fit the grammar return ok=false.
func ParseAssetName(tag, name string) (key version.Key, distribution string, ok bool) {
	stem := ""
	for _, ext := range archiveExts {
		if strings.HasSuffix(name, ext) {
			stem = strings.TrimSuffix(name, ext)
			break
		}
	}
	if stem == "" {
		return version.Key{}, "", false
	}

	parts := strings.SplitN(stem, "-", 3)
	if len(parts) != 3 || parts[0] != Implementation {
		return version.Key{}, "", false
	}
	ver := parts[1]

	if i := strings.IndexByte(ver, '+'); i >= 0 {
		if ver[i+1:] != tag {
			return version.Key{}, "", false
		}
		ver = ver[:i]
	}

	key, err := version.Parse(ver)
	if err != nil {
		return version.Key{}, "", false
	}
	return key, parts[2], true
}

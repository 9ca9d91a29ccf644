package feed

import (
	"testing"
)

func TestParseAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		tag      string
		asset    string
		wantVer  string
		wantDist string
		wantOK   bool
	}{
		{
			name:     "modern name with embedded tag",
			tag:      "20240415",
			asset:    "cpython-3.12.3+20240415-x86_64-unknown-linux-gnu-install_only_stripped.tar.gz",
			wantVer:  "3.12.3",
			wantDist: "x86_64-unknown-linux-gnu-install_only_stripped",
			wantOK:   true,
		},
		{
			name:     "zstd archive",
			tag:      "20240415",
			asset:    "cpython-3.12.3+20240415-aarch64-apple-darwin-debug-full.tar.zst",
			wantVer:  "3.12.3",
			wantDist: "aarch64-apple-darwin-debug-full",
			wantOK:   true,
		},
		{
			name:     "old name without tag",
			tag:      "20210103",
			asset:    "cpython-3.8.7-x86_64-unknown-linux-gnu-pgo-20210103T1125.tar.zst",
			wantVer:  "3.8.7",
			wantDist: "x86_64-unknown-linux-gnu-pgo-20210103T1125",
			wantOK:   true,
		},
		{
			name:     "pre-release version",
			tag:      "20240415",
			asset:    "cpython-3.13.0rc2+20240415-x86_64-pc-windows-msvc-shared-install_only_stripped.tar.gz",
			wantVer:  "3.13.0rc2",
			wantDist: "x86_64-pc-windows-msvc-shared-install_only_stripped",
			wantOK:   true,
		},
		{
			name:   "tag mismatch is skipped",
			tag:    "20240415",
			asset:  "cpython-3.12.3+20240401-x86_64-unknown-linux-gnu-install_only.tar.gz",
			wantOK: false,
		},
		{
			name:   "checksum sidecar is skipped",
			tag:    "20240415",
			asset:  "cpython-3.12.3+20240415-x86_64-unknown-linux-gnu-install_only.tar.gz.sha256",
			wantOK: false,
		},
		{
			name:   "sdist is skipped",
			tag:    "20240415",
			asset:  "SHA256SUMS",
			wantOK: false,
		},
		{
			name:   "non-cpython implementation is skipped",
			tag:    "20240415",
			asset:  "pypy-7.3.15+20240415-x86_64-unknown-linux-gnu.tar.gz",
			wantOK: false,
		},
		{
			name:   "unparsable version is skipped",
			tag:    "20240415",
			asset:  "cpython-main+20240415-x86_64-unknown-linux-gnu.tar.gz",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key, dist, ok := ParseAssetName(tt.tag, tt.asset)
			if ok != tt.wantOK {
				t.Fatalf("ParseAssetName(%q) ok = %v, want %v", tt.asset, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if key.String() != tt.wantVer {
				t.Errorf("version = %s, want %s", key, tt.wantVer)
			}
			if dist != tt.wantDist {
				t.Errorf("distribution = %q, want %q", dist, tt.wantDist)
			}
		})
	}
}

package feed

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/pystand/pystand/internal/version"
)

func testAsset(t *testing.T, ver, dist string) Asset {
	t.Helper()
	key, err := version.Parse(ver)
	if err != nil {
		t.Fatalf("Parse(%q): %v", ver, err)
	}
	return Asset{Version: key, Distribution: dist, URL: "https://example.com/" + ver + "-" + dist}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	catalog := []Asset{
		testAsset(t, "3.12.3", "x86_64-unknown-linux-gnu-install_only_stripped"),
		testAsset(t, "3.12.3", "aarch64-apple-darwin-install_only_stripped"),
		testAsset(t, "3.10.14", "x86_64-unknown-linux-gnu-install_only_stripped"),
	}
	key, _ := version.Parse("3.12.3")

	got, err := Select(catalog, key, "aarch64-apple-darwin-install_only_stripped")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.Distribution != "aarch64-apple-darwin-install_only_stripped" {
		t.Errorf("Select picked %q", got.Distribution)
	}
}

func TestSelectNotFoundReportsCandidates(t *testing.T) {
	t.Parallel()

	catalog := []Asset{
		testAsset(t, "3.12.3", "x86_64-unknown-linux-gnu-install_only_stripped"),
		testAsset(t, "3.12.3", "x86_64-unknown-linux-gnu-debug-full"),
	}
	key, _ := version.Parse("3.12.3")

	_, err := Select(catalog, key, "aarch64-unknown-linux-gnu-install_only_stripped")
	if !errors.Is(err, ErrDistributionNotFound) {
		t.Fatalf("Select error = %v, want ErrDistributionNotFound", err)
	}
	// Nearest candidates (same version, other distributions) must be named.
	if !strings.Contains(err.Error(), "x86_64-unknown-linux-gnu-debug-full") {
		t.Errorf("error %q does not name the near candidates", err)
	}
}

func TestSelectVersionAbsent(t *testing.T) {
	t.Parallel()

	catalog := []Asset{testAsset(t, "3.12.3", "x86_64-unknown-linux-gnu-install_only_stripped")}
	key, _ := version.Parse("3.11.9")

	_, err := Select(catalog, key, "x86_64-unknown-linux-gnu-install_only_stripped")
	if !errors.Is(err, ErrDistributionNotFound) {
		t.Fatalf("Select error = %v, want ErrDistributionNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	catalog := []Asset{
		testAsset(t, "3.12.3", "x86_64-unknown-linux-gnu-install_only_stripped"),
		testAsset(t, "3.12.3", "aarch64-apple-darwin-install_only_stripped"),
		testAsset(t, "3.10.14", "x86_64-unknown-linux-gnu-install_only_stripped"),
	}

	got := Search(catalog, regexp.MustCompile(`3\.12.*linux`))
	if len(got) != 1 || got[0].Distribution != "x86_64-unknown-linux-gnu-install_only_stripped" {
		t.Errorf("Search returned %v, want the 3.12.3 linux asset only", got)
	}

	if got := Search(catalog, nil); len(got) != len(catalog) {
		t.Errorf("Search(nil pattern) returned %d entries, want all %d", len(got), len(catalog))
	}
}

func TestVersions(t *testing.T) {
	t.Parallel()

	catalog := []Asset{
		testAsset(t, "3.12.3", "a"),
		testAsset(t, "3.12.3", "b"),
		testAsset(t, "3.10.14", "a"),
	}
	if got := Versions(catalog); len(got) != 2 {
		t.Errorf("Versions returned %d keys, want 2", len(got))
	}
}

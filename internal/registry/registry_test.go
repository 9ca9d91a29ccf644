package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pystand/pystand/internal/version"
)

func mustKey(t *testing.T, s string) version.Key {
	t.Helper()
	key, err := version.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return key
}

// stage creates a populated staging dir for key and promotes it.
func stage(t *testing.T, r *Registry, ver, tag string) {
	t.Helper()
	key := mustKey(t, ver)
	dir := r.StagingDir(key)
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	rec := Record{
		Version:      ver,
		Release:      tag,
		Distribution: "x86_64-unknown-linux-gnu-install_only",
		InstalledAt:  time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC),
	}
	if err := WriteRecord(dir, rec); err != nil {
		t.Fatal(err)
	}
	if err := r.Promote(dir, key, false); err != nil {
		t.Fatalf("promote %s: %v", ver, err)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	want := Record{
		Version:      "3.12.3",
		Release:      "20240415",
		Distribution: "x86_64_v3-unknown-linux-gnu-install_only_stripped",
		InstalledAt:  time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC),
	}
	if err := WriteRecord(dir, want); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRecord(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestListSkipsNonInstalls(t *testing.T) {
	t.Parallel()
	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	stage(t, r, "3.12.3", "20240415")
	stage(t, r, "3.10.14", "20240415")

	// Noise that List must ignore: dot dirs, symlinks, stray files, and
	// dirs that are not version names.
	if err := os.MkdirAll(filepath.Join(r.Base(), ".3.11.0-abandoned"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("3.12.3", filepath.Join(r.Base(), "3.12")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(r.Base(), "README"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	installs, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, inst := range installs {
		got = append(got, inst.Key.String())
	}
	want := []string{"3.10.14", "3.12.3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("installed versions (-want +got):\n%s", diff)
	}
	if installs[1].Record.Release != "20240415" {
		t.Errorf("record release = %q, want 20240415", installs[1].Record.Release)
	}
}

func TestPromoteRefusesExisting(t *testing.T) {
	t.Parallel()
	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	stage(t, r, "3.12.3", "20240415")

	key := mustKey(t, "3.12.3")
	staged := r.StagingDir(key)
	if err := os.MkdirAll(staged, 0o755); err != nil {
		t.Fatal(err)
	}
	err = r.Promote(staged, key, false)
	if !errors.Is(err, ErrAlreadyInstalled) {
		t.Fatalf("promote over existing = %v, want ErrAlreadyInstalled", err)
	}

	// Force replaces the old directory wholesale.
	if err := WriteRecord(staged, Record{Version: "3.12.3", Release: "20240601"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Promote(staged, key, true); err != nil {
		t.Fatalf("forced promote: %v", err)
	}
	inst, err := r.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if inst.Record.Release != "20240601" {
		t.Errorf("release after force = %q, want 20240601", inst.Record.Release)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	stage(t, r, "3.12.3", "20240415")

	rec, err := r.Remove(mustKey(t, "3.12.3"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Release != "20240415" {
		t.Errorf("removed record release = %q, want 20240415", rec.Release)
	}
	if _, err := r.Get(mustKey(t, "3.12.3")); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("get after remove = %v, want ErrNotInstalled", err)
	}
	if _, err := r.Remove(mustKey(t, "3.12.3")); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("double remove = %v, want ErrNotInstalled", err)
	}
}

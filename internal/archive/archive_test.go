package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

type member struct {
	name     string
	body     string
	typeflag byte
	linkname string
}

func writeTar(t *testing.T, w *tar.Writer, members []member) {
	t.Helper()
	for _, m := range members {
		tf := m.typeflag
		if tf == 0 {
			tf = tar.TypeReg
		}
		hdr := &tar.Header{
			Name:     m.name,
			Mode:     0o755,
			Size:     int64(len(m.body)),
			Typeflag: tf,
			Linkname: m.linkname,
		}
		if err := w.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader(%q): %v", m.name, err)
		}
		if tf == tar.TypeReg {
			if _, err := w.Write([]byte(m.body)); err != nil {
				t.Fatalf("Write(%q): %v", m.name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
}

func makeTarGz(t *testing.T, dir string, members []member) string {
	t.Helper()
	path := filepath.Join(dir, "test.tar.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	writeTar(t, tar.NewWriter(gz), members)
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func makeTarZst(t *testing.T, dir string, members []member) string {
	t.Helper()
	path := filepath.Join(dir, "test.tar.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	writeTar(t, tar.NewWriter(zw), members)
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

var pythonLayout = []member{
	{name: "python/", typeflag: tar.TypeDir},
	{name: "python/bin/", typeflag: tar.TypeDir},
	{name: "python/bin/python3.12", body: "#!ELF"},
	{name: "python/bin/python3", typeflag: tar.TypeSymlink, linkname: "python3.12"},
	{name: "python/lib/libpython.so", body: "lib"},
}

func checkLayout(t *testing.T, dir string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "python", "bin", "python3.12"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(data) != "#!ELF" {
		t.Errorf("extracted body = %q", data)
	}
	link, err := os.Readlink(filepath.Join(dir, "python", "bin", "python3"))
	if err != nil {
		t.Fatalf("extracted symlink missing: %v", err)
	}
	if link != "python3.12" {
		t.Errorf("symlink target = %q", link)
	}
}

func TestExtractTarGz(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := makeTarGz(t, dir, pythonLayout)
	dest := filepath.Join(dir, "out")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Extract(src, dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	checkLayout(t, dest)
}

func TestExtractTarZst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := makeTarZst(t, dir, pythonLayout)
	dest := filepath.Join(dir, "out")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Extract(src, dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	checkLayout(t, dest)
}

func TestExtractRejectsEscape(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := makeTarGz(t, dir, []member{{name: "../evil", body: "x"}})
	dest := filepath.Join(dir, "out")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Extract(src, dest); err == nil {
		t.Fatal("Extract accepted a parent-escaping member")
	}
	if _, err := os.Stat(filepath.Join(dir, "evil")); !os.IsNotExist(err) {
		t.Error("escaping member was written outside the destination")
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "test.zip")
	if err := os.WriteFile(src, []byte("zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Extract(src, dir); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Extract = %v, want ErrUnsupportedFormat", err)
	}
}

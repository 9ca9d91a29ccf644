// Package archive unpacks the release archive formats the feed publishes:
// gzip and zstandard compressed tarballs.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrUnsupportedFormat indicates the archive file extension is not one the
// feed publishes.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Extract unpacks the archive at src into destDir. The format is chosen by
// file extension (.tar.gz, .tgz, .tar.zst). destDir must already exist.
func Extract(src, destDir string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("archive: open %q: %w", src, err)
	}
	defer f.Close()

	var r io.Reader
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("archive: read gzip %q: %w", src, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(src, ".tar.zst"):
		zs, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("archive: read zstd %q: %w", src, err)
		}
		defer zs.Close()
		r = zs
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, src)
	}

	return untar(r, destDir)
}

// untar writes a tar stream into destDir, refusing entries that would land
// outside it.
func untar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("archive: read tar: %w", err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)|0o700); err != nil {
				return fmt.Errorf("archive: create dir %q: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("archive: create dir for %q: %w", hdr.Name, err)
			}
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("archive: write %q: %w", hdr.Name, err)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("archive: create dir for %q: %w", hdr.Name, err)
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("archive: symlink %q: %w", hdr.Name, err)
			}
		case tar.TypeLink:
			src, err := safeJoin(destDir, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := os.Link(src, target); err != nil {
				return fmt.Errorf("archive: hard link %q: %w", hdr.Name, err)
			}
		default:
			// Character devices and the like never appear in release
			// archives; skip quietly.
		}
	}
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// safeJoin joins an archive member name onto destDir, rejecting absolute
// names and parent-directory escapes.
func safeJoin(destDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("archive: absolute member name %q", name)
	}
	target := filepath.Join(destDir, name)
	if target != destDir && !strings.HasPrefix(target, destDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive: member %q escapes destination", name)
	}
	return target, nil
}

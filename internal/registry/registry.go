// Package registry owns the on-disk record of installed versions: one
// directory per version under the base prefix, each carrying a metadata
// record file, plus the derived convenience symlink tree.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/pystand/pystand/internal/version"
)

// RecordFile is the metadata file written inside every installed version
// directory.
const RecordFile = "pystand.toml"

// Sentinel errors for registry operations.
var (
	// ErrAlreadyInstalled indicates the version directory already exists and
	// force was not requested.
	ErrAlreadyInstalled = errors.New("version already installed")
	// ErrNotInstalled indicates no directory exists for the version.
	ErrNotInstalled = errors.New("version not installed")
	// ErrBusy indicates another process holds the advisory lock.
	ErrBusy = errors.New("another instance is already running")
)

// Record is the persisted metadata for one installed version.
type Record struct {
	Version      string    `toml:"version"`
	Release      string    `toml:"release"`
	Distribution string    `toml:"distribution"`
	InstalledAt  time.Time `toml:"installed_at"`
}

// Installed pairs a parsed version key with its record and directory.
type Installed struct {
	Key    version.Key
	Record Record
	Dir    string
}

// Registry is an open install registry rooted at a base prefix directory.
type Registry struct {
	base string
}

// Open ensures the base prefix exists and returns the registry over it.
func Open(base string) (*Registry, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("registry: create base dir: %w", err)
	}
	return &Registry{base: base}, nil
}

// Base returns the prefix directory holding version installs.
func (r *Registry) Base() string { return r.base }

// versionDirs returns the names of real version directories under the base,
// skipping symlinks, dotfiles, and anything not starting with a digit.
func (r *Registry) versionDirs() ([]string, error) {
	entries, err := os.ReadDir(r.base)
	if err != nil {
		return nil, fmt.Errorf("registry: read base dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if name == "" || name[0] == '.' || name[0] < '0' || name[0] > '9' {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 || !e.IsDir() {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// List returns every installed version, sorted ascending by version key.
// Directories whose names do not parse as versions are ignored. A directory
// without a readable record is still listed with an empty record so callers
// can surface it.
func (r *Registry) List() ([]Installed, error) {
	names, err := r.versionDirs()
	if err != nil {
		return nil, err
	}
	installs := make([]Installed, 0, len(names))
	for _, name := range names {
		key, err := version.Parse(name)
		if err != nil {
			continue
		}
		dir := filepath.Join(r.base, name)
		rec, _ := ReadRecord(dir)
		installs = append(installs, Installed{Key: key, Record: rec, Dir: dir})
	}
	sort.Slice(installs, func(i, j int) bool { return installs[i].Key.Less(installs[j].Key) })
	return installs, nil
}

// Get returns the installed version for an exact key.
func (r *Registry) Get(key version.Key) (Installed, error) {
	dir := filepath.Join(r.base, key.String())
	info, err := os.Lstat(dir)
	if err != nil || !info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
		return Installed{}, fmt.Errorf("%w: %s", ErrNotInstalled, key)
	}
	rec, _ := ReadRecord(dir)
	return Installed{Key: key, Record: rec, Dir: dir}, nil
}

// ReadRecord loads the record file from an install directory.
func ReadRecord(dir string) (Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, RecordFile))
	if err != nil {
		return Record{}, fmt.Errorf("registry: read record: %w", err)
	}
	var rec Record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("registry: parse record: %w", err)
	}
	return rec, nil
}

// WriteRecord writes the record file into an install (or staging) directory.
func WriteRecord(dir string, rec Record) error {
	data, err := toml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("registry: marshal record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, RecordFile), data, 0o644); err != nil {
		return fmt.Errorf("registry: write record: %w", err)
	}
	return nil
}

// StagingDir returns a fresh, uniquely named staging path under the base
// prefix for the given key. The dot prefix keeps it out of List until the
// final rename, and the unique suffix means a directory orphaned by a killed
// process never collides with the next run.
func (r *Registry) StagingDir(key version.Key) string {
	return filepath.Join(r.base, "."+key.String()+"-"+uuid.NewString())
}

// Promote renames a fully populated staging directory into its final
// version-named path. The rename is atomic on the same filesystem, so the
// registry never exposes a partial install: the record file inside the
// staging dir and the directory itself appear together or not at all.
func (r *Registry) Promote(staged string, key version.Key, force bool) error {
	final := filepath.Join(r.base, key.String())
	if _, err := os.Lstat(final); err == nil {
		if !force {
			return fmt.Errorf("%w: %s", ErrAlreadyInstalled, key)
		}
		if err := os.RemoveAll(final); err != nil {
			return fmt.Errorf("registry: remove prior install %s: %w", key, err)
		}
	}
	if err := os.Rename(staged, final); err != nil {
		return fmt.Errorf("registry: promote %s: %w", key, err)
	}
	return nil
}

// Remove deletes an installed version directory and returns its record so
// the caller can release the record's release tag.
func (r *Registry) Remove(key version.Key) (Record, error) {
	inst, err := r.Get(key)
	if err != nil {
		return Record{}, err
	}
	if err := os.RemoveAll(inst.Dir); err != nil {
		return Record{}, fmt.Errorf("registry: remove %s: %w", key, err)
	}
	return inst.Record, nil
}

// Package lifecycle drives the install, update, and remove state machines
// over the release cache and the install registry. Every mutating operation
// runs resolve, fetch, extract, verify, register, and link in order, stages
// all filesystem work under unique temp directories, and finishes with a
// wholesale symlink rebuild plus an opportunistic cache purge.
package lifecycle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pystand/pystand/internal/archive"
	"github.com/pystand/pystand/internal/cache"
	"github.com/pystand/pystand/internal/feed"
	"github.com/pystand/pystand/internal/registry"
	"github.com/pystand/pystand/internal/version"
)

// Manager orchestrates version lifecycle operations.
type Manager struct {
	store *cache.Store
	reg   *registry.Registry
	dist  string
	ttl   time.Duration
	grace time.Duration

	extract func(src, dest string) error
	now     func() time.Time
	infof   func(format string, args ...any)
	warnf   func(format string, args ...any)
	fmtr    Formatter
}

// Formatter renders releases and distributions in progress messages.
// Implemented by *ui.Printer; the default renders plain text.
type Formatter interface {
	Release(version fmt.Stringer, tag string) string
	Dist(dist string) string
}

type plainFormatter struct{}

func (plainFormatter) Release(version fmt.Stringer, tag string) string {
	return fmt.Sprintf("%s @ %s", version, tag)
}

func (plainFormatter) Dist(dist string) string {
	return fmt.Sprintf("distribution=%q", dist)
}

// Option configures a Manager.
type Option func(*Manager)

// WithExtract overrides the archive extraction step.
func WithExtract(fn func(src, dest string) error) Option {
	return func(m *Manager) { m.extract = fn }
}

// WithClock overrides the install timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithFormatter overrides how releases and distributions render in
// progress messages.
func WithFormatter(f Formatter) Option {
	return func(m *Manager) { m.fmtr = f }
}

// WithOutput sets the progress and warning sinks. Both default to discard.
func WithOutput(infof, warnf func(format string, args ...any)) Option {
	return func(m *Manager) {
		if infof != nil {
			m.infof = infof
		}
		if warnf != nil {
			m.warnf = warnf
		}
	}
}

// New returns a Manager over the given cache store and registry. dist is the
// exact distribution string installs must match, ttl governs the latest-tag
// pointer, and grace is the purge window for unreferenced cached releases.
func New(store *cache.Store, reg *registry.Registry, dist string, ttl, grace time.Duration, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		reg:     reg,
		dist:    dist,
		ttl:     ttl,
		grace:   grace,
		extract: archive.Extract,
		now:     time.Now,
		infof:   func(string, ...any) {},
		warnf:   func(string, ...any) {},
		fmtr:    plainFormatter{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Result reports one completed lifecycle action.
type Result struct {
	Version      version.Key
	Release      string
	Distribution string
	// Previous is set by Update to the version the result superseded.
	Previous version.Key
}

// Release returns the release tag to operate on: the override when given,
// otherwise the TTL-governed latest tag.
func (m *Manager) Release(ctx context.Context, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return m.store.LatestTag(ctx, m.ttl)
}

// Catalog returns the asset catalog for a tag via the cache.
func (m *Manager) Catalog(ctx context.Context, tag string) ([]feed.Asset, error) {
	return m.store.Catalog(ctx, tag)
}

// InstallOptions configures Install. With All set, specs become the skip
// list: each entry is resolved as a specifier against the release catalog
// and the matched versions are excluded from the batch.
type InstallOptions struct {
	Release       string
	All           bool
	AllPrerelease bool
	Force         bool
}

// Install resolves each specifier against the chosen release's catalog and
// installs the matched versions. Batch failures are best-effort: every item
// runs, failures come back aggregated in a BatchError.
func (m *Manager) Install(ctx context.Context, specs []string, opts InstallOptions) ([]Result, error) {
	tag, err := m.Release(ctx, opts.Release)
	if err != nil {
		return nil, err
	}
	catalog, err := m.store.Catalog(ctx, tag)
	if err != nil {
		return nil, err
	}
	res := version.NewResolver(feed.Versions(catalog))

	var batch BatchError
	var targets []version.Key
	if opts.All || opts.AllPrerelease {
		skip := make(map[version.Key]bool)
		for _, s := range specs {
			if k, err := res.Resolve(s); err == nil {
				skip[k] = true
			}
		}
		keys := res.Keys()
		// Resolver order is newest first; install oldest first.
		for i := len(keys) - 1; i >= 0; i-- {
			k := keys[i]
			if skip[k] || (!opts.AllPrerelease && !k.Final()) {
				continue
			}
			targets = append(targets, k)
		}
	} else {
		for _, s := range specs {
			k, err := res.Resolve(s)
			if err != nil {
				batch.add(s, err)
				continue
			}
			targets = append(targets, k)
		}
	}

	var results []Result
	for _, k := range targets {
		if _, err := m.reg.Get(k); err == nil && !opts.Force {
			m.warnf("Version %s is already installed.", m.fmtr.Release(k, tag))
			continue
		}
		r, err := m.installOne(ctx, tag, k, catalog, m.dist, opts.Force)
		if err != nil {
			batch.add(k.String(), err)
			continue
		}
		m.infof("Version %s installed.", m.fmtr.Release(k, tag))
		results = append(results, r)
	}
	if err := m.finish(ctx); err != nil {
		return results, err
	}
	return results, batch.errOrNil()
}

// UpdateOptions configures Update. Specs double as the skip list when All is
// set, resolved against the installed set.
type UpdateOptions struct {
	Release string
	All     bool
	Keep    bool
}

// Update moves each selected installed version to the chosen release,
// re-resolving its version line so a patch release can advance. The
// superseded version is removed unless Keep is set. Versions the target
// release cannot serve are silently left alone; list explains eligibility.
func (m *Manager) Update(ctx context.Context, specs []string, opts UpdateOptions) ([]Result, error) {
	tag, err := m.Release(ctx, opts.Release)
	if err != nil {
		return nil, err
	}
	catalog, err := m.store.Catalog(ctx, tag)
	if err != nil {
		return nil, err
	}
	res := version.NewResolver(feed.Versions(catalog))

	installs, err := m.reg.List()
	if err != nil {
		return nil, err
	}
	targets, batch := pickInstalled(installs, specs, opts.All)

	var results []Result
	for _, inst := range targets {
		rec := inst.Record
		if rec.Release == "" || rec.Release == tag {
			continue
		}
		next, err := res.ResolveUpdate(inst.Key.String())
		if err != nil {
			continue
		}
		dist := rec.Distribution
		if dist == "" {
			dist = m.dist
		}
		if _, err := feed.Select(catalog, next, dist); err != nil {
			continue
		}
		if next == inst.Key {
			// Same version rebuilt from a newer release: the old dir is
			// replaced in place, so keeping it is impossible.
			if opts.Keep {
				m.warnf("%s would not be kept by update to release %s.", m.fmtr.Release(inst.Key, rec.Release), tag)
				continue
			}
		} else if _, err := m.reg.Get(next); err == nil {
			continue
		}

		m.infof("%s updating to %s %s ..", m.fmtr.Release(inst.Key, rec.Release), m.fmtr.Release(next, tag), m.fmtr.Dist(dist))
		r, err := m.installOne(ctx, tag, next, catalog, dist, next == inst.Key)
		if err != nil {
			batch.add(inst.Key.String(), err)
			continue
		}
		r.Previous = inst.Key
		if next == inst.Key {
			// Rebuilt in place. The superseded release loses its reference
			// now, so its purge grace restarts from this update.
			if err := m.store.UnmarkReferenced(ctx, rec.Release); err != nil {
				m.warnf("release cache: %v", err)
			}
		} else if !opts.Keep {
			old, err := m.reg.Remove(inst.Key)
			if err != nil {
				batch.add(inst.Key.String(), err)
			} else if old.Release != "" {
				if err := m.store.UnmarkReferenced(ctx, old.Release); err != nil {
					m.warnf("release cache: %v", err)
				}
			}
		}
		results = append(results, r)
	}
	if err := m.finish(ctx); err != nil {
		return results, err
	}
	return results, batch.errOrNil()
}

// RemoveOptions configures Remove. A non-empty Release only removes versions
// installed from that tag. Specs double as the skip list when All is set.
type RemoveOptions struct {
	Release string
	All     bool
}

// Remove deletes the selected installed versions. Removing a version
// refreshes its release tag's reference timestamp so the purge grace period
// restarts from the removal.
func (m *Manager) Remove(ctx context.Context, specs []string, opts RemoveOptions) ([]Result, error) {
	installs, err := m.reg.List()
	if err != nil {
		return nil, err
	}
	targets, batch := pickInstalled(installs, specs, opts.All)

	var results []Result
	for _, inst := range targets {
		if opts.Release != "" && inst.Record.Release != opts.Release {
			continue
		}
		rec, err := m.reg.Remove(inst.Key)
		if err != nil {
			batch.add(inst.Key.String(), err)
			continue
		}
		if rec.Release != "" {
			if err := m.store.UnmarkReferenced(ctx, rec.Release); err != nil {
				m.warnf("release cache: %v", err)
			}
		}
		m.infof("Version %s removed.", m.fmtr.Release(inst.Key, rec.Release))
		results = append(results, Result{Version: inst.Key, Release: rec.Release, Distribution: rec.Distribution})
	}
	if err := m.finish(ctx); err != nil {
		return results, err
	}
	return results, batch.errOrNil()
}

// pickInstalled selects the installed versions an operation applies to.
// Specifiers resolve against the installed set; with all set they form the
// skip list instead, and an entry matching nothing is reported rather than
// silently ignored.
func pickInstalled(installs []registry.Installed, specs []string, all bool) ([]registry.Installed, BatchError) {
	var batch BatchError
	keys := make([]version.Key, len(installs))
	byKey := make(map[version.Key]registry.Installed, len(installs))
	for i, inst := range installs {
		keys[i] = inst.Key
		byKey[inst.Key] = inst
	}
	res := version.NewResolver(keys)

	if all {
		skip := make(map[version.Key]bool)
		for _, s := range specs {
			k, err := res.Resolve(s)
			if err != nil {
				batch.add(s, err)
				continue
			}
			skip[k] = true
		}
		var targets []registry.Installed
		for _, inst := range installs {
			if !skip[inst.Key] {
				targets = append(targets, inst)
			}
		}
		return targets, batch
	}

	var targets []registry.Installed
	for _, s := range specs {
		k, err := res.Resolve(s)
		if err != nil {
			batch.add(s, fmt.Errorf("%w: %s", registry.ErrNotInstalled, s))
			continue
		}
		targets = append(targets, byKey[k])
	}
	return targets, batch
}

// installOne runs the fetch, extract, verify, register sequence for a single
// version. Every step before the final rename works on staging paths only,
// so a failure at any point leaves no trace in the registry.
func (m *Manager) installOne(ctx context.Context, tag string, key version.Key, catalog []feed.Asset, dist string, force bool) (Result, error) {
	asset, err := feed.Select(catalog, key, dist)
	if err != nil {
		return Result{}, err
	}

	archivePath, err := m.store.Fetch(ctx, tag, asset)
	if err != nil {
		return Result{}, err
	}
	if asset.Checksum != "" {
		if err := verifyChecksum(archivePath, asset.Checksum); err != nil {
			// Drop the bad bytes so the next attempt refetches.
			os.Remove(archivePath)
			return Result{}, err
		}
	}

	staged := m.reg.StagingDir(key)
	if err := os.MkdirAll(staged, 0o755); err != nil {
		return Result{}, fmt.Errorf("lifecycle: create staging dir: %w", err)
	}
	defer os.RemoveAll(staged)

	if err := m.extract(archivePath, staged); err != nil {
		return Result{}, fmt.Errorf("lifecycle: extract %s: %w", key, err)
	}
	root, err := installRoot(staged)
	if err != nil {
		return Result{}, err
	}

	rec := registry.Record{
		Version:      key.String(),
		Release:      tag,
		Distribution: asset.Distribution,
		InstalledAt:  m.now().UTC(),
	}
	if err := registry.WriteRecord(root, rec); err != nil {
		return Result{}, err
	}
	if err := m.reg.Promote(root, key, force); err != nil {
		return Result{}, err
	}
	if err := m.store.MarkReferenced(ctx, tag); err != nil {
		m.warnf("release cache: %v", err)
	}
	return Result{Version: key, Release: tag, Distribution: asset.Distribution}, nil
}

// installRoot locates the usable interpreter tree inside an extracted
// archive. Archives unpack to python/, and full distributions nest the
// runnable tree one level deeper under python/install.
func installRoot(staged string) (string, error) {
	root := filepath.Join(staged, "python")
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return "", fmt.Errorf("lifecycle: archive has no python directory")
	}
	inner := filepath.Join(root, "install")
	if info, err := os.Stat(inner); err == nil && info.IsDir() {
		return inner, nil
	}
	return root, nil
}

// verifyChecksum recomputes the sha256 of the staged archive and compares it
// to the catalog's published digest.
func verifyChecksum(path, want string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("lifecycle: open archive: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("lifecycle: hash archive: %w", err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, want)
	}
	return nil
}

// finish rebuilds the symlink tree and purges expired cache entries. It runs
// at the end of every mutating operation.
func (m *Manager) finish(ctx context.Context) error {
	if err := m.reg.RebuildSymlinks(); err != nil {
		return err
	}
	installs, err := m.reg.List()
	if err != nil {
		m.warnf("purge skipped: %v", err)
		return nil
	}
	referenced := make(map[string]bool)
	for _, inst := range installs {
		if inst.Record.Release != "" {
			referenced[inst.Record.Release] = true
		}
	}
	if _, err := m.store.Purge(ctx, referenced, m.grace); err != nil {
		m.warnf("cache purge: %v", err)
	}
	return nil
}

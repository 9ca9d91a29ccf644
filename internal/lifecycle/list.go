package lifecycle

import (
	"context"
	"fmt"

	"github.com/pystand/pystand/internal/feed"
	"github.com/pystand/pystand/internal/registry"
	"github.com/pystand/pystand/internal/version"
)

// ListEntry describes one installed version and its update standing against
// a target release.
type ListEntry struct {
	Installed registry.Installed
	// HasUpdate reports that UpdateTo under the target release can replace
	// this version.
	HasUpdate bool
	UpdateTo  version.Key
	// Note explains ineligibility when no update applies. Empty for
	// versions already at the target release.
	Note string
}

// List returns the installed set, each entry annotated with whether the
// target release can update it and, if not, why. It also returns the
// resolved target tag. Specs filter the listing; empty specs list everything.
func (m *Manager) List(ctx context.Context, specs []string, release string) ([]ListEntry, string, error) {
	tag, err := m.Release(ctx, release)
	if err != nil {
		return nil, "", err
	}
	catalog, err := m.store.Catalog(ctx, tag)
	if err != nil {
		return nil, "", err
	}
	res := version.NewResolver(feed.Versions(catalog))

	installs, err := m.reg.List()
	if err != nil {
		return nil, "", err
	}
	targets, batch := pickInstalled(installs, specs, len(specs) == 0)
	if err := batch.errOrNil(); err != nil {
		return nil, "", err
	}

	entries := make([]ListEntry, 0, len(targets))
	for _, inst := range targets {
		entries = append(entries, m.annotate(inst, tag, catalog, res))
	}
	return entries, tag, nil
}

func (m *Manager) annotate(inst registry.Installed, tag string, catalog []feed.Asset, res *version.Resolver) ListEntry {
	e := ListEntry{Installed: inst}
	rec := inst.Record
	if rec.Release == "" {
		e.Note = "has no install record"
		return e
	}
	if rec.Release == tag {
		return e
	}

	next, err := res.ResolveUpdate(inst.Key.String())
	if err != nil {
		e.Note = fmt.Sprintf("not eligible for update because release %s does not provide this version", tag)
		return e
	}
	if next != inst.Key {
		if other, err := m.reg.Get(next); err == nil {
			e.Note = fmt.Sprintf("not eligible for update because %s @ %s is already installed", next, other.Record.Release)
			return e
		}
	}
	dist := rec.Distribution
	if dist == "" {
		dist = m.dist
	}
	if _, err := feed.Select(catalog, next, dist); err != nil {
		e.Note = fmt.Sprintf("not eligible for update because %s @ %s does not provide %s", next, tag, dist)
		return e
	}
	e.HasUpdate = true
	e.UpdateTo = next
	return e
}

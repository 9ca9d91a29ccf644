package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pystand/pystand/internal/cache"
	"github.com/pystand/pystand/internal/config"
	"github.com/pystand/pystand/internal/feed"
	"github.com/pystand/pystand/internal/lifecycle"
	"github.com/pystand/pystand/internal/registry"
	"github.com/pystand/pystand/internal/ui"
)

// sampleTag appears in help text and tag validation errors.
const sampleTag = "20240415"

// app bundles the wired components behind one command invocation.
type app struct {
	cfg   config.Config
	dist  string
	ui    *ui.Printer
	feed  *feed.Client
	store *cache.Store
	reg   *registry.Registry
	mgr   *lifecycle.Manager

	ctx    context.Context
	cancel context.CancelFunc
}

// newApp loads configuration and opens the cache and registry. Callers must
// Close.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg := config.Load()

	dist := cfg.Distribution
	if dist == "" {
		var err error
		if dist, err = feed.DetectHostDistribution(); err != nil {
			return nil, fmt.Errorf("%w, specify one with -D/--distribution", err)
		}
	}

	noColor := cfg.NoColor || !stdoutIsTerminal()
	client := feed.NewClient(cfg.GithubAccessToken)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{cfg: cfg, dist: dist, feed: client, ctx: ctx, cancel: cancel}

	store, err := cache.Open(ctx, cfg.CacheDir, client, cache.WithWarn(func(format string, args ...any) {
		if a.ui != nil {
			a.ui.Warnf(format, args...)
		}
	}))
	if err != nil {
		cancel()
		return nil, err
	}
	a.store = store

	// Seed the anchor colors with the current pointer and host flavor.
	lastTag, _ := store.CachedLatestTag(ctx)
	a.ui = ui.New(lastTag, dist, noColor)

	reg, err := registry.Open(cfg.PrefixDir)
	if err != nil {
		store.Close()
		cancel()
		return nil, err
	}
	a.reg = reg

	a.mgr = lifecycle.New(store, reg, dist,
		time.Duration(cfg.CacheMinutes)*time.Minute,
		time.Duration(cfg.PurgeDays)*24*time.Hour,
		lifecycle.WithOutput(a.ui.Infof, a.ui.Warnf),
		lifecycle.WithFormatter(a.ui),
	)
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	a.cancel()
}

// withLock runs fn holding the advisory lock on the prefix dir. Mutating
// commands serialize on it so two invocations cannot race the registry.
func (a *app) withLock(fn func() error) error {
	lock, err := registry.AcquireLock(a.ctx, a.reg.Base(), time.Duration(a.cfg.LockSeconds)*time.Second)
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

// checkReleaseTag validates the YYYYMMDD calendar shape of a user-given tag.
func checkReleaseTag(tag string) error {
	if tag == "" {
		return nil
	}
	if _, err := time.Parse("20060102", tag); err != nil {
		return fmt.Errorf("release %q is invalid, must be a calendar tag like %s", tag, sampleTag)
	}
	return nil
}

// checkBatchFlags enforces the shared --all/--skip/version argument rules.
func checkBatchFlags(all, skip bool, args []string) error {
	if all {
		if len(args) > 0 && !skip {
			return errors.New("can not specify versions with --all unless also specifying --skip")
		}
		return nil
	}
	if skip {
		return errors.New("--skip can only be specified with --all")
	}
	if len(args) == 0 {
		return errors.New("must specify at least one version, or --all")
	}
	return nil
}

func stdoutIsTerminal() bool {
	info, err := os.Stdout.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

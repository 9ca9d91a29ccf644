package cmd

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pystand/pystand/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache [release...]",
	Short: "Show size of release download caches",
	RunE:  runCache,
}

func init() {
	cacheCmd.Flags().BoolP("no-total", "T", false, "do not show total cache size")
	cacheCmd.Flags().BoolP("no-human-readable", "H", false, "show sizes in bytes, not human readable format")
	cacheCmd.Flags().BoolP("remove", "r", false, "remove download cache[s] instead of showing size")
	cacheCmd.Flags().BoolP("remove-all-unused", "R", false, "remove caches for all currently unused releases")

	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, args []string) error {
	noTotal, _ := cmd.Flags().GetBool("no-total")
	noHuman, _ := cmd.Flags().GetBool("no-human-readable")
	remove, _ := cmd.Flags().GetBool("remove")
	removeUnused, _ := cmd.Flags().GetBool("remove-all-unused")

	if remove && removeUnused {
		return errors.New("can not specify --remove with --remove-all-unused")
	}
	for _, tag := range args {
		if err := checkReleaseTag(tag); err != nil {
			return err
		}
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	size := func(n int64) string {
		if noHuman {
			return fmt.Sprintf("%dB", n)
		}
		return humanize.Bytes(uint64(n))
	}

	switch {
	case removeUnused:
		if len(args) > 0 {
			return errors.New("can not specify --remove-all-unused with release names")
		}
		return removeUnusedCaches(a)

	case remove:
		if len(args) == 0 {
			if err := a.store.RemoveAllDownloads(); err != nil {
				return err
			}
			a.ui.Infof("Removed download cache.")
			return nil
		}
		for _, tag := range args {
			if _, err := a.store.DownloadSize(tag); errors.Is(err, cache.ErrNoDownloads) {
				return fmt.Errorf("no cache for release %s", tag)
			}
			if err := a.store.RemoveDownloads(tag); err != nil {
				return err
			}
			a.ui.Infof("Removed cache for release %s.", a.ui.Tag(tag))
		}
		return nil

	default:
		tags := args
		if len(tags) == 0 {
			var err error
			if tags, err = a.store.DownloadTags(); err != nil {
				return err
			}
		}
		var total int64
		for _, tag := range tags {
			n, err := a.store.DownloadSize(tag)
			if errors.Is(err, cache.ErrNoDownloads) {
				return fmt.Errorf("no cache for release %s", tag)
			}
			if err != nil {
				return err
			}
			total += n
			a.ui.Printf("%s\t%s\n", size(n), a.ui.Tag(tag))
		}
		if !noTotal {
			a.ui.Printf("%s\tTOTAL\n", size(total))
		}
		return nil
	}
}

// removeUnusedCaches deletes download caches for releases no installed
// version references, keeping the current latest pointer's release.
func removeUnusedCaches(a *app) error {
	keep := make(map[string]bool)
	installs, err := a.reg.List()
	if err != nil {
		return err
	}
	for _, inst := range installs {
		if inst.Record.Release != "" {
			keep[inst.Record.Release] = true
		}
	}
	if latest, err := a.store.CachedLatestTag(a.ctx); err == nil && latest != "" {
		keep[latest] = true
	}

	tags, err := a.store.DownloadTags()
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if keep[tag] {
			continue
		}
		if err := a.store.RemoveDownloads(tag); err != nil {
			return err
		}
		a.ui.Infof("Removed cache for release %s.", a.ui.Tag(tag))
	}
	return nil
}

package cmd

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pystand/pystand/internal/feed"
)

var showCmd = &cobra.Command{
	Use:   "show [pattern]",
	Short: "Show versions available from a release",
	Long: "Show versions available from a release. The optional pattern is a\n" +
		"regular expression matched against each \"version distribution\" pair.",
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolP("list", "l", false, "just list recent releases")
	showCmd.Flags().StringP("release", "r", "", "YYYYMMDD release to show, default is latest")
	showCmd.Flags().BoolP("all", "a", false, "show all available distributions for each version")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	list, _ := cmd.Flags().GetBool("list")
	release, _ := cmd.Flags().GetString("release")
	all, _ := cmd.Flags().GetBool("all")

	if list && (all || release != "") {
		return errors.New("can not specify --all or --release with --list")
	}
	if err := checkReleaseTag(release); err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if len(args) == 1 {
		var err error
		if pattern, err = regexp.Compile(args[0]); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if list {
		return showReleaseList(a, pattern)
	}
	return showRelease(a, release, all, pattern)
}

// showRelease prints the versions a release offers. Without --all only the
// host distribution and already installed flavors are shown.
func showRelease(a *app, release string, all bool, pattern *regexp.Regexp) error {
	tag, err := a.mgr.Release(a.ctx, release)
	if err != nil {
		return err
	}
	catalog, err := a.mgr.Catalog(a.ctx, tag)
	if err != nil {
		return err
	}

	// Versions installed from this very release, keyed by version string.
	installed := make(map[string]string)
	installs, err := a.reg.List()
	if err != nil {
		return err
	}
	for _, inst := range installs {
		if inst.Record.Release == tag && inst.Record.Distribution != "" {
			installed[inst.Key.String()] = inst.Record.Distribution
		}
	}

	matched := feed.Search(catalog, pattern)
	sort.Slice(matched, func(i, j int) bool {
		if c := matched[i].Version.Compare(matched[j].Version); c != 0 {
			return c < 0
		}
		return matched[i].Distribution < matched[j].Distribution
	})

	installable := false
	for _, asset := range catalog {
		if asset.Distribution == a.dist {
			installable = true
			break
		}
	}
	for _, asset := range matched {
		note := ""
		if installed[asset.Version.String()] == asset.Distribution {
			note = " (installed)"
		}
		if !all && note == "" && asset.Distribution != a.dist {
			continue
		}
		a.ui.Println(a.ui.Release(asset.Version, tag) + " " + a.ui.Dist(asset.Distribution) + note)
	}
	if !installable {
		a.ui.Warnf("no %s versions found in release %q.", a.ui.Dist(a.dist), tag)
	}
	return nil
}

// showReleaseList merges the feed's recent releases with the locally cached
// tags, flagging cached entries, download counts, and tags newer than the
// current latest pointer.
func showReleaseList(a *app, pattern *regexp.Regexp) error {
	published := make(map[string]string)
	if tags, err := a.feed.Tags(a.ctx); err != nil {
		a.ui.Warnf("release feed: %v", err)
	} else {
		for _, t := range tags {
			published[t.Tag] = t.Updated.Local().Format("2006-01-02_15:04")
		}
	}

	cached := make(map[string]bool)
	stats, err := a.store.CachedTags(a.ctx)
	if err != nil {
		return err
	}
	for _, s := range stats {
		cached[s.Tag] = true
	}

	latest, _ := a.store.CachedLatestTag(a.ctx)

	all := make([]string, 0, len(published)+len(cached))
	for tag := range published {
		all = append(all, tag)
	}
	for tag := range cached {
		if _, ok := published[tag]; !ok {
			all = append(all, tag)
		}
	}
	sort.Strings(all)

	for _, tag := range all {
		if pattern != nil && !pattern.MatchString(tag) {
			continue
		}
		date := published[tag]
		if date == "" {
			date = strings.Repeat(".", 16)
		}
		line := a.ui.Tag(tag) + " " + date
		if cached[tag] {
			line += " cached"
			if n, err := a.store.DownloadCount(tag); err == nil && n > 0 {
				line += fmt.Sprintf(" + %d downloaded files", n)
			}
		}
		if latest != "" && tag > latest {
			line += " pre-release"
		}
		a.ui.Println(line)
	}
	return nil
}

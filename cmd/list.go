package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [version...]",
	Short: "List installed versions and show which have an update available",
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolP("verbose", "v", false, "explicitly report why a version is not eligible for update")
	listCmd.Flags().StringP("release", "r", "", "use specified YYYYMMDD release for update compare, default is latest")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	release, _ := cmd.Flags().GetString("release")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if err := checkReleaseTag(release); err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, tag, err := a.mgr.List(a.ctx, args, release)
	if err != nil {
		return err
	}
	for _, e := range entries {
		rec := e.Installed.Record
		line := a.ui.Release(e.Installed.Key, rec.Release)
		if e.HasUpdate {
			line += fmt.Sprintf(" updatable to %s", a.ui.Release(e.UpdateTo, tag))
		}
		dist := rec.Distribution
		if dist == "" {
			dist = "?"
		}
		line += " " + a.ui.Dist(dist)
		if verbose && e.Note != "" {
			line += " " + e.Note + "."
		}
		a.ui.Println(line)
	}
	return nil
}

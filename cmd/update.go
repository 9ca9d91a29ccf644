package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pystand/pystand/internal/lifecycle"
)

var updateCmd = &cobra.Command{
	Use:     "update [version...]",
	Aliases: []string{"upgrade"},
	Short:   "Update one, more, or all versions to another release",
	RunE:    runUpdate,
}

func init() {
	updateCmd.Flags().StringP("release", "r", "", "update to specified YYYYMMDD release, default is latest")
	updateCmd.Flags().BoolP("all", "a", false, "update ALL versions")
	updateCmd.Flags().Bool("skip", false, "skip the specified versions when updating all")
	updateCmd.Flags().BoolP("keep", "k", false, "keep old version after updating (only if different version number)")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	release, _ := cmd.Flags().GetString("release")
	all, _ := cmd.Flags().GetBool("all")
	skip, _ := cmd.Flags().GetBool("skip")
	keep, _ := cmd.Flags().GetBool("keep")

	if err := checkReleaseTag(release); err != nil {
		return err
	}
	if err := checkBatchFlags(all, skip, args); err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.withLock(func() error {
		_, err := a.mgr.Update(a.ctx, args, lifecycle.UpdateOptions{
			Release: release,
			All:     all,
			Keep:    keep,
		})
		return err
	})
}

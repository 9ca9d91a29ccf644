package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pystand/pystand/internal/lifecycle"
)

var removeCmd = &cobra.Command{
	Use:     "remove [version...]",
	Aliases: []string{"uninstall"},
	Short:   "Remove one, more, or all versions",
	RunE:    runRemove,
}

func init() {
	removeCmd.Flags().BoolP("all", "a", false, "remove ALL versions")
	removeCmd.Flags().Bool("skip", false, "skip the specified versions when removing all")
	removeCmd.Flags().StringP("release", "r", "", "only remove versions installed from specified YYYYMMDD release")

	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	release, _ := cmd.Flags().GetString("release")
	all, _ := cmd.Flags().GetBool("all")
	skip, _ := cmd.Flags().GetBool("skip")

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
		_, err := a.mgr.Remove(a.ctx, args, lifecycle.RemoveOptions{
			Release: release,
			All:     all,
		})
		return err
	})
}

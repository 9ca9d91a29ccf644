package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pystand/pystand/internal/lifecycle"
)

var installCmd = &cobra.Command{
	Use:   "install [version...]",
	Short: "Install one, more, or all versions from a release",
	Long: "Install one, more, or all Python versions from a release.\n" +
		"Versions may be partial, e.g. \"3.12\" installs the newest 3.12.x.",
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringP("release", "r", "", "install from specified YYYYMMDD release, default is latest")
	installCmd.Flags().BoolP("all", "a", false, "install ALL versions from release")
	installCmd.Flags().BoolP("all-prerelease", "A", false, "install ALL versions from release, including pre-releases")
	installCmd.Flags().Bool("skip", false, "skip the specified versions when installing all")
	installCmd.Flags().BoolP("force", "f", false, "force install even if already installed")

	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	release, _ := cmd.Flags().GetString("release")
	all, _ := cmd.Flags().GetBool("all")
	allPre, _ := cmd.Flags().GetBool("all-prerelease")
	skip, _ := cmd.Flags().GetBool("skip")
	force, _ := cmd.Flags().GetBool("force")

	if err := checkReleaseTag(release); err != nil {
		return err
	}
	if err := checkBatchFlags(all || allPre, skip, args); err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.withLock(func() error {
		_, err := a.mgr.Install(a.ctx, args, lifecycle.InstallOptions{
			Release:       release,
			All:           all,
			AllPrerelease: allPre,
			Force:         force,
		})
		return err
	})
}

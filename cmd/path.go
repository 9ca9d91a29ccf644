package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path [version]",
	Short: "Show path prefix to installed version base directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPath,
}

func init() {
	pathCmd.Flags().BoolP("python-path", "p", false, "add path to python executable")
	pathCmd.Flags().BoolP("resolve", "r", false, "fully resolve given version")
	pathCmd.Flags().BoolP("cache-path", "c", false, "just show path to cache dir")

	rootCmd.AddCommand(pathCmd)
}

func runPath(cmd *cobra.Command, args []string) error {
	pythonPath, _ := cmd.Flags().GetBool("python-path")
	resolve, _ := cmd.Flags().GetBool("resolve")
	cachePath, _ := cmd.Flags().GetBool("cache-path")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if cachePath || len(args) == 0 {
		if pythonPath {
			return errors.New("can not specify --python-path without a version")
		}
		if cachePath {
			a.ui.Println(a.store.Dir())
		} else {
			a.ui.Println(a.reg.Base())
		}
		return nil
	}

	// A partial version like "3.12" names its symlink, so the path is
	// looked up by name rather than through the registry scan.
	path := filepath.Join(a.reg.Base(), args[0])
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("version %s is not installed", args[0])
	}
	if resolve {
		if path, err = filepath.EvalSymlinks(path); err != nil {
			return err
		}
	}
	if pythonPath {
		base := path
		path = filepath.Join(base, "bin", "python")
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(base, "python.exe")
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("can not find python executable in %q", base)
			}
		}
	}
	a.ui.Println(path)
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "pystand",
	Short: "Install and manage pre-built CPython versions",
	Long: "Pystand downloads, installs, updates, and removes pre-built Python\n" +
		"versions from the python-build-standalone release feed.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .pystand.yaml)")
	pf.StringP("distribution", "D", "", "distribution to install, default is auto-detected for this host")
	pf.StringP("prefix-dir", "P", "", "prefix dir for storing versions")
	pf.StringP("cache-dir", "C", "", "cache dir for release data and downloads")
	pf.IntP("cache-minutes", "M", 60, "cache the latest release tag for this many minutes before rechecking")
	pf.Int("purge-days", 90, "keep unreferenced cached release data for this many days")
	pf.String("github-access-token", "", "optional GitHub access token, reduces rate limiting")
	pf.Bool("no-color", false, "do not use color in output")

	bind := map[string]string{
		"distribution":        "distribution",
		"prefix_dir":          "prefix-dir",
		"cache_dir":           "cache-dir",
		"cache_minutes":       "cache-minutes",
		"purge_days":          "purge-days",
		"github_access_token": "github-access-token",
		"no_color":            "no-color",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".pystand")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("PYSTAND")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

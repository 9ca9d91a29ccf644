// Package config resolves runtime configuration from .pystand.yaml,
// PYSTAND_* environment variables, and CLI flags, in rising priority.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for one pystand invocation.
type Config struct {
	// Distribution is the exact build flavor to install. Empty means
	// auto-detect from the host platform.
	Distribution string `mapstructure:"distribution"`
	PrefixDir    string `mapstructure:"prefix_dir"`
	CacheDir     string `mapstructure:"cache_dir"`
	// CacheMinutes bounds the age of the latest release tag pointer before
	// it is refetched.
	CacheMinutes int `mapstructure:"cache_minutes"`
	// PurgeDays is how long cached release data outlives its last
	// referencing install.
	PurgeDays int `mapstructure:"purge_days"`
	// GithubAccessToken raises the feed's rate limits when set.
	GithubAccessToken string `mapstructure:"github_access_token"`
	NoColor           bool   `mapstructure:"no_color"`
	// LockSeconds bounds the wait for the advisory lock on the prefix dir.
	LockSeconds int `mapstructure:"lock_seconds"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("distribution", "")
	viper.SetDefault("prefix_dir", defaultPrefixDir())
	viper.SetDefault("cache_dir", defaultCacheDir())
	viper.SetDefault("cache_minutes", 60)
	viper.SetDefault("purge_days", 90)
	viper.SetDefault("github_access_token", "")
	viper.SetDefault("no_color", false)
	viper.SetDefault("lock_seconds", 10)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}

// defaultPrefixDir is /opt/pystand when running as root, otherwise the
// user's data dir.
func defaultPrefixDir() string {
	if os.Geteuid() == 0 {
		return "/opt/pystand"
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "pystand")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "pystand"
	}
	return filepath.Join(home, ".local", "share", "pystand")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".pystand-cache"
	}
	return filepath.Join(dir, "pystand")
}

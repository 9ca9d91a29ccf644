package config

import (
	"testing"

	"github.com/spf13/viper"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoadDefaults(t *testing.T) {
	resetViper()
	cfg := Load()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Distribution", cfg.Distribution, ""},
		{"CacheMinutes", cfg.CacheMinutes, 60},
		{"PurgeDays", cfg.PurgeDays, 90},
		{"GithubAccessToken", cfg.GithubAccessToken, ""},
		{"NoColor", cfg.NoColor, false},
		{"LockSeconds", cfg.LockSeconds, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if cfg.PrefixDir == "" || cfg.CacheDir == "" {
		t.Errorf("dir defaults empty: prefix=%q cache=%q", cfg.PrefixDir, cfg.CacheDir)
	}
}

func TestLoadOverrides(t *testing.T) {
	resetViper()
	viper.Set("distribution", "aarch64-apple-darwin-install_only")
	viper.Set("cache_minutes", 5)
	viper.Set("purge_days", 7)
	viper.Set("no_color", true)

	cfg := Load()
	if cfg.Distribution != "aarch64-apple-darwin-install_only" {
		t.Errorf("Distribution = %q", cfg.Distribution)
	}
	if cfg.CacheMinutes != 5 || cfg.PurgeDays != 7 || !cfg.NoColor {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

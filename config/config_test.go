package config

import (
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestGetImportMaxFileMB(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"empty", "", 50},
		{"invalid", "abc", 50},
		{"zero", "0", 50},
		{"negative", "-5", 50},
		{"valid_small", "10", 10},
		{"valid_default", "50", 50},
		{"valid_large", "200", 200},
		{"over_cap", "1000", 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("IMPORT_MAX_FILE_MB", tt.env)
			if got := getImportMaxFileMB(); got != tt.want {
				t.Errorf("getImportMaxFileMB() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("TUNECRATE_DB_PATH", "")
	t.Setenv("TUNECRATE_PREFS_PATH", "")
	t.Setenv("SENTRY_DSN", "")
	t.Setenv("LOG_LEVEL", "")

	NewConfig()
	t.Cleanup(func() { Config = nil })

	if Config.Database.Path != "tunecrate.db" {
		t.Errorf("Database.Path = %q, want tunecrate.db", Config.Database.Path)
	}
	if Config.Database.PrefsPath != filepath.Join(".", "current_track") {
		t.Errorf("Database.PrefsPath = %q, want current_track beside the db", Config.Database.PrefsPath)
	}
	if Config.Sentry.IsEnabled() {
		t.Error("sentry enabled without a DSN")
	}
}

func TestNewConfigPrefsFollowsDBDir(t *testing.T) {
	t.Setenv("TUNECRATE_DB_PATH", filepath.Join("data", "lib.db"))
	t.Setenv("TUNECRATE_PREFS_PATH", "")

	NewConfig()
	t.Cleanup(func() { Config = nil })

	want := filepath.Join("data", "current_track")
	if Config.Database.PrefsPath != want {
		t.Errorf("Database.PrefsPath = %q, want %q", Config.Database.PrefsPath, want)
	}
}

func TestNewConfigExplicitPaths(t *testing.T) {
	t.Setenv("TUNECRATE_DB_PATH", "/tmp/a.db")
	t.Setenv("TUNECRATE_PREFS_PATH", "/tmp/slot")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")

	NewConfig()
	t.Cleanup(func() { Config = nil })

	if Config.Database.Path != "/tmp/a.db" || Config.Database.PrefsPath != "/tmp/slot" {
		t.Errorf("paths = %q, %q; want the explicit env values",
			Config.Database.Path, Config.Database.PrefsPath)
	}
	if !Config.Sentry.IsEnabled() {
		t.Error("sentry disabled despite a DSN")
	}
}

func TestConfigureLogging(t *testing.T) {
	previous := log.GetLevel()
	t.Cleanup(func() {
		log.SetLevel(previous)
		Config = nil
	})

	tests := []struct {
		name  string
		level string
		want  log.Level
	}{
		{"empty_defaults_to_info", "", log.InfoLevel},
		{"debug", "debug", log.DebugLevel},
		{"trace", "trace", log.TraceLevel},
		{"invalid_falls_back", "loud", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.level)
			NewConfig()
			ConfigureLogging()
			if got := log.GetLevel(); got != tt.want {
				t.Errorf("log level = %s, want %s", got, tt.want)
			}
		})
	}
}

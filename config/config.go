package config

import (
	"os"
	"path/filepath"
	"strconv"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type ConfigStruct struct {
	Database DatabaseConfig
	Sentry   SentryConfig
	Options  Options
}

type DatabaseConfig struct {
	Path      string
	PrefsPath string
}

type SentryConfig struct {
	DSN string
}

type Options struct {
	LogLevel        string
	ImportMaxFileMB int // per-file size cap in MB; payloads are held in memory
}

func (s *SentryConfig) IsEnabled() bool {
	return s.DSN != ""
}

var Config *ConfigStruct

// NewConfig loads .env if present and builds the global config from the
// environment.
func NewConfig() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	dbPath := os.Getenv("TUNECRATE_DB_PATH")
	if dbPath == "" {
		dbPath = "tunecrate.db"
	}

	prefsPath := os.Getenv("TUNECRATE_PREFS_PATH")
	if prefsPath == "" {
		// The scalar selection slot lives beside the database.
		prefsPath = filepath.Join(filepath.Dir(dbPath), "current_track")
	}

	Config = &ConfigStruct{
		Database: DatabaseConfig{
			Path:      dbPath,
			PrefsPath: prefsPath,
		},
		Sentry: SentryConfig{
			DSN: os.Getenv("SENTRY_DSN"),
		},
		Options: Options{
			LogLevel:        os.Getenv("LOG_LEVEL"),
			ImportMaxFileMB: getImportMaxFileMB(),
		},
	}
}

// ConfigureLogging installs the nested formatter and applies LOG_LEVEL.
func ConfigureLogging() {
	log.SetFormatter(&nested.Formatter{
		HideKeys:    true,
		FieldsOrder: []string{"module", "method"},
	})

	level := "info"
	if Config != nil && Config.Options.LogLevel != "" {
		level = Config.Options.LogLevel
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid LOG_LEVEL %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func getImportMaxFileMB() int {
	capStr := os.Getenv("IMPORT_MAX_FILE_MB")
	if capStr == "" {
		return 50
	}
	capMB, err := strconv.Atoi(capStr)
	if err != nil || capMB <= 0 {
		return 50
	}
	if capMB > 500 {
		return 500 // base64 payloads end up inline in sqlite rows
	}
	return capMB
}

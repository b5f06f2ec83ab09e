// ABOUTME: Configuration loading and parsing for profilevault
// ABOUTME: YAML files with ${VAR} expansion, PROFILEVAULT_* env overrides, defaults and validation

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/2389/profilevault/internal/backup"
	"github.com/2389/profilevault/internal/keys"
	"github.com/2389/profilevault/internal/settings"
)

// Config represents the complete profilevault configuration
type Config struct {
	Variant  string         `yaml:"variant" env:"PROFILEVAULT_VARIANT"`
	Database DatabaseConfig `yaml:"database"`
	Backup   BackupConfig   `yaml:"backup"`
	Cache    CacheConfig    `yaml:"cache"`
	Settings SettingsConfig `yaml:"settings"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"PROFILEVAULT_DATABASE_DRIVER"` // sqlite (pure Go) or sqlite3 (cgo)
	Path   string `yaml:"path" env:"PROFILEVAULT_DATABASE_PATH"`
}

// BackupConfig holds backup defaults
type BackupConfig struct {
	Dir    string `yaml:"dir" env:"PROFILEVAULT_BACKUP_DIR"`
	Format string `yaml:"format" env:"PROFILEVAULT_BACKUP_FORMAT"`
}

// CacheConfig holds cache and autosave configuration
type CacheConfig struct {
	EventBuffer int `yaml:"event_buffer" env:"PROFILEVAULT_CACHE_EVENT_BUFFER"`

	// Autosave is how long cache changes wait before being flushed to the
	// store. Zero disables autosave.
	Autosave time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	AutosaveRaw string `yaml:"autosave" env:"PROFILEVAULT_CACHE_AUTOSAVE"`
}

// SettingsConfig holds settings normalisation configuration
type SettingsConfig struct {
	// KeepFractions stops normalisation from truncating fractional numbers.
	KeepFractions bool `yaml:"keep_fractions" env:"PROFILEVAULT_SETTINGS_KEEP_FRACTIONS"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"PROFILEVAULT_LOG_LEVEL"`
	Format string `yaml:"format" env:"PROFILEVAULT_LOG_FORMAT"`
}

// DataDir returns the default data directory:
// $XDG_DATA_HOME/profilevault, falling back to ~/.local/share/profilevault.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "profilevault")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".profilevault")
	}
	return filepath.Join(home, ".local", "share", "profilevault")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	dataDir := DataDir()
	return &Config{
		Variant: string(keys.VariantA),
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(dataDir, "profiles.db"),
		},
		Backup: BackupConfig{
			Dir:    filepath.Join(dataDir, "backups"),
			Format: string(backup.FormatJSON),
		},
		Cache: CacheConfig{
			EventBuffer: 64,
			AutosaveRaw: "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Values in the file override the defaults, environment variables override
// the file. Environment variables in the format ${VAR_NAME} are expanded
// inside the file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		// Expand environment variables in the raw YAML content
		expandedData := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if _, ok := keys.ParseVariant(c.Variant); !ok {
		return fmt.Errorf("variant %q is not a known variant", c.Variant)
	}

	switch c.Database.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be sqlite or sqlite3, got %q", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir is required")
	}
	if _, err := backup.ParseFormat(c.Backup.Format); err != nil {
		return fmt.Errorf("backup.format: %w", err)
	}

	if c.Cache.EventBuffer <= 0 {
		return fmt.Errorf("cache.event_buffer must be positive, got %d", c.Cache.EventBuffer)
	}
	if c.Cache.Autosave < 0 {
		return fmt.Errorf("cache.autosave must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Cache.AutosaveRaw != "" {
		cfg.Cache.Autosave, err = time.ParseDuration(cfg.Cache.AutosaveRaw)
		if err != nil {
			return fmt.Errorf("parsing autosave %q: %w", cfg.Cache.AutosaveRaw, err)
		}
	}

	return nil
}

// DefaultVariant returns the configured variant.
func (c *Config) DefaultVariant() keys.Variant {
	v, _ := keys.ParseVariant(c.Variant)
	return v
}

// Policy returns the settings normalisation policy.
func (c *Config) Policy() settings.Policy {
	return settings.Policy{KeepFractions: c.Settings.KeepFractions}
}

// BackupFormat returns the configured default backup format.
func (c *Config) BackupFormat() backup.Format {
	f, _ := backup.ParseFormat(c.Backup.Format)
	return f
}

// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, defaults, env var expansion and overrides, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389/profilevault/internal/backup"
	"github.com/2389/profilevault/internal/keys"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
variant: "edition_b"

database:
  driver: "sqlite3"
  path: "./test.db"

backup:
  dir: "./backups"
  format: "toml"

cache:
  event_buffer: 16
  autosave: "5s"

settings:
  keep_fractions: true

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DefaultVariant() != keys.VariantB {
		t.Errorf("DefaultVariant() = %q, want %q", cfg.DefaultVariant(), keys.VariantB)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "sqlite3")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Backup.Dir != "./backups" {
		t.Errorf("Backup.Dir = %q, want %q", cfg.Backup.Dir, "./backups")
	}
	if cfg.BackupFormat() != backup.FormatTOML {
		t.Errorf("BackupFormat() = %q, want %q", cfg.BackupFormat(), backup.FormatTOML)
	}
	if cfg.Cache.EventBuffer != 16 {
		t.Errorf("Cache.EventBuffer = %d, want 16", cfg.Cache.EventBuffer)
	}
	if cfg.Cache.Autosave != 5*time.Second {
		t.Errorf("Cache.Autosave = %v, want %v", cfg.Cache.Autosave, 5*time.Second)
	}
	if !cfg.Policy().KeepFractions {
		t.Error("Policy().KeepFractions = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/custom.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := Default()
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/custom.db")
	}
	if cfg.Database.Driver != def.Database.Driver {
		t.Errorf("Database.Driver = %q, want default %q", cfg.Database.Driver, def.Database.Driver)
	}
	if cfg.Cache.EventBuffer != def.Cache.EventBuffer {
		t.Errorf("Cache.EventBuffer = %d, want default %d", cfg.Cache.EventBuffer, def.Cache.EventBuffer)
	}
	if cfg.Cache.Autosave != 30*time.Second {
		t.Errorf("Cache.Autosave = %v, want 30s", cfg.Cache.Autosave)
	}
	if cfg.Policy().KeepFractions {
		t.Error("Policy().KeepFractions = true, want false by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DefaultVariant() != keys.VariantA {
		t.Errorf("DefaultVariant() = %q, want %q", cfg.DefaultVariant(), keys.VariantA)
	}
	if cfg.BackupFormat() != backup.FormatJSON {
		t.Errorf("BackupFormat() = %q, want %q", cfg.BackupFormat(), backup.FormatJSON)
	}
	if !strings.HasSuffix(cfg.Database.Path, "profiles.db") {
		t.Errorf("Database.Path = %q, want a profiles.db default", cfg.Database.Path)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_PV_DB_DIR", "/var/lib/pv")

	configPath := writeConfig(t, `
database:
  path: "${TEST_PV_DB_DIR}/profiles.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/var/lib/pv/profiles.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/var/lib/pv/profiles.db")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PROFILEVAULT_DATABASE_PATH", "/env/profiles.db")
	t.Setenv("PROFILEVAULT_BACKUP_FORMAT", "xml")
	t.Setenv("PROFILEVAULT_CACHE_EVENT_BUFFER", "8")
	t.Setenv("PROFILEVAULT_CACHE_AUTOSAVE", "0s")
	t.Setenv("PROFILEVAULT_SETTINGS_KEEP_FRACTIONS", "true")
	t.Setenv("PROFILEVAULT_LOG_LEVEL", "warn")

	configPath := writeConfig(t, `
database:
  path: "/file/profiles.db"
backup:
  format: "yaml"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/env/profiles.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.BackupFormat() != backup.FormatXML {
		t.Errorf("BackupFormat() = %q, want %q", cfg.BackupFormat(), backup.FormatXML)
	}
	if cfg.Cache.EventBuffer != 8 {
		t.Errorf("Cache.EventBuffer = %d, want 8", cfg.Cache.EventBuffer)
	}
	if cfg.Cache.Autosave != 0 {
		t.Errorf("Cache.Autosave = %v, want 0", cfg.Cache.Autosave)
	}
	if !cfg.Settings.KeepFractions {
		t.Error("Settings.KeepFractions = false, want true")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("PROFILEVAULT_CACHE_EVENT_BUFFER", "lots")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for non-numeric event buffer")
	}
	if !strings.Contains(err.Error(), "parsing env") {
		t.Errorf("error = %q, want it to mention env parsing", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "database: [unclosed")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %q, want it to mention parsing", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
cache:
  autosave: "soon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "autosave") {
		t.Errorf("error = %q, want it to mention autosave", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "unknown variant", mutate: func(c *Config) { c.Variant = "c" }, wantErr: "variant"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: "database.driver"},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "missing backup dir", mutate: func(c *Config) { c.Backup.Dir = "" }, wantErr: "backup.dir"},
		{name: "unknown backup format", mutate: func(c *Config) { c.Backup.Format = "csv" }, wantErr: "backup.format"},
		{name: "zero event buffer", mutate: func(c *Config) { c.Cache.EventBuffer = 0 }, wantErr: "event_buffer"},
		{name: "negative autosave", mutate: func(c *Config) { c.Cache.Autosave = -time.Second }, wantErr: "autosave"},
		{name: "upper case warning level", mutate: func(c *Config) { c.Logging.Level = "WARNING" }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_PV_A", "alpha")

	tests := []struct {
		in   string
		want string
	}{
		{in: "no vars", want: "no vars"},
		{in: "${TEST_PV_A}", want: "alpha"},
		{in: "pre-${TEST_PV_A}-post", want: "pre-alpha-post"},
		{in: "${TEST_PV_UNSET_VAR}", want: ""},
		{in: "$TEST_PV_A", want: "$TEST_PV_A"},
	}

	for _, tt := range tests {
		if got := expandEnvVars(tt.in); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDataDir_XDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	if got := DataDir(); got != filepath.Join("/xdg/data", "profilevault") {
		t.Errorf("DataDir() = %q", got)
	}
}

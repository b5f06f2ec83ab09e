// Package config handles configuration loading for profilevault.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion, then overridden by PROFILEVAULT_* environment variables. A
// missing file is not an error: the defaults apply.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from PROFILEVAULT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/profilevault/config.yaml
//  3. ~/.config/profilevault/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${HOME}/profiles.db"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Environment Overrides
//
// Every setting can also be set directly:
//
//	PROFILEVAULT_VARIANT
//	PROFILEVAULT_DATABASE_DRIVER, PROFILEVAULT_DATABASE_PATH
//	PROFILEVAULT_BACKUP_DIR, PROFILEVAULT_BACKUP_FORMAT
//	PROFILEVAULT_CACHE_EVENT_BUFFER, PROFILEVAULT_CACHE_AUTOSAVE
//	PROFILEVAULT_SETTINGS_KEEP_FRACTIONS
//	PROFILEVAULT_LOG_LEVEL, PROFILEVAULT_LOG_FORMAT
//
// # Configuration Sections
//
//	variant: "a"                 # a or b (aliases edition_a, edition_b)
//
//	database:
//	  driver: "sqlite"           # sqlite (pure Go) or sqlite3 (cgo)
//	  path: "~/.local/share/profilevault/profiles.db"
//
//	backup:
//	  dir: "~/.local/share/profilevault/backups"
//	  format: "json"             # json, xml, yaml, toml
//
//	cache:
//	  event_buffer: 64           # per-subscriber event buffer
//	  autosave: "30s"            # "0s" disables autosave
//
//	settings:
//	  keep_fractions: false      # true keeps fractional numbers on normalisation
//
//	logging:
//	  level: "info"              # debug, info, warn, error
//	  format: "text"             # text, json
//
// # Duration Parsing
//
// cache.autosave uses Go's time.ParseDuration syntax.
//
// # Usage
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

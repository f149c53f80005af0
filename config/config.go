/*
Package config loads server configuration from a YAML file with
environment-variable overrides.

PURPOSE:
  One flat config for the capacity server: where to listen, how to store
  the exception ledger, and the board credentials used to construct the
  record source at startup. Every key can also arrive via environment
  variable, which wins over the file.

EXAMPLE config.yaml:

  port: 8080
  storage_driver: file          # "file" or "sqlite"
  storage_path: .sprinter_exceptions.json
  trello_api_key: "..."
  trello_token: "..."
  trello_board_id: "..."
  archive_list_id: "..."
  sprint_working_days: 5
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port int `yaml:"port"`

	StorageDriver string `yaml:"storage_driver"`
	StoragePath   string `yaml:"storage_path"`

	TrelloAPIKey  string `yaml:"trello_api_key"`
	TrelloToken   string `yaml:"trello_token"`
	TrelloBoardID string `yaml:"trello_board_id"`

	// ArchiveListID preselects the archive container for analyses; the
	// API request can still override it.
	ArchiveListID string `yaml:"archive_list_id"`

	SprintWorkingDays int `yaml:"sprint_working_days"`

	Debug bool `yaml:"debug"`
}

// Load reads the config file at path (missing file is fine, defaults
// apply) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		Port:          8080,
		StorageDriver: DriverFile,
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	envOverride(&cfg.StorageDriver, "STORAGE_DRIVER")
	envOverride(&cfg.StoragePath, "STORAGE_PATH")
	envOverride(&cfg.TrelloAPIKey, "TRELLO_API_KEY")
	envOverride(&cfg.TrelloToken, "TRELLO_TOKEN")
	envOverride(&cfg.TrelloBoardID, "TRELLO_BOARD_ID")
	envOverride(&cfg.ArchiveListID, "ARCHIVE_LIST_ID")
	envOverrideInt(&cfg.Port, "PORT")
	envOverrideInt(&cfg.SprintWorkingDays, "SPRINT_WORKING_DAYS")
	if v := os.Getenv("DEBUG"); v == "1" || v == "true" {
		cfg.Debug = true
	}

	if cfg.StorageDriver != DriverFile && cfg.StorageDriver != DriverSQLite {
		return Config{}, fmt.Errorf("unknown storage driver %q (want %q or %q)",
			cfg.StorageDriver, DriverFile, DriverSQLite)
	}
	return cfg, nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// HasTrelloCredentials reports whether the server can build a record
// source without an interactive setup call.
func (c Config) HasTrelloCredentials() bool {
	return c.TrelloAPIKey != "" && c.TrelloToken != "" && c.TrelloBoardID != ""
}

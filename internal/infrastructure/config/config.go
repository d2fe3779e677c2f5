// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for sheetlink configuration.
	DefaultConfigDir = ".sheetlink"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultWorkspacesFile is the default workspaces file name.
	DefaultWorkspacesFile = "workspaces.yaml"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment overrides.
const (
	EnvPostgresDSN = "SHEETLINK_POSTGRES_DSN"
	EnvLogLevel    = "SHEETLINK_LOG_LEVEL"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static configuration (read-only after init).
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Import  ImportConfig  `yaml:"import"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects the database backend.
type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	// For per-workspace databases, this is computed using SQLitePathForWorkspace.
	Path string `yaml:"path,omitempty"`
}

// PostgresConfig holds configuration for the PostgreSQL relational database.
type PostgresConfig struct {
	DSN string `yaml:"dsn,omitempty"`
	// Schema is computed per workspace using PostgresSchemaForWorkspace.
	Schema string `yaml:"-"`
}

// ImportConfig controls how files are read.
type ImportConfig struct {
	Encoding   string `yaml:"encoding"`
	Delimiter  string `yaml:"delimiter"`
	TrimSpace  bool   `yaml:"trim_space"`
	OnConflict string `yaml:"on_conflict"`
}

// ReportConfig holds report defaults.
type ReportConfig struct {
	AnchorEntity string `yaml:"anchor_entity,omitempty"`
	SumColumn    string `yaml:"sum_column,omitempty"`
	Format       string `yaml:"format"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReportFormats lists the supported report formats.
var ReportFormats = []string{"markdown", "csv", "json", "xlsx"}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Driver: DriverSQLite},
		Import: ImportConfig{
			Encoding:   "utf-8",
			Delimiter:  ",",
			OnConflict: "skip",
		},
		Report:  ReportConfig{Format: "markdown"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load loads configuration from the .sheetlink directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'sheetlink workspaces create' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes config YAML over the defaults, applies environment overrides
// and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv(EnvPostgresDSN); dsn != "" {
		c.Storage.Postgres.DSN = dsn
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn is required (or set %s)", EnvPostgresDSN))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage.driver %q (valid: sqlite, postgres)", c.Storage.Driver))
	}

	if utf8.RuneCountInString(c.Import.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("import.delimiter must be a single character, got %q", c.Import.Delimiter))
	}
	switch strings.ToLower(c.Import.OnConflict) {
	case "skip", "replace":
	default:
		errs = append(errs, fmt.Errorf("invalid import.on_conflict %q (valid: skip, replace)", c.Import.OnConflict))
	}

	if !contains(ReportFormats, c.Report.Format) {
		errs = append(errs, fmt.Errorf("invalid report.format %q (valid: %s)", c.Report.Format, strings.Join(ReportFormats, ", ")))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid logging.level %q (valid: debug, info, warn, error)", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid logging.format %q (valid: text, json)", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// DelimiterRune returns the configured CSV delimiter.
func (c ImportConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ConfigDir returns the path to the .sheetlink config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// WorkspacesFilePath returns the path to the workspaces file.
func WorkspacesFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultWorkspacesFile)
}

// Exists checks if a sheetlink config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// SanitizeWorkspaceName converts a workspace name to a safe directory and
// schema suffix.
func SanitizeWorkspaceName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces, hyphens and dots with underscores
	name = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(name)

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// SQLitePathForWorkspace returns the SQLite database path for a workspace.
func SQLitePathForWorkspace(basePath, workspace string) string {
	return filepath.Join(WorkspaceDir(basePath, workspace), "sheetlink.db")
}

// WorkspaceDir returns the directory path for a given workspace.
func WorkspaceDir(basePath, workspace string) string {
	return filepath.Join(basePath, DefaultConfigDir, "workspaces", SanitizeWorkspaceName(workspace))
}

// PostgresSchemaForWorkspace returns the PostgreSQL schema holding a workspace.
func PostgresSchemaForWorkspace(workspace string) string {
	return "sheetlink_" + SanitizeWorkspaceName(workspace)
}

// Package config provides configuration loading and management for the
// add-on registry server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variables read by the server.
const EnvPrefix = "MHUB_ADDON"

const (
	// UpdateModeOfficialOnly restricts installs and upgrades of add-ons
	// originating from official repositories to official repositories.
	UpdateModeOfficialOnly = "official"

	// UpdateModeAnyRepository also allows newer third-party versions.
	UpdateModeAnyRepository = "any"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// RegistryName is the name/identifier for this registry instance
	// Defaults to "default" if not specified
	RegistryName string `yaml:"registryName,omitempty"`

	// OfficialRepos lists the officially trusted repositories in the form
	// "repoId1|originPrefix1,repoId2|originPrefix2,...". A malformed value
	// degrades to an empty table; it is never a startup error.
	OfficialRepos string `yaml:"officialRepos,omitempty"`

	// UpdateMode is the repository precedence policy for installs and
	// dependency resolution ("official" or "any"). Defaults to "official".
	UpdateMode string `yaml:"updateMode,omitempty"`

	// Filter holds optional catalog filtering rules
	Filter *FilterConfig `yaml:"filter,omitempty"`

	Database *DatabaseConfig `yaml:"database,omitempty"`
}

// FilterConfig defines filtering rules for catalog entries
type FilterConfig struct {
	Names *NameFilterConfig `yaml:"names,omitempty"`
}

// NameFilterConfig defines add-on ID based filtering using glob patterns
type NameFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// MigrationUser is an optional separate user for schema migrations
	MigrationUser string `yaml:"migrationUser,omitempty"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from MHUB_ADDON_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	// Priority 1: Read from file if specified
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		// Trim whitespace (including newlines) from file content
		password := strings.TrimSpace(string(data))
		return password, nil
	}

	// Priority 2: Check environment variable
	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable",
		EnvPrefix,
	)
}

// GetMigrationUser returns the user to run schema migrations as, falling
// back to the regular database user.
func (d *DatabaseConfig) GetMigrationUser() string {
	if d.MigrationUser != "" {
		return d.MigrationUser
	}
	return d.User
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	return d.connectionString(d.User)
}

// GetMigrationConnectionString builds a connection string using the
// migration user if one is configured.
func (d *DatabaseConfig) GetMigrationConnectionString() (string, error) {
	return d.connectionString(d.GetMigrationUser())
}

func (d *DatabaseConfig) connectionString(user string) (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	// URL-escape the password to handle special characters
	escapedPassword := url.QueryEscape(password)

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user,
		escapedPassword,
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetRegistryName returns the registry name, using "default" if not specified
func (c *Config) GetRegistryName() string {
	if c.RegistryName == "" {
		return "default"
	}
	return c.RegistryName
}

// GetUpdateMode returns the configured update mode, defaulting to
// UpdateModeOfficialOnly.
func (c *Config) GetUpdateMode() string {
	if c.UpdateMode == "" {
		return UpdateModeOfficialOnly
	}
	return c.UpdateMode
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch c.UpdateMode {
	case "", UpdateModeOfficialOnly, UpdateModeAnyRepository:
	default:
		return fmt.Errorf("updateMode must be %q or %q, got %q",
			UpdateModeOfficialOnly, UpdateModeAnyRepository, c.UpdateMode)
	}

	// The officialRepos string is deliberately not validated: a malformed
	// value degrades to an empty official table at parse time.

	if c.Database != nil {
		if err := c.validateDatabaseConfig(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateDatabaseConfig() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database: host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database: port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database: user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database: database name is required")
	}
	return nil
}

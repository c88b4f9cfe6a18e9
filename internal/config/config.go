// Package config holds the application configuration: the shared core
// sections plus storage, templates, token verification and identity caching.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/subbot/core/config"
	coredatabase "github.com/m3rciful/subbot/core/database"
)

const (
	// DefaultPath is used when CONFIG_PATH is unset.
	DefaultPath = "configs/config.yaml"

	// StorageFile keeps identities in a JSON document.
	StorageFile = "file"
	// StorageSQLite keeps identities in a SQLite database.
	StorageSQLite = coredatabase.DriverSQLite
	// StoragePostgres keeps identities in PostgreSQL.
	StoragePostgres = coredatabase.DriverPostgres
)

// StorageConfig selects the identity store.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	// Path is the JSON document for the file driver and the database file
	// for sqlite.
	Path string `yaml:"path" envconfig:"STORAGE_PATH"`
}

// TemplatesConfig locates the reply templates.
type TemplatesConfig struct {
	Path string `yaml:"path" envconfig:"TEMPLATES_PATH"`
}

// PlatformConfig tunes getMe token checks.
type PlatformConfig struct {
	APIURL  string        `yaml:"api_url" envconfig:"PLATFORM_API_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"PLATFORM_TIMEOUT"`
}

// IdentityConfig tunes the user resolution cache. A zero TTL disables it.
type IdentityConfig struct {
	CacheTTL      time.Duration `yaml:"cache_ttl" envconfig:"IDENTITY_CACHE_TTL"`
	CacheCapacity int           `yaml:"cache_capacity" envconfig:"IDENTITY_CACHE_CAPACITY"`
}

// OwnerConfig describes the owner record seeded at startup. The id comes
// from telegram.owner_id.
type OwnerConfig struct {
	FirstName string `yaml:"first_name" envconfig:"OWNER_FIRST_NAME"`
	Username  string `yaml:"username" envconfig:"OWNER_USERNAME"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Storage   StorageConfig       `yaml:"storage"`
	Database  coredatabase.Config `yaml:"database"`
	Templates TemplatesConfig     `yaml:"templates"`
	Platform  PlatformConfig      `yaml:"platform"`
	Identity  IdentityConfig      `yaml:"identity"`
	Owner     OwnerConfig         `yaml:"owner"`
}

// CoreConfig exposes the shared sections to the core runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SQL reports whether identities live in a database.
func (c *Config) SQL() bool {
	return c.Storage.Driver == StorageSQLite || c.Storage.Driver == StoragePostgres
}

// DatabaseConfig returns the connection settings for the selected SQL
// driver, or nil for file storage.
func (c *Config) DatabaseConfig() *coredatabase.Config {
	if !c.SQL() {
		return nil
	}
	db := c.Database
	db.Driver = c.Storage.Driver
	if db.Driver == StorageSQLite {
		db.Path = c.Storage.Path
	}
	return &db
}

func (c *Config) normalize() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageFile
	}
	switch c.Storage.Driver {
	case StorageFile, StorageSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver)
		}
	case StoragePostgres:
		if strings.TrimSpace(c.Database.Host) == "" || strings.TrimSpace(c.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres driver")
		}
		if c.Database.Port == "" {
			c.Database.Port = "5432"
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, sqlite, postgres", c.Storage.Driver)
	}

	if strings.TrimSpace(c.Templates.Path) == "" {
		return fmt.Errorf("templates.path is required")
	}
	if c.Platform.Timeout < 0 {
		return fmt.Errorf("platform.timeout must be >= 0")
	}
	if c.Platform.Timeout == 0 {
		c.Platform.Timeout = 10 * time.Second
	}
	if c.Identity.CacheTTL < 0 {
		return fmt.Errorf("identity.cache_ttl must be >= 0")
	}
	if c.Identity.CacheCapacity < 0 {
		return fmt.Errorf("identity.cache_capacity must be >= 0")
	}
	return nil
}

package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/versedraft/internal/draftservice"
	"github.com/starford/versedraft/internal/resolver"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	Database DatabaseConfig    `yaml:"database"`
	Auth     AuthConfig        `yaml:"auth"`
	Drafts   DraftsConfig      `yaml:"drafts"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Drafts.Validate(); err != nil {
		return fmt.Errorf("drafts: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig points at the directory of source USFM documents.
type VaultConfig struct {
	Path string `yaml:"path"`
	// Watch keeps the source index current with fsnotify.
	Watch bool `yaml:"watch"`
	// EventThrottle bounds how often sources.changed is broadcast.
	EventThrottle time.Duration `yaml:"event_throttle"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.EventThrottle, validation.Min(time.Duration(0))),
	)
}

// DatabaseConfig selects the store backend. DSN is a SQLite file path or a
// postgres:// URL.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DSN, validation.Required),
	)
}

// Driver reports which backend the DSN selects.
func (c *DatabaseConfig) Driver() string {
	if strings.HasPrefix(c.DSN, "postgres://") || strings.HasPrefix(c.DSN, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// DraftsConfig tunes draft generation.
type DraftsConfig struct {
	Resolver  string `yaml:"resolver"`
	CacheSize int    `yaml:"cache_size"`
}

// Validate validates the drafts configuration.
func (c *DraftsConfig) Validate() error {
	if c.Resolver == "" {
		c.Resolver = resolver.NameLeastCommon
	}
	if c.CacheSize == 0 {
		c.CacheSize = draftservice.DefaultCacheSize
	}
	names := make([]any, len(resolver.Names))
	for i, n := range resolver.Names {
		names[i] = n
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Resolver, validation.In(names...)),
		validation.Field(&c.CacheSize, validation.Min(1), validation.Max(10000)),
	)
}

// AuthConfig holds the shared API token guard.
//
// Mode controls how the token is enforced:
//   - "disabled" (default): no token required, suitable for local use.
//   - "token": Bearer token required; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when the token guard is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:          "./vault",
			Watch:         true,
			EventThrottle: 2 * time.Second,
		},
		Database: DatabaseConfig{
			DSN: "./versedraft.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Drafts: DraftsConfig{
			Resolver:  resolver.NameLeastCommon,
			CacheSize: draftservice.DefaultCacheSize,
		},
	}
}

// Package config provides reading and writing of ndr configuration.
// Supports both global (~/.ndr/config.yaml) and local (.ndr/config.yaml).
// Reading: uses local if it exists, otherwise global.
// Writing: defaults to global, use --local for local.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConfigPath is returned when the config path cannot be determined.
	ErrNoConfigPath = errors.New("cannot determine config path")
	// ErrUnknownKey is returned when getting/setting an unknown config key.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrInvalidValue is returned when a config value is invalid.
	ErrInvalidValue = errors.New("invalid config value")
)

// Scope represents the configuration scope (global or local).
type Scope int

const (
	// ScopeGlobal is user-wide config in ~/.ndr/config.yaml (default)
	ScopeGlobal Scope = iota
	// ScopeLocal is repository-specific config in .ndr/config.yaml
	ScopeLocal
)

// Author represents the default actor identity for CLI mutations.
type Author struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// Store selects the persistence backend.
type Store struct {
	Driver    string `yaml:"driver,omitempty"`
	DSN       string `yaml:"dsn,omitempty"`
	PathIndex string `yaml:"path_index,omitempty"`
}

// Limits holds tree and listing bounds.
type Limits struct {
	MaxSlug  *int `yaml:"max_slug,omitempty"`
	MaxName  *int `yaml:"max_name,omitempty"`
	MaxDepth *int `yaml:"max_depth,omitempty"`
	PageSize *int `yaml:"page_size,omitempty"`
}

// Server holds HTTP server options.
type Server struct {
	Addr        string `yaml:"addr,omitempty"`
	Metrics     *bool  `yaml:"metrics,omitempty"`
	ActorHeader string `yaml:"actor_header,omitempty"`
}

// Defaults applied when not configured.
const (
	DefaultDriver      = "sqlite"
	DefaultPathIndex   = "auto"
	DefaultMaxSlug     = 255
	DefaultMaxName     = 255
	DefaultMaxDepth    = 64
	DefaultPageSize    = 20
	DefaultAddr        = ":8080"
	DefaultActorHeader = "X-User-Id"
)

// Validation bounds for configuration values.
const (
	MinMaxSlug  = 1
	MaxMaxSlug  = 255
	MinMaxName  = 1
	MaxMaxName  = 4096
	MinMaxDepth = 1
	MaxMaxDepth = 1024
	MinPageSize = 1
	MaxPageSize = 1000
)

// Config contains configuration for ndr.
type Config struct {
	Author Author `yaml:"author,omitempty"`
	Store  Store  `yaml:"store,omitempty"`
	Limits Limits `yaml:"limits,omitempty"`
	Server Server `yaml:"server,omitempty"`

	// path is the file this config was loaded from (for Save)
	path  string
	scope Scope
}

func checkRange(name string, v *int, lo, hi int) error {
	if v != nil && (*v < lo || *v > hi) {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidValue, name, lo, hi, *v)
	}
	return nil
}

// Validate checks that all configured values are within acceptable bounds.
// Returns nil if all values are valid or not set (defaults will be used).
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: store.driver must be sqlite or postgres, got %q", ErrInvalidValue, c.Store.Driver)
	}
	switch c.Store.PathIndex {
	case "", "auto", "segment", "ltree":
	default:
		return fmt.Errorf("%w: store.path_index must be auto, segment or ltree, got %q", ErrInvalidValue, c.Store.PathIndex)
	}
	if err := checkRange("max_slug", c.Limits.MaxSlug, MinMaxSlug, MaxMaxSlug); err != nil {
		return err
	}
	if err := checkRange("max_name", c.Limits.MaxName, MinMaxName, MaxMaxName); err != nil {
		return err
	}
	if err := checkRange("max_depth", c.Limits.MaxDepth, MinMaxDepth, MaxMaxDepth); err != nil {
		return err
	}
	return checkRange("page_size", c.Limits.PageSize, MinPageSize, MaxPageSize)
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// Driver returns the store driver (defaults to sqlite).
func (c *Config) Driver() string {
	if c.Store.Driver == "" {
		return DefaultDriver
	}
	return c.Store.Driver
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string { return c.Store.DSN }

// PathIndex returns the requested path index mode (defaults to auto).
func (c *Config) PathIndex() string {
	if c.Store.PathIndex == "" {
		return DefaultPathIndex
	}
	return c.Store.PathIndex
}

// MaxSlug returns the slug length bound (defaults to 255).
func (c *Config) MaxSlug() int { return intOr(c.Limits.MaxSlug, DefaultMaxSlug) }

// MaxName returns the display name length bound (defaults to 255).
func (c *Config) MaxName() int { return intOr(c.Limits.MaxName, DefaultMaxName) }

// MaxDepth returns the deepest level create and move accept (defaults to 64).
func (c *Config) MaxDepth() int { return intOr(c.Limits.MaxDepth, DefaultMaxDepth) }

// PageSize returns the default list_nodes page size (defaults to 20).
func (c *Config) PageSize() int { return intOr(c.Limits.PageSize, DefaultPageSize) }

// Addr returns the HTTP listen address (defaults to :8080).
func (c *Config) Addr() string {
	if c.Server.Addr == "" {
		return DefaultAddr
	}
	return c.Server.Addr
}

// Metrics reports whether /metrics is exposed (defaults to true).
func (c *Config) Metrics() bool {
	if c.Server.Metrics == nil {
		return true
	}
	return *c.Server.Metrics
}

// ActorHeader returns the request header carrying the actor (defaults to X-User-Id).
func (c *Config) ActorHeader() string {
	if c.Server.ActorHeader == "" {
		return DefaultActorHeader
	}
	return c.Server.ActorHeader
}

// LocalPath returns the path to the local (repository) config file.
func LocalPath() string {
	return filepath.Join(".ndr", "config.yaml")
}

// GlobalPath returns the path to the global (user) config file: ~/.ndr/config.yaml
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ndr", "config.yaml")
}

// Path returns the local config path (for backwards compatibility).
func Path() string {
	return LocalPath()
}

// Load reads configuration: uses local if it exists, otherwise global.
func Load() (*Config, error) {
	// Check if local config exists
	if _, err := os.Stat(LocalPath()); err == nil {
		return LoadScope(ScopeLocal)
	}
	// Fall back to global
	return LoadScope(ScopeGlobal)
}

// LoadScope reads configuration from a specific scope.
func LoadScope(scope Scope) (*Config, error) {
	path := pathForScope(scope)
	if path == "" {
		return &Config{scope: scope}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{path: path, scope: scope}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w\n\nTo fix: edit the file to correct the YAML syntax, or delete it to use defaults", path, err)
	}
	cfg.path = path
	cfg.scope = scope

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Scope returns which scope this config was loaded from.
func (c *Config) Scope() Scope {
	return c.scope
}

// Save writes the configuration to its original location.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = pathForScope(c.scope)
	}
	if c.path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(c.path)
}

// SaveScope writes the configuration to the specified scope.
func (c *Config) SaveScope(scope Scope) error {
	path := pathForScope(scope)
	if path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(path)
}

// saveToPath writes configuration to a specific filesystem path.
// Creates parent directories as needed with mode 0755.
func (c *Config) saveToPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// pathForScope returns the filesystem path for a given scope.
func pathForScope(scope Scope) string {
	switch scope {
	case ScopeLocal:
		return LocalPath()
	case ScopeGlobal:
		return GlobalPath()
	default:
		return ""
	}
}

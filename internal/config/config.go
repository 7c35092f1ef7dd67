// Package config loads service configuration from TOML files with
// environment overlays and variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	// BaseConfigFile is the configuration file read when CONFIG_PATH is unset.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern names environment overlays next to the base file.
	OverlayConfigPattern = "config.%s.toml"

	// EnvConfigPath points at an explicit base configuration file.
	EnvConfigPath = "CONFIG_PATH"

	// EnvServiceEnv selects the overlay, e.g. "prod" reads config.prod.toml.
	EnvServiceEnv = "SERVICE_ENV"
)

// Config is the root service configuration.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Logging      LoggingConfig      `toml:"logging"`
	Assets       AssetsConfig       `toml:"assets"`
	Certificates CertificatesConfig `toml:"certificates"`
}

// Load reads the base file and any SERVICE_ENV overlay, then finalizes the
// result. A missing default config.toml is not an error; an explicit
// CONFIG_PATH must exist.
func Load() (*Config, error) {
	path, explicit := basePath()

	cfg, err := load(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg = &Config{}
	default:
		return nil, err
	}

	if op := overlayPath(path); op != "" {
		overlay, err := load(op)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", op, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates
// every section.
func (c *Config) Finalize() error {
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Assets.Finalize(); err != nil {
		return fmt.Errorf("assets: %w", err)
	}
	if err := c.Certificates.Finalize(); err != nil {
		return fmt.Errorf("certificates: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Logging.Merge(&overlay.Logging)
	c.Assets.Merge(&overlay.Assets)
	c.Certificates.Merge(&overlay.Certificates)
}

func basePath() (string, bool) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, true
	}
	return BaseConfigFile, false
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvServiceEnv)
	if env == "" {
		return ""
	}
	p := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	EnvLogLevel = "LOG_LEVEL"
	EnvLogFile  = "LOG_FILE"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// LoggingConfig controls the global logger and its rotating file.
type LoggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Finalize applies defaults, loads environment overrides, and validates the logging configuration.
func (c *LoggingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *LoggingConfig) Merge(overlay *LoggingConfig) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.File != "" {
		c.File = overlay.File
	}
	if overlay.MaxSizeMB != 0 {
		c.MaxSizeMB = overlay.MaxSizeMB
	}
	if overlay.MaxBackups != 0 {
		c.MaxBackups = overlay.MaxBackups
	}
	if overlay.MaxAgeDays != 0 {
		c.MaxAgeDays = overlay.MaxAgeDays
	}
	if overlay.Compress {
		c.Compress = true
	}
}

func (c *LoggingConfig) loadDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 50
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

func (c *LoggingConfig) loadEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.File = v
	}
}

func (c *LoggingConfig) validate() error {
	c.Level = strings.ToLower(c.Level)
	for _, l := range logLevels {
		if c.Level == l {
			return nil
		}
	}
	return fmt.Errorf("invalid level %q", c.Level)
}

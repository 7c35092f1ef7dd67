package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

const (
	EnvAssetsRoot              = "ASSETS_ROOT"
	EnvAssetsFontPath          = "ASSETS_FONT_PATH"
	EnvAssetsMediaDir          = "ASSETS_MEDIA_DIR"
	EnvAssetsMaxBackgroundSize = "ASSETS_MAX_BACKGROUND_SIZE"
)

// AssetsConfig locates templates and fonts on disk.
type AssetsConfig struct {
	// Root bounds every background path in a batch.
	Root string `toml:"root"`
	// FontPath is absolute or relative to Root.
	FontPath string `toml:"font_path"`
	// MediaDir holds course images, relative to Root.
	MediaDir          string `toml:"media_dir"`
	MaxBackgroundSize string `toml:"max_background_size"`
	maxBackgroundVal  int64
}

func (c *AssetsConfig) MaxBackgroundBytes() int64 {
	return c.maxBackgroundVal
}

// Finalize applies defaults, loads environment overrides, and validates the assets configuration.
func (c *AssetsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *AssetsConfig) Merge(overlay *AssetsConfig) {
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
	if overlay.FontPath != "" {
		c.FontPath = overlay.FontPath
	}
	if overlay.MediaDir != "" {
		c.MediaDir = overlay.MediaDir
	}
	if size, err := units.FromHumanSize(overlay.MaxBackgroundSize); err == nil {
		c.MaxBackgroundSize = overlay.MaxBackgroundSize
		c.maxBackgroundVal = size
	}
}

func (c *AssetsConfig) loadDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
	if c.FontPath == "" {
		c.FontPath = "static/fonts/Montserrat-Medium.ttf"
	}
	if c.MediaDir == "" {
		c.MediaDir = "media"
	}
	if c.MaxBackgroundSize == "" {
		c.MaxBackgroundSize = "20MB"
	}
}

func (c *AssetsConfig) loadEnv() {
	if v := os.Getenv(EnvAssetsRoot); v != "" {
		c.Root = v
	}
	if v := os.Getenv(EnvAssetsFontPath); v != "" {
		c.FontPath = v
	}
	if v := os.Getenv(EnvAssetsMediaDir); v != "" {
		c.MediaDir = v
	}
	if v := os.Getenv(EnvAssetsMaxBackgroundSize); v != "" {
		c.MaxBackgroundSize = v
	}
}

func (c *AssetsConfig) validate() error {
	size, err := units.FromHumanSize(c.MaxBackgroundSize)
	if err != nil {
		return fmt.Errorf("invalid max_background_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_background_size must be positive")
	}
	c.maxBackgroundVal = size
	return nil
}

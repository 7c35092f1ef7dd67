package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

const (
	EnvFrontendURL    = "FRONTEND_URL"
	EnvDefaultZipName = "CERTIFICATES_DEFAULT_ZIP_NAME"
)

// CertificatesConfig holds issuing defaults.
type CertificatesConfig struct {
	// FrontendURL is the public site that hosts /certificate/<uuid>.
	FrontendURL    string `toml:"frontend_url"`
	DefaultZipName string `toml:"default_zip_name"`
}

// Finalize applies defaults, loads environment overrides, and validates the certificates configuration.
func (c *CertificatesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *CertificatesConfig) Merge(overlay *CertificatesConfig) {
	if overlay.FrontendURL != "" {
		c.FrontendURL = overlay.FrontendURL
	}
	if overlay.DefaultZipName != "" {
		c.DefaultZipName = overlay.DefaultZipName
	}
}

func (c *CertificatesConfig) loadDefaults() {
	if c.FrontendURL == "" {
		c.FrontendURL = "https://study-app.ucrm.uz"
	}
	if c.DefaultZipName == "" {
		c.DefaultZipName = "certificates"
	}
}

func (c *CertificatesConfig) loadEnv() {
	if v := os.Getenv(EnvFrontendURL); v != "" {
		c.FrontendURL = v
	}
	if v := os.Getenv(EnvDefaultZipName); v != "" {
		c.DefaultZipName = v
	}
}

func (c *CertificatesConfig) validate() error {
	u, err := url.Parse(c.FrontendURL)
	if err != nil {
		return fmt.Errorf("invalid frontend_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("frontend_url must be an absolute http(s) URL, got %q", c.FrontendURL)
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	return nil
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	parsed, err := url.Parse(c.Paths.URLRoot)
	if err != nil {
		return fmt.Errorf("paths.url_root: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("paths.url_root must be an absolute http(s) URL, got %q", c.Paths.URLRoot)
	}
	if parsed.Host == "" {
		return fmt.Errorf("paths.url_root is missing a host: %q", c.Paths.URLRoot)
	}
	if c.Paths.CrawlDir != "" && c.Paths.PublishDir != "" && c.Paths.CrawlDir == c.Paths.PublishDir {
		return errors.New("paths.crawl_dir and paths.publish_dir must differ")
	}
	return nil
}

func (c *Config) validateConvert() error {
	if c.Convert.TimeoutSeconds < 0 {
		return errors.New("convert.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

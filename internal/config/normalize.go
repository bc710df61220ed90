package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeQueries()
	c.normalizePublish()
	c.normalizeConvert()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CrawlDir, err = expandPath(strings.TrimSpace(c.Paths.CrawlDir)); err != nil {
		return fmt.Errorf("paths.crawl_dir: %w", err)
	}
	if c.Paths.PublishDir, err = expandPath(strings.TrimSpace(c.Paths.PublishDir)); err != nil {
		return fmt.Errorf("paths.publish_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.URLRoot = strings.TrimSpace(c.Paths.URLRoot)
	if c.Paths.URLRoot == "" {
		if value, ok := os.LookupEnv("AIRCHEQ_PODCAST_URL_ROOT"); ok {
			c.Paths.URLRoot = strings.TrimSpace(value)
		}
	}
	if c.Paths.URLRoot == "" {
		c.Paths.URLRoot = defaultURLRoot
	}
	return nil
}

// normalizeQueries keeps configuration order. Queries are matched literally,
// so only surrounding whitespace is dropped; duplicates stay because each
// query is processed independently.
func (c *Config) normalizeQueries() {
	queries := make([]string, 0, len(c.Query))
	for _, q := range c.Query {
		trimmed := strings.TrimSpace(q)
		if trimmed == "" {
			continue
		}
		queries = append(queries, trimmed)
	}
	c.Query = queries
}

func (c *Config) normalizePublish() {
	c.Publish.Owner = strings.TrimSpace(c.Publish.Owner)
	c.Publish.FeedTitle = strings.TrimSpace(c.Publish.FeedTitle)
	if c.Publish.FeedTitle == "" {
		c.Publish.FeedTitle = defaultFeedTitle
	}
	c.Publish.FeedDescription = strings.TrimSpace(c.Publish.FeedDescription)
	if c.Publish.FeedDescription == "" {
		c.Publish.FeedDescription = defaultFeedDescription
	}
}

func (c *Config) normalizeConvert() {
	c.Convert.FFmpegBinary = strings.TrimSpace(c.Convert.FFmpegBinary)
	if c.Convert.FFmpegBinary == "" {
		c.Convert.FFmpegBinary = defaultFFmpegBinary
	}
	c.Convert.FFprobeBinary = strings.TrimSpace(c.Convert.FFprobeBinary)
	if c.Convert.FFprobeBinary == "" {
		c.Convert.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

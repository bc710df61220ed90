package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and URL configuration.
type Paths struct {
	CrawlDir   string `toml:"crawl_dir"`
	PublishDir string `toml:"publish_dir"`
	URLRoot    string `toml:"url_root"`
	LogDir     string `toml:"log_dir"`
}

// Publish contains configuration for the publish stage and the feed.
type Publish struct {
	// Owner is the system user that receives ownership of published files.
	// Empty disables the ownership handoff.
	Owner           string `toml:"owner"`
	FeedTitle       string `toml:"feed_title"`
	FeedDescription string `toml:"feed_description"`
	// PruneStale removes media left in publish_dir by earlier runs so the feed
	// and the directory agree.
	PruneStale bool `toml:"prune_stale"`
}

// Convert contains configuration for the container repackaging step.
type Convert struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"` // 0 waits for ffmpeg indefinitely
	VerifyOutput   bool   `toml:"verify_output"`
}

// Match contains configuration for query matching.
type Match struct {
	// UnicodeNormalize compares NFC forms of query and file name, which
	// matters for kana queries against NFD file names written by macOS.
	UnicodeNormalize bool `toml:"unicode_normalize"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunSummary     bool   `toml:"run_summary"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for aircheq-podcast.
//
// Configuration sections by subsystem:
//   - Query: ordered program name tokens, one published episode each
//   - Paths: crawl root, publish root, URL root, log directory
//   - Publish: ownership handoff, feed channel metadata, pruning
//   - Convert: ffmpeg/ffprobe binaries and timeout
//   - Match: query matching options
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Query         []string      `toml:"query"`
	Paths         Paths         `toml:"paths"`
	Publish       Publish       `toml:"publish"`
	Convert       Convert       `toml:"convert"`
	Match         Match         `toml:"match"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// legacyConfig is the JSON document earlier releases wrote to
// /etc/aircheq-podcast/config.json.
type legacyConfig struct {
	Query []string `json:"query"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		return decodeLegacy(data, cfg)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func decodeLegacy(data []byte, cfg *Config) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("parse config: invalid JSONC: %w", err)
	}
	var legacy legacyConfig
	if err := json.Unmarshal(standardized, &legacy); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if legacy.Query != nil {
		cfg.Query = legacy.Query
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	candidates := []string{defaultPath, systemConfigPath, legacyConfigPath, projectPath}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}

	return defaultPath, false, nil
}

// RequireRunPaths reports whether the directories a publication run needs are
// configured. It is separate from Validate because the CLI may supply them as
// flags after the file has been loaded.
func (c *Config) RequireRunPaths() error {
	if strings.TrimSpace(c.Paths.CrawlDir) == "" {
		return errors.New("paths.crawl_dir is required (set it in the config file or pass --src)")
	}
	if strings.TrimSpace(c.Paths.PublishDir) == "" {
		return errors.New("paths.publish_dir is required (set it in the config file or pass --dst)")
	}
	if len(c.Query) == 0 {
		return errors.New("query must list at least one program")
	}
	return nil
}

// ApplyOverrides replaces path settings with non-empty CLI values and
// re-normalizes them.
func (c *Config) ApplyOverrides(crawlDir, publishDir, urlRoot string) error {
	if v := strings.TrimSpace(crawlDir); v != "" {
		c.Paths.CrawlDir = v
	}
	if v := strings.TrimSpace(publishDir); v != "" {
		c.Paths.PublishDir = v
	}
	if v := strings.TrimSpace(urlRoot); v != "" {
		c.Paths.URLRoot = v
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	return c.validatePaths()
}

// EnsureDirectories creates directories the CLI writes into. The publish
// directory is created as well so the first run against an empty web root
// succeeds.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.PublishDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the advisory lock file used to serialize CLI runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "aircheq-podcast.lock")
}

// FFmpegBinary returns the ffmpeg executable used for repackaging.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Convert.FFmpegBinary); v != "" {
		return v
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for output verification.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Convert.FFprobeBinary); v != "" {
		return v
	}
	return defaultFFprobeBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

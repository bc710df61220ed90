package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"aircheq-podcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Crawl and publish directories exist; ownership handoff and notifications
// are disabled so tests run unprivileged and offline.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CrawlDir = filepath.Join(base, "recordings")
	cfgVal.Paths.PublishDir = filepath.Join(base, "www")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Publish.Owner = ""
	cfgVal.Convert.VerifyOutput = false
	cfgVal.Notifications.NtfyTopic = ""
	for _, dir := range []string{cfgVal.Paths.CrawlDir, cfgVal.Paths.PublishDir, cfgVal.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithQueries replaces the configured queries.
func WithQueries(queries ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Query = append([]string(nil), queries...)
	}
}

// WithURLRoot overrides the feed URL root.
func WithURLRoot(root string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.URLRoot = root
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CrawlDir)
}

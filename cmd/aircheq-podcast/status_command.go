package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"aircheq-podcast/internal/config"
	"aircheq-podcast/internal/feed"
	"aircheq-podcast/internal/preflight"
	"aircheq-podcast/internal/publish"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, dependency, and feed health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			configMessage := ctx.configPath
			configKind := statusOK
			if !ctx.configExists {
				configMessage += " (not found; defaults in use)"
				configKind = statusWarn
			}
			lines = append(lines, renderStatusLine("Config", configKind, configMessage, colorize))
			lines = append(lines, renderStatusLine("Queries", statusInfo, fmt.Sprintf("%d configured", len(cfg.Query)), colorize))
			lines = append(lines, renderStatusLine("Run lock", lockKind(cfg), lockMessage(cfg), colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Paths", colorize)...)
			lines = append(lines, checkLine(preflight.CheckDirectoryAccess("Crawl directory", cfg.Paths.CrawlDir, preflight.AccessRead), colorize))
			lines = append(lines, checkLine(preflight.CheckDirectoryAccess("Publish directory", cfg.Paths.PublishDir, preflight.AccessReadWrite), colorize))
			lines = append(lines, checkLine(preflight.CheckURLRoot(cfg.Paths.URLRoot), colorize))
			lines = append(lines, checkLine(preflight.CheckOwner(cfg.Publish.Owner), colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(preflight.CheckSystemDeps(cfg), colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Feed", colorize)...)
			lines = append(lines, feedStatusLines(cfg, colorize)...)
			lines = append(lines, renderStatusLine("Notifications", notifyKind(cfg), notifyMessage(cfg), colorize))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func feedStatusLines(cfg *config.Config, colorize bool) []string {
	if strings.TrimSpace(cfg.Paths.PublishDir) == "" {
		return []string{renderStatusLine("feed.xml", statusWarn, "publish directory not configured", colorize)}
	}
	feedPath := filepath.Join(cfg.Paths.PublishDir, feed.FileName)
	doc, err := feed.Read(feedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{renderStatusLine("feed.xml", statusWarn, "not written yet", colorize)}
		}
		return []string{renderStatusLine("feed.xml", statusError, err.Error(), colorize)}
	}
	lines := []string{renderStatusLine("feed.xml", statusOK, fmt.Sprintf("%d items", len(doc.Items)), colorize)}

	media, err := publish.ListMedia(cfg.Paths.PublishDir)
	if err != nil {
		return append(lines, renderStatusLine("Consistency", statusError, err.Error(), colorize))
	}
	drift := feed.Compare(doc, media)
	if drift.Clean() {
		return append(lines, renderStatusLine("Consistency", statusOK, "feed matches publish directory", colorize))
	}
	return append(lines, renderStatusLine("Consistency", statusWarn,
		fmt.Sprintf("%d missing, %d unlisted (run `aircheq-podcast feed verify`)", len(drift.Missing), len(drift.Unlisted)), colorize))
}

func lockKind(cfg *config.Config) statusKind {
	if runInProgress(cfg) {
		return statusWarn
	}
	return statusInfo
}

func lockMessage(cfg *config.Config) string {
	if runInProgress(cfg) {
		return "a run is in progress"
	}
	return "idle"
}

// runInProgress probes the run lock without holding it.
func runInProgress(cfg *config.Config) bool {
	if _, err := os.Stat(cfg.LockPath()); err != nil {
		return false
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryRLock()
	if err != nil {
		return false
	}
	if ok {
		_ = lock.Unlock()
		return false
	}
	return true
}

func notifyKind(cfg *config.Config) statusKind {
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return statusInfo
	}
	return statusOK
}

func notifyMessage(cfg *config.Config) string {
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return "disabled"
	}
	return fmt.Sprintf("ntfy (run summary: %s, errors: %s)", yesNo(cfg.Notifications.RunSummary), yesNo(cfg.Notifications.Errors))
}

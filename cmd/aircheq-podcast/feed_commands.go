package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/spf13/cobra"

	"aircheq-podcast/internal/config"
	"aircheq-podcast/internal/feed"
	"aircheq-podcast/internal/publish"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Inspect the generated podcast feed",
	}
	feedCmd.AddCommand(newFeedShowCommand(ctx))
	feedCmd.AddCommand(newFeedVerifyCommand(ctx))
	return feedCmd
}

func newFeedShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show [feed.xml]",
		Short: "List the items of a feed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := feedPathArg(cfg, args)
			if err != nil {
				return err
			}
			doc, err := feed.Read(path)
			if err != nil {
				return fmt.Errorf("read feed: %w", err)
			}
			if jsonOut {
				return writeJSON(cmd, newFeedView(doc))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s (%d items)\n", doc.Title, doc.Link, len(doc.Items))
			rows := make([][]string, 0, len(doc.Items))
			for _, item := range doc.Items {
				size, mime := "", ""
				if len(item.Enclosures) > 0 {
					size = item.Enclosures[0].Length
					mime = item.Enclosures[0].Type
				}
				rows = append(rows, []string{item.Title, formatPublished(item.PublishedParsed), size, mime, item.Link})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Published", "Bytes", "Type", "Link"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the feed items as JSON")
	return cmd
}

func newFeedVerifyCommand(ctx *commandContext) *cobra.Command {
	var dst string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that feed.xml lists exactly the media in the publish directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ApplyOverrides("", dst, ""); err != nil {
				return err
			}
			path, err := feedPathArg(cfg, nil)
			if err != nil {
				return err
			}
			doc, err := feed.Read(path)
			if err != nil {
				return fmt.Errorf("read feed: %w", err)
			}
			media, err := publish.ListMedia(cfg.Paths.PublishDir)
			if err != nil {
				return fmt.Errorf("list publish directory: %w", err)
			}

			out := cmd.OutOrStdout()
			drift := feed.Compare(doc, media)
			if drift.Clean() {
				fmt.Fprintf(out, "Feed consistent: %d items, %d media files\n", len(doc.Items), len(media))
				return nil
			}
			for _, name := range drift.Missing {
				fmt.Fprintf(out, "missing on disk: %s\n", name)
			}
			for _, name := range drift.Unlisted {
				fmt.Fprintf(out, "not in feed:     %s\n", name)
			}
			return fmt.Errorf("feed out of sync: %d missing, %d unlisted", len(drift.Missing), len(drift.Unlisted))
		},
	}
	cmd.Flags().StringVarP(&dst, "dst", "o", "", "Publish directory to verify (overrides paths.publish_dir)")
	return cmd
}

func feedPathArg(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return config.ExpandPath(args[0])
	}
	if strings.TrimSpace(cfg.Paths.PublishDir) == "" {
		return "", errors.New("paths.publish_dir is not configured; pass the feed path explicitly")
	}
	return filepath.Join(cfg.Paths.PublishDir, feed.FileName), nil
}

func formatPublished(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

type feedItemView struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
	Length    string `json:"length,omitempty"`
	Type      string `json:"type,omitempty"`
}

type feedView struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Link        string         `json:"link"`
	Items       []feedItemView `json:"items"`
}

func newFeedView(doc *gofeed.Feed) feedView {
	view := feedView{
		Title:       doc.Title,
		Description: doc.Description,
		Link:        doc.Link,
		Items:       make([]feedItemView, 0, len(doc.Items)),
	}
	for _, item := range doc.Items {
		iv := feedItemView{Title: item.Title, Link: item.Link}
		if item.PublishedParsed != nil {
			iv.Published = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		if len(item.Enclosures) > 0 {
			iv.Length = item.Enclosures[0].Length
			iv.Type = item.Enclosures[0].Type
		}
		view.Items = append(view.Items, iv)
	}
	return view
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"aircheq-podcast/internal/config"
	"aircheq-podcast/internal/convert"
	"aircheq-podcast/internal/crawl"
	"aircheq-podcast/internal/logging"
	"aircheq-podcast/internal/notifications"
	"aircheq-podcast/internal/ownership"
	"aircheq-podcast/internal/pipeline"
	"aircheq-podcast/internal/preflight"
	"aircheq-podcast/internal/publish"
	"aircheq-podcast/internal/services"
)

type runOptions struct {
	src       string
	dst       string
	urlRoot   string
	dryRun    bool
	jsonOut   bool
	skipCheck bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Publish the newest recording for each query and rewrite feed.xml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runPublication(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.src, "src", "i", "", "Directory to crawl for recordings (overrides paths.crawl_dir)")
	cmd.Flags().StringVarP(&opts.dst, "dst", "o", "", "Web root to publish into (overrides paths.publish_dir)")
	cmd.Flags().StringVarP(&opts.urlRoot, "url", "u", "", "Public URL of the web root (overrides paths.url_root)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Select recordings without publishing anything")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVar(&opts.skipCheck, "skip-preflight", false, "Skip binary and directory checks")
	return cmd
}

func runPublication(cmd *cobra.Command, cfg *config.Config, opts runOptions) error {
	if err := cfg.ApplyOverrides(opts.src, opts.dst, opts.urlRoot); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if err := cfg.RequireRunPaths(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := newRunLogger(cfg, opts.jsonOut)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another aircheq-podcast run holds %s", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	if !opts.skipCheck {
		if err := preflight.FirstFailure(preflight.RunAll(cfg, opts.dryRun)); err != nil {
			return services.Wrap(services.ErrConfiguration, "run", "preflight", "", err)
		}
	}

	runner := buildRunner(cfg, logger)
	report, runErr := runner.Run(cmd.Context(), pipeline.Request{
		CrawlRoot:   cfg.Paths.CrawlDir,
		PublishRoot: cfg.Paths.PublishDir,
		URLRoot:     cfg.Paths.URLRoot,
		Queries:     cfg.Query,
		DryRun:      opts.dryRun,
	})

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		if err := writeJSON(cmd, newReportView(report, runErr)); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}
	return runErr
}

// newRunLogger keeps stdout clean for the JSON report by sending log
// records to stderr instead.
func newRunLogger(cfg *config.Config, jsonOut bool) (*slog.Logger, error) {
	if !jsonOut {
		return logging.NewFromConfig(cfg)
	}
	outputs := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, logging.FileName))
	}
	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: outputs,
	})
}

func buildRunner(cfg *config.Config, logger *slog.Logger) *pipeline.Runner {
	converter := convert.NewFFmpeg(convert.Options{
		FFmpegBinary:  cfg.FFmpegBinary(),
		FFprobeBinary: cfg.FFprobeBinary(),
		Timeout:       time.Duration(cfg.Convert.TimeoutSeconds) * time.Second,
		Verify:        cfg.Convert.VerifyOutput,
	}, logger)
	publisher := publish.New(converter, ownership.NewSystem(), cfg.Publish.Owner, logger)
	return pipeline.NewRunner(publisher, notifications.NewService(cfg), pipeline.Options{
		Match:           crawl.Options{UnicodeNormalize: cfg.Match.UnicodeNormalize},
		FeedTitle:       cfg.Publish.FeedTitle,
		FeedDescription: cfg.Publish.FeedDescription,
		PruneStale:      cfg.Publish.PruneStale,
	}, logger)
}

func printReport(out io.Writer, report pipeline.Report) {
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, []string{
			res.Query,
			string(res.State),
			res.Source.Name,
			res.Item.Filename,
			res.Reason(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Query", "State", "Source", "Published", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))

	if report.DryRun {
		fmt.Fprintf(out, "Dry run %s: nothing was published\n", shortRunID(report.RunID))
		return
	}
	fmt.Fprintf(out, "Run %s: %d published, %d skipped in %s\n",
		shortRunID(report.RunID), report.Published(), report.Skipped(), report.Duration.Round(time.Millisecond))
	if report.FeedPath != "" {
		fmt.Fprintf(out, "Feed: %s\n", report.FeedPath)
	}
	if len(report.Pruned) > 0 {
		fmt.Fprintf(out, "Pruned: %s\n", strings.Join(report.Pruned, ", "))
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type queryView struct {
	Query      string `json:"query"`
	State      string `json:"state"`
	Reason     string `json:"reason,omitempty"`
	Matches    int    `json:"matches"`
	Source     string `json:"source,omitempty"`
	Created    string `json:"created,omitempty"`
	TimeSource string `json:"time_source,omitempty"`
	Published  string `json:"published,omitempty"`
	URL        string `json:"url,omitempty"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
	Error      string `json:"error,omitempty"`
}

type reportView struct {
	RunID      string      `json:"run_id"`
	DryRun     bool        `json:"dry_run"`
	Published  int         `json:"published"`
	Skipped    int         `json:"skipped"`
	FeedPath   string      `json:"feed_path,omitempty"`
	FeedURL    string      `json:"feed_url,omitempty"`
	Pruned     []string    `json:"pruned,omitempty"`
	DurationMS int64       `json:"duration_ms"`
	Queries    []queryView `json:"queries"`
	Error      string      `json:"error,omitempty"`
	Fatal      bool        `json:"fatal,omitempty"`
}

func newReportView(report pipeline.Report, runErr error) reportView {
	view := reportView{
		RunID:      report.RunID,
		DryRun:     report.DryRun,
		Published:  report.Published(),
		Skipped:    report.Skipped(),
		FeedPath:   report.FeedPath,
		FeedURL:    report.FeedURL,
		Pruned:     report.Pruned,
		DurationMS: report.Duration.Milliseconds(),
		Queries:    make([]queryView, 0, len(report.Results)),
	}
	if runErr != nil {
		view.Error = runErr.Error()
		view.Fatal = services.IsFatal(runErr)
	}
	for _, res := range report.Results {
		q := queryView{
			Query:     res.Query,
			State:     string(res.State),
			Reason:    res.Reason(),
			Matches:   res.Matches,
			Source:    res.Source.Path,
			Published: res.Item.Filename,
			URL:       res.Item.URL,
			SizeBytes: res.Item.Size,
		}
		if !res.Source.Created.IsZero() {
			q.Created = res.Source.Created.Format(time.RFC3339)
			q.TimeSource = string(res.Source.TimeSource)
		}
		if res.Err != nil {
			q.Error = res.Err.Error()
		}
		view.Queries = append(view.Queries, q)
	}
	return view
}

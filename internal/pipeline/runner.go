package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"aircheq-podcast/internal/crawl"
	"aircheq-podcast/internal/feed"
	"aircheq-podcast/internal/fileutil"
	"aircheq-podcast/internal/logging"
	"aircheq-podcast/internal/notifications"
	"aircheq-podcast/internal/publish"
	"aircheq-podcast/internal/services"
)

// Publisher places a selected recording into the publish root.
type Publisher interface {
	Publish(ctx context.Context, sel crawl.Candidate, destRoot string) (publish.Item, error)
}

// Options tunes a Runner.
type Options struct {
	Match           crawl.Options
	FeedTitle       string
	FeedDescription string
	// PruneStale removes top-level media the current run did not publish.
	PruneStale bool
}

// Request describes a single run.
type Request struct {
	CrawlRoot   string
	PublishRoot string
	URLRoot     string
	Queries     []string
	// DryRun stops every query after selection.
	DryRun bool
}

// Runner executes publication runs.
type Runner struct {
	publisher Publisher
	notifier  notifications.Service
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewRunner constructs a Runner. A nil notifier disables notifications.
func NewRunner(publisher Publisher, notifier notifications.Service, opts Options, logger *slog.Logger) *Runner {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Runner{
		publisher: publisher,
		notifier:  notifier,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Run processes every query in order and writes the feed. The returned
// Report is populated even when err is non-nil.
func (r *Runner) Run(ctx context.Context, req Request) (Report, error) {
	report := Report{
		RunID:   r.newID(),
		DryRun:  req.DryRun,
		Started: r.now(),
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)

	builder, err := feed.NewBuilder(feed.Channel{
		Title:       r.opts.FeedTitle,
		Description: r.opts.FeedDescription,
		URLRoot:     req.URLRoot,
	})
	if err != nil {
		return r.fail(ctx, &report, services.Wrap(services.ErrConfiguration, "pipeline", "feed channel", "invalid url root", err))
	}
	if !req.DryRun && r.publisher == nil {
		return r.fail(ctx, &report, services.Wrap(services.ErrConfiguration, "pipeline", "init", "no publisher configured", nil))
	}
	if !req.DryRun && strings.TrimSpace(req.PublishRoot) == "" {
		return r.fail(ctx, &report, services.Wrap(services.ErrConfiguration, "pipeline", "init", "publish root not configured", nil))
	}

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.String("crawl_root", req.CrawlRoot),
		logging.String("publish_root", req.PublishRoot),
		logging.Int("queries", len(req.Queries)),
		logging.Bool("dry_run", req.DryRun),
	)

	report.Results = make([]QueryResult, 0, len(req.Queries))
	for _, query := range req.Queries {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, &report, err)
		}
		result, err := r.processQuery(ctx, req, query)
		report.Results = append(report.Results, result)
		if err != nil {
			return r.fail(ctx, &report, err)
		}
	}

	if req.DryRun {
		report.Duration = r.now().Sub(report.Started)
		logger.Info("dry run complete",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Int("selected", countState(report.Results, StateSelected)),
			logging.Int("skipped", report.Skipped()),
		)
		return report, nil
	}

	feedNames := make([]string, 0, len(report.Results))
	for i := range report.Results {
		res := &report.Results[i]
		if res.State != StatePublished {
			continue
		}
		// A later query can fail after replacing a file an earlier one published.
		if _, err := os.Stat(res.Item.Path); err != nil {
			res.State = StatePublishFailed
			res.Err = services.Wrap(services.ErrCopy, "pipeline", "verify published", res.Item.Filename, err)
			logging.WarnWithContext(logging.WithContext(services.WithQuery(ctx, res.Query), r.logger),
				"published file missing before feed", "query_publish_failed",
				logging.Error(res.Err),
				logging.String(logging.FieldImpact, "item left out of the feed"),
			)
			continue
		}
		res.Item.URL = builder.Add(res.Item)
		res.State = StateFed
		feedNames = append(feedNames, res.Item.Filename)
	}

	report.FeedPath = filepath.Join(req.PublishRoot, feed.FileName)
	if root, err := feed.ParseURLRoot(req.URLRoot); err == nil {
		report.FeedURL = feed.ItemURL(root, feed.FileName)
	}
	if err := writeFeed(builder, report.FeedPath); err != nil {
		// Items were never delivered; report them as published only.
		for i := range report.Results {
			if report.Results[i].State == StateFed {
				report.Results[i].State = StatePublished
			}
		}
		return r.fail(ctx, &report, err)
	}
	logger.Info("feed written",
		logging.String(logging.FieldEventType, "feed_written"),
		logging.String("feed_path", report.FeedPath),
		logging.Int("items", builder.Len()),
	)

	if r.opts.PruneStale {
		removed, err := publish.Prune(req.PublishRoot, feedNames)
		report.Pruned = removed
		if err != nil {
			logging.WarnWithContext(logger, "stale media pruning incomplete", "prune_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "publish root may list files missing from the feed"),
				logging.String(logging.FieldErrorHint, "check permissions on the publish root"),
			)
		} else if len(removed) > 0 {
			logger.Info("stale media pruned",
				logging.String(logging.FieldEventType, "prune_complete"),
				logging.String("removed", strings.Join(removed, ", ")),
			)
		}
	}

	report.Duration = r.now().Sub(report.Started)
	logger.Info("run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("published", report.Published()),
		logging.Int("skipped", report.Skipped()),
		logging.Duration("duration", report.Duration),
	)
	if err := r.notifier.NotifyRunCompleted(ctx, notifications.RunSummary{
		Published:      report.Published(),
		Skipped:        report.Skipped(),
		SkippedQueries: report.SkippedQueries(),
		Duration:       report.Duration,
		FeedURL:        report.FeedURL,
	}); err != nil {
		logger.Debug("run summary notification failed", logging.Error(err))
	}
	return report, nil
}

// processQuery advances one query as far as it can go. A non-nil error is
// fatal to the run; per-query failures are carried in the result.
func (r *Runner) processQuery(ctx context.Context, req Request, query string) (QueryResult, error) {
	result := QueryResult{Query: query, State: StatePending}
	ctx = services.WithQuery(ctx, query)
	logger := logging.WithContext(ctx, r.logger)

	match := r.opts.Match
	if strings.TrimSpace(req.PublishRoot) != "" {
		// Earlier runs' output must never be picked up as a recording.
		match.Exclude = append(slices.Clip(match.Exclude), req.PublishRoot)
	}
	seq, err := crawl.Find(req.CrawlRoot, query, match)
	if err != nil {
		result.Err = err
		return result, err
	}
	counted := func(yield func(crawl.Candidate) bool) {
		for c := range seq {
			result.Matches++
			result.State = StateMatched
			if !yield(c) {
				return
			}
		}
	}
	selected, err := crawl.Select(counted)
	if err != nil {
		result.State = StateNoCandidate
		result.Err = err
		logging.WarnWithContext(logger, "no recording matched query", "query_no_match",
			logging.String(logging.FieldErrorHint, "check the query spelling and crawl_dir"),
		)
		return result, nil
	}
	result.State = StateSelected
	result.Source = selected
	logger.Info("recording selected",
		logging.String(logging.FieldEventType, "query_selected"),
		logging.String("source", selected.Path),
		logging.Int("matches", result.Matches),
		logging.Time("created", selected.Created),
		logging.String("time_source", string(selected.TimeSource)),
	)
	if req.DryRun {
		return result, nil
	}

	item, err := r.publisher.Publish(ctx, selected, req.PublishRoot)
	if err != nil {
		result.State = StatePublishFailed
		result.Err = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
		}
		logging.WarnWithContext(logger, "publish failed", "query_publish_failed",
			logging.Error(err),
			logging.String("source", selected.Path),
			logging.String("reason", services.SkipReason(err)),
			logging.String(logging.FieldErrorHint, "check ffmpeg output and publish_dir permissions"),
		)
		return result, nil
	}
	result.State = StatePublished
	result.Item = item
	return result, nil
}

func writeFeed(builder *feed.Builder, path string) error {
	data, err := builder.Serialize()
	if err != nil {
		return services.Wrap(services.ErrFeedWrite, "feed", "serialize", "", err)
	}
	if err := fileutil.WriteFileAtomic(path, bytes.NewReader(data), fileutil.PublishedMode); err != nil {
		return services.Wrap(services.ErrFeedWrite, "feed", "write", path, err)
	}
	return nil
}

func (r *Runner) fail(ctx context.Context, report *Report, err error) (Report, error) {
	report.Duration = r.now().Sub(report.Started)
	logger := logging.WithContext(ctx, r.logger)
	logger.Error("run failed",
		logging.String(logging.FieldEventType, "run_failed"),
		logging.Error(err),
	)
	if notifyErr := r.notifier.NotifyError(ctx, err, "publication run"); notifyErr != nil {
		logger.Debug("error notification failed", logging.Error(notifyErr))
	}
	return *report, err
}

func countState(results []QueryResult, state State) int {
	n := 0
	for _, res := range results {
		if res.State == state {
			n++
		}
	}
	return n
}

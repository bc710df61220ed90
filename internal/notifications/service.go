package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aircheq-podcast/internal/config"
)

const userAgent = "aircheq-podcast/0.1.0"

// RunSummary is the outcome of one publication run.
type RunSummary struct {
	Published int
	Skipped   int
	// SkippedQueries lists the queries that produced nothing, in run order.
	SkippedQueries []string
	Duration       time.Duration
	FeedURL        string
}

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		runSummary: cfg.Notifications.RunSummary,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	runSummary bool
	errors     bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	if !n.runSummary {
		return nil
	}
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var builder strings.Builder
	data := payload{tags: []string{"aircheq", "run", "completed"}}
	if summary.Skipped == 0 {
		data.title = "aircheq-podcast - Feed Updated"
		fmt.Fprintf(&builder, "📻 Published %d episodes in %s", summary.Published, duration)
	} else {
		data.title = "aircheq-podcast - Feed Updated (with skips)"
		fmt.Fprintf(&builder, "📻 Published %d, skipped %d in %s", summary.Published, summary.Skipped, duration)
		if len(summary.SkippedQueries) > 0 {
			builder.WriteString("\nSkipped: ")
			builder.WriteString(strings.Join(summary.SkippedQueries, ", "))
		}
	}
	if feedURL := strings.TrimSpace(summary.FeedURL); feedURL != "" {
		builder.WriteString("\nFeed: ")
		builder.WriteString(feedURL)
	}
	data.message = builder.String()
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "aircheq-podcast - Error",
		message:  builder.String(),
		tags:     []string{"aircheq", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "aircheq-podcast - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"aircheq", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error     { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }

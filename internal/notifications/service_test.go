package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aircheq-podcast/internal/config"
	"aircheq-podcast/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte("rate limited"))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func configFor(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(configFor(""))
	if err := svc.NotifyRunCompleted(context.Background(), notifications.RunSummary{Published: 1}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).NotifyError(context.Background(), errors.New("x"), ""); err != nil {
		t.Fatalf("expected noop notifier for nil config, got %v", err)
	}
}

func TestRunCompletedFormatsSummary(t *testing.T) {
	tests := []struct {
		name        string
		summary     notifications.RunSummary
		expectTitle string
		expectBody  []string
	}{
		{
			name:        "all published",
			summary:     notifications.RunSummary{Published: 3, Duration: 95 * time.Second},
			expectTitle: "aircheq-podcast - Feed Updated",
			expectBody:  []string{"Published 3 episodes in 1m35s"},
		},
		{
			name: "with skips",
			summary: notifications.RunSummary{
				Published:      2,
				Skipped:        1,
				SkippedQueries: []string{"ハライチ"},
				Duration:       2 * time.Second,
				FeedURL:        "http://127.0.0.1/feed.xml",
			},
			expectTitle: "aircheq-podcast - Feed Updated (with skips)",
			expectBody:  []string{"Published 2, skipped 1 in 2s", "Skipped: ハライチ", "Feed: http://127.0.0.1/feed.xml"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := newCaptureServer(t, http.StatusOK)
			svc := notifications.NewService(configFor(srv.URL))
			if err := svc.NotifyRunCompleted(context.Background(), tt.summary); err != nil {
				t.Fatalf("NotifyRunCompleted: %v", err)
			}
			if len(*got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(*got))
			}
			req := (*got)[0]
			if req.title != tt.expectTitle {
				t.Fatalf("title = %q, want %q", req.title, tt.expectTitle)
			}
			if req.tags != "aircheq,run,completed" {
				t.Fatalf("unexpected tags %q", req.tags)
			}
			for _, want := range tt.expectBody {
				if !strings.Contains(req.body, want) {
					t.Fatalf("body %q missing %q", req.body, want)
				}
			}
		})
	}
}

func TestNotifyErrorIsHighPriority(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK)
	svc := notifications.NewService(configFor(srv.URL))
	if err := svc.NotifyError(context.Background(), errors.New("feed write error: disk full"), "run"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	req := (*got)[0]
	if req.priority != "high" {
		t.Fatalf("expected high priority, got %q", req.priority)
	}
	if !strings.Contains(req.body, "during run: feed write error: disk full") {
		t.Fatalf("unexpected body %q", req.body)
	}
}

func TestDisabledEventsAreNotSent(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK)
	cfg := configFor(srv.URL)
	cfg.Notifications.RunSummary = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(cfg)
	_ = svc.NotifyRunCompleted(context.Background(), notifications.RunSummary{})
	_ = svc.NotifyError(context.Background(), errors.New("x"), "")
	if len(*got) != 0 {
		t.Fatalf("expected no requests, got %d", len(*got))
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if len(*got) != 1 || (*got)[0].priority != "low" {
		t.Fatalf("expected one low priority test notification, got %+v", *got)
	}
}

func TestServerErrorIsReported(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusTooManyRequests)
	svc := notifications.NewService(configFor(srv.URL))
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrScan marks an unreadable or missing crawl root. Fatal to the run.
	ErrScan = errors.New("scan error")
	// ErrNoMatch marks a query that matched zero candidates. The query is skipped.
	ErrNoMatch = errors.New("no match")
	// ErrConversion marks a failed container repackage. The query is skipped.
	ErrConversion = errors.New("conversion error")
	// ErrCopy marks a failed direct copy. The query is skipped.
	ErrCopy = errors.New("copy error")
	// ErrOwnership marks a failed ownership handoff. The query is skipped.
	ErrOwnership = errors.New("ownership error")
	// ErrFeedWrite marks a failed feed serialization or write. Fatal to the run.
	ErrFeedWrite = errors.New("feed write error")

	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the whole run rather than skip a
// single query.
func IsFatal(err error) bool {
	return errors.Is(err, ErrScan) || errors.Is(err, ErrFeedWrite) || errors.Is(err, ErrConfiguration)
}

// SkipReason maps a per-query failure to a short label for run summaries.
func SkipReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrConversion):
		return "conversion_failed"
	case errors.Is(err, ErrCopy):
		return "copy_failed"
	case errors.Is(err, ErrOwnership):
		return "ownership_failed"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "failed"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

package pipeline

import (
	"time"

	"aircheq-podcast/internal/crawl"
	"aircheq-podcast/internal/publish"
	"aircheq-podcast/internal/services"
)

// State is the position a query reached in the run.
type State string

const (
	StatePending       State = "pending"
	StateMatched       State = "matched"
	StateSelected      State = "selected"
	StatePublished     State = "published"
	StateFed           State = "fed"
	StateNoCandidate   State = "no_candidate"
	StatePublishFailed State = "publish_failed"
)

// Skipped reports whether the query ended without a feed entry.
func (s State) Skipped() bool {
	return s == StateNoCandidate || s == StatePublishFailed
}

// QueryResult is the outcome of one query.
type QueryResult struct {
	Query string
	State State
	// Matches counts the candidates the matcher yielded.
	Matches int
	Source  crawl.Candidate
	Item    publish.Item
	Err     error
}

// Reason returns a short label for why the query was skipped, or "".
func (r QueryResult) Reason() string {
	return services.SkipReason(r.Err)
}

// Report summarizes a run. Results keep query order.
type Report struct {
	RunID    string
	DryRun   bool
	Results  []QueryResult
	FeedPath string
	FeedURL  string
	// Pruned lists stale media removed from the publish root.
	Pruned   []string
	Started  time.Time
	Duration time.Duration
}

// Published counts queries that made it into the feed.
func (r Report) Published() int {
	n := 0
	for _, res := range r.Results {
		if res.State == StateFed {
			n++
		}
	}
	return n
}

// Skipped counts queries that ended without a feed entry.
func (r Report) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.State.Skipped() {
			n++
		}
	}
	return n
}

// SkippedQueries lists the skipped queries in run order.
func (r Report) SkippedQueries() []string {
	var out []string
	for _, res := range r.Results {
		if res.State.Skipped() {
			out = append(out, res.Query)
		}
	}
	return out
}

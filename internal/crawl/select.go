package crawl

import (
	"iter"

	"aircheq-podcast/internal/services"
)

// Select returns the candidate with the latest creation time. When several
// share the latest time the last one yielded wins. An empty sequence returns
// an error wrapping services.ErrNoMatch.
func Select(candidates iter.Seq[Candidate]) (Candidate, error) {
	var (
		best  Candidate
		found bool
	)
	for c := range candidates {
		if !found || !c.Created.Before(best.Created) {
			best = c
			found = true
		}
	}
	if !found {
		return Candidate{}, services.Wrap(services.ErrNoMatch, "select", "", "no candidates", nil)
	}
	return best, nil
}

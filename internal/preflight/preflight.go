package preflight

import (
	"fmt"

	"aircheq-podcast/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks a publication run needs. Binaries are
// checked only when publishing, since a dry run never shells out.
func RunAll(cfg *config.Config, dryRun bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Crawl directory", cfg.Paths.CrawlDir, AccessRead),
		CheckURLRoot(cfg.Paths.URLRoot),
	}
	if dryRun {
		return results
	}
	results = append(results,
		CheckDirectoryAccess("Publish directory", cfg.Paths.PublishDir, AccessReadWrite),
		CheckOwner(cfg.Publish.Owner),
	)
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Satisfied(), Detail: status.Path}
		if !status.Available {
			result.Detail = status.Detail
			if status.Optional {
				result.Detail += " (optional)"
			}
		}
		results = append(results, result)
	}
	return results
}

// FirstFailure returns an error describing the first failed check, or nil.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if !r.Passed {
			return fmt.Errorf("preflight %s: %s", r.Name, r.Detail)
		}
	}
	return nil
}

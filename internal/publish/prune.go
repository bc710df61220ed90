package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"aircheq-podcast/internal/crawl"
)

// ListMedia returns the names of the publishable files at the top level of
// root, sorted.
func ListMedia(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if crawl.IsAllowedExtension(crawl.Extension(entry.Name())) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Prune removes top-level media files in root whose names are not in keep.
// Other files and directories are left alone. It returns the removed names;
// removal stops at the first error.
func Prune(root string, keep []string) ([]string, error) {
	names, err := ListMedia(root)
	if err != nil {
		return nil, fmt.Errorf("list publish root: %w", err)
	}
	var removed []string
	for _, name := range names {
		if slices.Contains(keep, name) {
			continue
		}
		if err := os.Remove(filepath.Join(root, name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

package crawl

import (
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"aircheq-podcast/internal/fileutil"
	"aircheq-podcast/internal/services"
)

// AllowedExtensions lists the container formats the recorder produces that
// can be published. Matching is case-sensitive and excludes the dot.
var AllowedExtensions = []string{"m4a", "aac", "mp4", "flv", "m2ts"}

// Candidate is a recording that passed the extension and query filters.
type Candidate struct {
	Path       string
	Name       string
	Ext        string
	Created    time.Time
	TimeSource fileutil.TimeSource
}

// Options tunes matching.
type Options struct {
	// UnicodeNormalize compares NFC forms of query and file name.
	UnicodeNormalize bool
	// Exclude lists directories below the root that are never descended
	// into, such as a publish root nested inside the crawl root.
	Exclude []string
}

// IsAllowedExtension reports whether ext (without dot) is publishable.
func IsAllowedExtension(ext string) bool {
	return slices.Contains(AllowedExtensions, ext)
}

// Extension returns the extension of name without the leading dot, or "" when
// the name has none.
func Extension(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

// Find returns the candidates for query under root. The returned sequence is
// lazy: the walk happens while it is ranged over and the order follows the
// filesystem. The root is checked eagerly; a missing or unreadable root
// returns an error wrapping services.ErrScan.
func Find(root, query string, opts Options) (iter.Seq[Candidate], error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	// WalkDir does not descend through a symlinked root.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	excluded := excludedDirs(root, opts.Exclude)
	needle := query
	if opts.UnicodeNormalize {
		needle = norm.NFC.String(query)
	}

	return func(yield func(Candidate) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtree or vanished entry: skip it and keep going.
				if d != nil && d.IsDir() && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && excluded[path] {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			candidate, ok := match(path, d, needle, opts)
			if !ok {
				return nil
			}
			if !yield(candidate) {
				return fs.SkipAll
			}
			return nil
		})
	}, nil
}

func match(path string, d fs.DirEntry, needle string, opts Options) (Candidate, bool) {
	name := d.Name()
	ext := Extension(name)
	if ext == "" || !IsAllowedExtension(ext) {
		return Candidate{}, false
	}
	haystack := name
	if opts.UnicodeNormalize {
		haystack = norm.NFC.String(name)
	}
	if !strings.Contains(haystack, needle) {
		return Candidate{}, false
	}
	info, err := d.Info()
	if err != nil {
		return Candidate{}, false
	}
	created, source := fileutil.CreationTime(path, info)
	return Candidate{
		Path:       path,
		Name:       name,
		Ext:        ext,
		Created:    created,
		TimeSource: source,
	}, true
}

// excludedDirs resolves dirs the same way as the walk root so that symlinked
// or relative spellings still match the walked paths. The root itself is
// never excluded.
func excludedDirs(root string, dirs []string) map[string]bool {
	out := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		abs = filepath.Clean(abs)
		if abs == root {
			continue
		}
		out[abs] = true
	}
	return out
}

func checkRoot(root string) error {
	if strings.TrimSpace(root) == "" {
		return services.Wrap(services.ErrScan, "match", "resolve crawl root", "crawl root not configured", nil)
	}
	info, err := os.Stat(root)
	if err != nil {
		return services.Wrap(services.ErrScan, "match", "stat crawl root", root, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrScan, "match", "stat crawl root", root+" is not a directory", nil)
	}
	dir, err := os.Open(root)
	if err != nil {
		return services.Wrap(services.ErrScan, "match", "open crawl root", root, err)
	}
	defer dir.Close()
	if _, err := dir.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return services.Wrap(services.ErrScan, "match", "read crawl root", root, err)
	}
	return nil
}

package feed

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"slices"

	"github.com/mmcdole/gofeed"
)

// Read parses the feed document at file.
func Read(file string) (*gofeed.Feed, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return doc, nil
}

// Filenames returns the file each item links to, in feed order. The link's
// last path segment is used, falling back to the item title.
func Filenames(doc *gofeed.Feed) []string {
	if doc == nil {
		return nil
	}
	names := make([]string, 0, len(doc.Items))
	for _, item := range doc.Items {
		names = append(names, itemFilename(item))
	}
	return names
}

func itemFilename(item *gofeed.Item) string {
	if item == nil {
		return ""
	}
	if u, err := url.Parse(item.Link); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return item.Title
}

// Drift lists the disagreements between a feed and the media in its publish root.
type Drift struct {
	// Missing are feed items with no file on disk.
	Missing []string
	// Unlisted are media files on disk the feed does not mention.
	Unlisted []string
}

// Clean reports whether the feed and the directory agree.
func (d Drift) Clean() bool {
	return len(d.Missing) == 0 && len(d.Unlisted) == 0
}

// Compare checks the feed items against the media files present.
func Compare(doc *gofeed.Feed, media []string) Drift {
	listed := Filenames(doc)
	var drift Drift
	for _, name := range listed {
		if !slices.Contains(media, name) {
			drift.Missing = append(drift.Missing, name)
		}
	}
	for _, name := range media {
		if !slices.Contains(listed, name) {
			drift.Unlisted = append(drift.Unlisted, name)
		}
	}
	return drift
}

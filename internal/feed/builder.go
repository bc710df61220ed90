package feed

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"aircheq-podcast/internal/publish"
)

const (
	// DefaultTitle is the channel title.
	DefaultTitle = "aircheq-podcast"
	// DefaultDescription is the channel description.
	DefaultDescription = "aircheq podcast server"
	// FileName is the name of the feed document inside the publish root.
	FileName = "feed.xml"
)

// Channel holds the feed-level metadata.
type Channel struct {
	Title       string
	Description string
	URLRoot     string
}

// Builder accumulates published items into an RSS document.
type Builder struct {
	title       string
	description string
	root        *url.URL
	items       []publish.Item
}

// NewBuilder validates the URL root and returns an empty builder. Empty title
// and description fall back to the defaults.
func NewBuilder(ch Channel) (*Builder, error) {
	root, err := ParseURLRoot(ch.URLRoot)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(ch.Title)
	if title == "" {
		title = DefaultTitle
	}
	description := strings.TrimSpace(ch.Description)
	if description == "" {
		description = DefaultDescription
	}
	return &Builder{title: title, description: description, root: root}, nil
}

// ParseURLRoot parses an absolute http(s) URL used as the base for item links.
func ParseURLRoot(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("url root is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url root %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url root %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url root %q has no host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// ItemURL joins root and filename with exactly one separator. Reserved and
// non-ASCII characters in filename are percent-encoded.
func ItemURL(root *url.URL, filename string) string {
	// JoinPath unescapes its input, so a literal '%' must be escaped first.
	return root.JoinPath(url.PathEscape(filename)).String()
}

// Add appends item and returns the link it was given.
func (b *Builder) Add(item publish.Item) string {
	link := ItemURL(b.root, item.Filename)
	item.URL = link
	b.items = append(b.items, item)
	return link
}

// Len reports how many items have been added.
func (b *Builder) Len() int {
	return len(b.items)
}

// Serialize renders the RSS 2.0 document. It does not consume the builder.
func (b *Builder) Serialize() ([]byte, error) {
	doc := &feeds.Feed{
		Title:       b.title,
		Description: b.description,
		Link:        &feeds.Link{Href: b.root.String()},
		Items:       make([]*feeds.Item, 0, len(b.items)),
	}
	var latest time.Time
	for _, item := range b.items {
		if item.Created.After(latest) {
			latest = item.Created
		}
		doc.Items = append(doc.Items, &feeds.Item{
			Title:   item.Filename,
			Link:    &feeds.Link{Href: item.URL},
			Id:      item.URL,
			Created: item.Created,
			Enclosure: &feeds.Enclosure{
				Url:    item.URL,
				Length: strconv.FormatInt(item.Size, 10),
				Type:   item.MIMEType,
			},
		})
	}
	doc.Created = latest

	rss, err := doc.ToRss()
	if err != nil {
		return nil, fmt.Errorf("render rss: %w", err)
	}
	return []byte(rss), nil
}

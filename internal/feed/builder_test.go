package feed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"

	"aircheq-podcast/internal/publish"
)

func sampleItems() []publish.Item {
	return []publish.Item{
		{Filename: "show_a.m4a", Ext: "m4a", Size: 1200, MIMEType: "audio/mp4", Created: time.Date(2024, 4, 1, 1, 0, 0, 0, time.UTC)},
		{Filename: "news.mp4", Ext: "mp4", Size: 9000, MIMEType: "video/mp4", Created: time.Date(2024, 4, 3, 5, 0, 0, 0, time.UTC)},
		{Filename: "talk.aac", Ext: "aac", Size: 42, MIMEType: "audio/aac", Created: time.Date(2024, 4, 2, 7, 30, 0, 0, time.UTC)},
	}
}

func newTestBuilder(t *testing.T, root string) *Builder {
	t.Helper()
	b, err := NewBuilder(Channel{URLRoot: root})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func parse(t *testing.T, data []byte) *gofeed.Feed {
	t.Helper()
	doc, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse serialized feed: %v\n%s", err, data)
	}
	return doc
}

func TestSerializeChannelAndItems(t *testing.T) {
	b := newTestBuilder(t, "http://127.0.0.1/")
	for _, item := range sampleItems() {
		b.Add(item)
	}
	data, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	doc := parse(t, data)

	if doc.FeedType != "rss" {
		t.Fatalf("expected rss, got %q", doc.FeedType)
	}
	if doc.Title != "aircheq-podcast" || doc.Description != "aircheq podcast server" {
		t.Fatalf("unexpected channel metadata %q / %q", doc.Title, doc.Description)
	}
	if doc.Link != "http://127.0.0.1/" {
		t.Fatalf("unexpected channel link %q", doc.Link)
	}

	var titles, links []string
	for _, item := range doc.Items {
		titles = append(titles, item.Title)
		links = append(links, item.Link)
	}
	if diff := cmp.Diff([]string{"show_a.m4a", "news.mp4", "talk.aac"}, titles); diff != "" {
		t.Fatalf("item order mismatch (-want +got):\n%s", diff)
	}
	wantLinks := []string{"http://127.0.0.1/show_a.m4a", "http://127.0.0.1/news.mp4", "http://127.0.0.1/talk.aac"}
	if diff := cmp.Diff(wantLinks, links); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}

	first := doc.Items[0]
	if first.GUID != "http://127.0.0.1/show_a.m4a" {
		t.Fatalf("unexpected guid %q", first.GUID)
	}
	if len(first.Enclosures) != 1 {
		t.Fatalf("expected one enclosure, got %d", len(first.Enclosures))
	}
	enc := first.Enclosures[0]
	if enc.URL != wantLinks[0] || enc.Length != "1200" || enc.Type != "audio/mp4" {
		t.Fatalf("unexpected enclosure %+v", enc)
	}
	if first.PublishedParsed == nil || !first.PublishedParsed.Equal(sampleItems()[0].Created) {
		t.Fatalf("unexpected pubDate %v", first.PublishedParsed)
	}
	if doc.PublishedParsed == nil || !doc.PublishedParsed.Equal(sampleItems()[1].Created) {
		t.Fatalf("channel pubDate should be the newest item, got %v", doc.PublishedParsed)
	}
}

func TestSerializeIsIdempotent(t *testing.T) {
	b := newTestBuilder(t, "https://example.com/podcast")
	for _, item := range sampleItems() {
		b.Add(item)
	}
	first, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	second, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("Serialize returned different bytes on the second call")
	}
}

func TestSerializeEmptyFeed(t *testing.T) {
	data, err := newTestBuilder(t, "http://127.0.0.1/").Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	doc := parse(t, data)
	if len(doc.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(doc.Items))
	}
	if doc.Title != DefaultTitle {
		t.Fatalf("unexpected title %q", doc.Title)
	}
}

func TestCustomChannelMetadata(t *testing.T) {
	b, err := NewBuilder(Channel{Title: "Radio", Description: "Weekly shows", URLRoot: "http://radio.local/"})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	data, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	doc := parse(t, data)
	if doc.Title != "Radio" || doc.Description != "Weekly shows" {
		t.Fatalf("unexpected channel metadata %q / %q", doc.Title, doc.Description)
	}
}

func TestItemURL(t *testing.T) {
	tests := []struct {
		root, filename, want string
	}{
		{"http://127.0.0.1/", "a.m4a", "http://127.0.0.1/a.m4a"},
		{"http://127.0.0.1", "a.m4a", "http://127.0.0.1/a.m4a"},
		{"http://host/podcast/", "a.m4a", "http://host/podcast/a.m4a"},
		{"http://host/podcast", "a.m4a", "http://host/podcast/a.m4a"},
		{"http://host/", "my show #1?.mp4", "http://host/my%20show%20%231%3F.mp4"},
		{"http://host/", "100%.aac", "http://host/100%25.aac"},
		{"http://host/", "番組.m4a", "http://host/%E7%95%AA%E7%B5%84.m4a"},
	}
	for _, tt := range tests {
		root, err := ParseURLRoot(tt.root)
		if err != nil {
			t.Fatalf("ParseURLRoot(%q): %v", tt.root, err)
		}
		got := ItemURL(root, tt.filename)
		if got != tt.want {
			t.Fatalf("ItemURL(%q, %q) = %q, want %q", tt.root, tt.filename, got, tt.want)
		}
		if strings.Contains(strings.TrimPrefix(got, "http://"), "//") {
			t.Fatalf("double slash in %q", got)
		}
	}
}

func TestParseURLRootRejects(t *testing.T) {
	for _, raw := range []string{"", "ftp://host/", "/relative/path", "http://"} {
		if _, err := ParseURLRoot(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestAddReturnsLink(t *testing.T) {
	b := newTestBuilder(t, "http://127.0.0.1/")
	link := b.Add(publish.Item{Filename: "x.flv"})
	if link != "http://127.0.0.1/x.flv" {
		t.Fatalf("unexpected link %q", link)
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", b.Len())
	}
}

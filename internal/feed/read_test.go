package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadAndCompare(t *testing.T) {
	b := newTestBuilder(t, "http://127.0.0.1/")
	for _, item := range sampleItems() {
		b.Add(item)
	}
	data, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff([]string{"show_a.m4a", "news.mp4", "talk.aac"}, Filenames(doc)); diff != "" {
		t.Fatalf("filenames mismatch (-want +got):\n%s", diff)
	}

	drift := Compare(doc, []string{"news.mp4", "show_a.m4a", "talk.aac"})
	if !drift.Clean() {
		t.Fatalf("expected clean comparison, got %+v", drift)
	}

	drift = Compare(doc, []string{"news.mp4", "talk.aac", "stale.flv"})
	want := Drift{Missing: []string{"show_a.m4a"}, Unlisted: []string{"stale.flv"}}
	if diff := cmp.Diff(want, drift); diff != "" {
		t.Fatalf("drift mismatch (-want +got):\n%s", diff)
	}
}

func TestFilenamesDecodesLinks(t *testing.T) {
	b := newTestBuilder(t, "http://host/pod/")
	b.Add(sampleItems()[0])
	items := sampleItems()
	items[1].Filename = "my show #1.mp4"
	b.Add(items[1])
	data, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	doc := parse(t, data)
	if diff := cmp.Diff([]string{"show_a.m4a", "my show #1.mp4"}, Filenames(doc)); diff != "" {
		t.Fatalf("filenames mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), FileName)); err == nil {
		t.Fatal("expected error for missing feed")
	}
}

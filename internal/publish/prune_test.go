package publish

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPruneRemovesOnlyStaleMedia(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"keep.m4a", "old.mp4", "old.flv", "feed.xml", "index.html", ".convert-x.mp4.tmp"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(root, "archive.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	removed, err := Prune(root, []string{"keep.m4a"})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if diff := cmp.Diff([]string{"old.flv", "old.mp4"}, removed); diff != "" {
		t.Fatalf("removed mismatch (-want +got):\n%s", diff)
	}

	media, err := ListMedia(root)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"keep.m4a"}, media); diff != "" {
		t.Fatalf("remaining media mismatch (-want +got):\n%s", diff)
	}
	for _, name := range []string{"feed.xml", "index.html", ".convert-x.mp4.tmp", "archive.mp4"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Fatalf("%s should survive pruning: %v", name, err)
		}
	}
}

func TestListMediaMissingRoot(t *testing.T) {
	if _, err := ListMedia(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

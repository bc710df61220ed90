package publish

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aircheq-podcast/internal/crawl"
	"aircheq-podcast/internal/ownership"
	"aircheq-podcast/internal/services"
)

type fakeConverter struct {
	calls [][2]string
	err   error
	write []byte
}

func (f *fakeConverter) Convert(_ context.Context, src, dst string) error {
	f.calls = append(f.calls, [2]string{src, dst})
	if f.write != nil {
		if err := os.WriteFile(dst, f.write, 0o644); err != nil {
			return err
		}
	}
	return f.err
}

func candidate(t *testing.T, dir, name string, data []byte) crawl.Candidate {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return crawl.Candidate{
		Path:    path,
		Name:    name,
		Ext:     crawl.Extension(name),
		Created: time.Date(2024, 4, 1, 1, 0, 0, 0, time.UTC),
	}
}

func TestPublishCopiesByteForByte(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	payload := bytes.Repeat([]byte{0x00, 0xff, 0x10, 0x42}, 4096)
	sel := candidate(t, src, "show_20240401.m4a", payload)

	conv := &fakeConverter{}
	item, err := New(conv, nil, "", nil).Publish(context.Background(), sel, dst)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(conv.calls) != 0 {
		t.Fatalf("converter must not run for m4a, got %v", conv.calls)
	}
	got, err := os.ReadFile(filepath.Join(dst, "show_20240401.m4a"))
	if err != nil {
		t.Fatalf("read published file: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("published bytes differ from source")
	}
	if item.Filename != "show_20240401.m4a" || item.Ext != "m4a" || item.MIMEType != "audio/mp4" {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.Size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), item.Size)
	}
	if !item.Created.Equal(sel.Created) {
		t.Fatalf("expected created %v, got %v", sel.Created, item.Created)
	}
}

func TestPublishRepackagesTransportStream(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	sel := candidate(t, src, "news.m2ts", []byte("ts"))

	conv := &fakeConverter{write: []byte("mp4")}
	item, err := New(conv, nil, "", nil).Publish(context.Background(), sel, dst)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(conv.calls) != 1 {
		t.Fatalf("expected one conversion, got %d", len(conv.calls))
	}
	call := conv.calls[0]
	if !filepath.IsAbs(call[0]) || !filepath.IsAbs(call[1]) {
		t.Fatalf("converter paths must be absolute: %v", call)
	}
	if filepath.Base(call[1]) != "news.mp4" {
		t.Fatalf("unexpected destination %q", call[1])
	}
	if item.Filename != "news.mp4" || item.Ext != "mp4" || item.MIMEType != "video/mp4" {
		t.Fatalf("unexpected item %+v", item)
	}
	if _, err := os.Stat(filepath.Join(dst, "news.m2ts")); !os.IsNotExist(err) {
		t.Fatal("m2ts must not be copied into the publish root")
	}
}

func TestPublishConversionFailureLeavesNothing(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	sel := candidate(t, src, "news.m2ts", []byte("ts"))

	conv := &fakeConverter{err: errors.New("exit status 1")}
	_, err := New(conv, nil, "", nil).Publish(context.Background(), sel, dst)
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
	assertEmpty(t, dst)
}

func TestPublishConversionFailureKeepsExistingDestination(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	existing := filepath.Join(dst, "rec.mp4")
	if err := os.WriteFile(existing, []byte("published earlier"), 0o644); err != nil {
		t.Fatal(err)
	}
	sel := candidate(t, src, "rec.m2ts", []byte("ts"))

	conv := &fakeConverter{err: errors.New("exit status 1")}
	_, err := New(conv, nil, "", nil).Publish(context.Background(), sel, dst)
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
	got, err := os.ReadFile(existing)
	if err != nil || string(got) != "published earlier" {
		t.Fatalf("existing destination must survive a failed conversion, got %q (%v)", got, err)
	}
}

func TestPublishOwnershipFailureKeepsReplacedDestination(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(dst, "show.aac"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	sel := candidate(t, src, "show.aac", []byte("new"))

	owner := ownership.OwnerFunc(func(string, string) error { return errors.New("operation not permitted") })
	_, err := New(nil, owner, "nginx", nil).Publish(context.Background(), sel, dst)
	if !errors.Is(err, services.ErrOwnership) {
		t.Fatalf("expected ErrOwnership, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "show.aac")); err != nil {
		t.Fatalf("a destination that existed before the call must not be removed: %v", err)
	}
}

func TestPublishOwnershipFailureLeavesNothing(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	sel := candidate(t, src, "show.aac", []byte("aac"))

	var gotIdentity string
	owner := ownership.OwnerFunc(func(_, identity string) error {
		gotIdentity = identity
		return errors.New("operation not permitted")
	})
	_, err := New(nil, owner, "nginx", nil).Publish(context.Background(), sel, dst)
	if !errors.Is(err, services.ErrOwnership) {
		t.Fatalf("expected ErrOwnership, got %v", err)
	}
	if gotIdentity != "nginx" {
		t.Fatalf("expected identity nginx, got %q", gotIdentity)
	}
	assertEmpty(t, dst)
}

func TestPublishMissingSourceIsCopyError(t *testing.T) {
	dst := t.TempDir()
	sel := crawl.Candidate{Path: filepath.Join(t.TempDir(), "gone.mp4"), Name: "gone.mp4", Ext: "mp4"}
	_, err := New(nil, nil, "", nil).Publish(context.Background(), sel, dst)
	if !errors.Is(err, services.ErrCopy) {
		t.Fatalf("expected ErrCopy, got %v", err)
	}
	assertEmpty(t, dst)
}

func TestPublishOverwritesPreviousRun(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(dst, "show.flv"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	sel := candidate(t, src, "show.flv", []byte("new"))
	if _, err := New(nil, nil, "", nil).Publish(context.Background(), sel, dst); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(dst, "show.flv"))
	if string(got) != "new" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestDestinationName(t *testing.T) {
	tests := []struct {
		name, ext, wantName, wantExt string
	}{
		{"a.m2ts", "m2ts", "a.mp4", "mp4"},
		{"a.b.m2ts", "m2ts", "a.b.mp4", "mp4"},
		{"a.m4a", "m4a", "a.m4a", "m4a"},
		{"a.flv", "flv", "a.flv", "flv"},
	}
	for _, tt := range tests {
		gotName, gotExt := DestinationName(tt.name, tt.ext)
		if gotName != tt.wantName || gotExt != tt.wantExt {
			t.Fatalf("DestinationName(%q) = %q, %q; want %q, %q", tt.name, gotName, gotExt, tt.wantName, tt.wantExt)
		}
	}
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected empty publish root, found %v", names)
	}
}

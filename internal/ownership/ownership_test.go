package ownership

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"testing"
)

func TestSystemEmptyIdentityIsNoop(t *testing.T) {
	owner := NewSystem()
	if err := owner.SetOwner(filepath.Join(t.TempDir(), "missing"), "  "); err != nil {
		t.Fatalf("expected no-op for empty identity, got %v", err)
	}
}

func TestSystemChownToCurrentUser(t *testing.T) {
	current, err := user.Current()
	if err != nil {
		t.Skipf("current user unavailable: %v", err)
	}
	path := filepath.Join(t.TempDir(), "episode.m4a")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	owner := NewSystem()
	for _, identity := range []string{current.Username, current.Uid, current.Uid + ":" + current.Gid} {
		if err := owner.SetOwner(path, identity); err != nil {
			t.Fatalf("SetOwner(%q): %v", identity, err)
		}
	}
	if len(owner.cache) != 3 {
		t.Fatalf("expected 3 cached identities, got %d", len(owner.cache))
	}
}

func TestSystemUnknownUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episode.m4a")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewSystem().SetOwner(path, "aircheq-no-such-user")
	if err == nil || !strings.Contains(err.Error(), "lookup user") {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestSystemMissingFile(t *testing.T) {
	current, err := user.Current()
	if err != nil {
		t.Skipf("current user unavailable: %v", err)
	}
	err = NewSystem().SetOwner(filepath.Join(t.TempDir(), "missing"), current.Username)
	if err == nil || !strings.Contains(err.Error(), "chown") {
		t.Fatalf("expected chown error, got %v", err)
	}
}

func TestOwnerFunc(t *testing.T) {
	var gotPath, gotIdentity string
	owner := OwnerFunc(func(path, identity string) error {
		gotPath, gotIdentity = path, identity
		return nil
	})
	if err := owner.SetOwner("/srv/a.mp4", "nginx"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/srv/a.mp4" || gotIdentity != "nginx" {
		t.Fatalf("unexpected call (%q, %q)", gotPath, gotIdentity)
	}
	if err := Noop.SetOwner("/srv/a.mp4", "nginx"); err != nil {
		t.Fatal(err)
	}
}

// Package ownership hands published files over to the web server's service
// account.
package ownership

import (
	"fmt"
	"os/user"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Owner changes the ownership of a published file to the named identity.
type Owner interface {
	SetOwner(path, identity string) error
}

// OwnerFunc adapts a function to the Owner interface.
type OwnerFunc func(path, identity string) error

// SetOwner calls f(path, identity).
func (f OwnerFunc) SetOwner(path, identity string) error {
	return f(path, identity)
}

// Noop leaves ownership untouched.
var Noop Owner = OwnerFunc(func(string, string) error { return nil })

type ids struct {
	uid int
	gid int
}

// System resolves identities through the local account database and applies
// them with chown(2). The identity may be a user name, a numeric uid, or
// "user:group". Without a group the user's primary group is used. An empty
// identity is a no-op.
type System struct {
	mu    sync.Mutex
	cache map[string]ids
}

// NewSystem returns an Owner backed by the host account database.
func NewSystem() *System {
	return &System{cache: make(map[string]ids)}
}

// SetOwner chowns path to identity.
func (s *System) SetOwner(path, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil
	}
	resolved, err := s.resolve(identity)
	if err != nil {
		return err
	}
	if err := unix.Chown(path, resolved.uid, resolved.gid); err != nil {
		return fmt.Errorf("chown %s to %s: %w", path, identity, err)
	}
	return nil
}

func (s *System) resolve(identity string) (ids, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[identity]; ok {
		return cached, nil
	}

	userPart, groupPart, hasGroup := strings.Cut(identity, ":")
	u, err := lookupUser(userPart)
	if err != nil {
		return ids{}, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return ids{}, fmt.Errorf("user %q has non-numeric uid %q", userPart, u.Uid)
	}
	gidText := u.Gid
	if hasGroup && groupPart != "" {
		g, err := lookupGroup(groupPart)
		if err != nil {
			return ids{}, err
		}
		gidText = g.Gid
	}
	gid, err := strconv.Atoi(gidText)
	if err != nil {
		return ids{}, fmt.Errorf("identity %q has non-numeric gid %q", identity, gidText)
	}

	resolved := ids{uid: uid, gid: gid}
	s.cache[identity] = resolved
	return resolved, nil
}

func lookupUser(name string) (*user.User, error) {
	if _, err := strconv.Atoi(name); err == nil {
		u, err := user.LookupId(name)
		if err == nil {
			return u, nil
		}
	}
	u, err := user.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("lookup user %q: %w", name, err)
	}
	return u, nil
}

func lookupGroup(name string) (*user.Group, error) {
	if _, err := strconv.Atoi(name); err == nil {
		g, err := user.LookupGroupId(name)
		if err == nil {
			return g, nil
		}
	}
	g, err := user.LookupGroup(name)
	if err != nil {
		return nil, fmt.Errorf("lookup group %q: %w", name, err)
	}
	return g, nil
}

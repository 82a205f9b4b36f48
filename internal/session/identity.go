// Package session tracks which operators are privileged and which of them
// currently hold an edit session.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

var (
	// ErrInvalidIdentity is returned for identities with an empty platform or id.
	ErrInvalidIdentity = errors.New("invalid operator identity")
	// ErrAlreadyActive is returned when an operator already holds a live session.
	ErrAlreadyActive = errors.New("edit session already active")
)

// Identity names an operator on one platform.
type Identity struct {
	Platform string `json:"platform" yaml:"platform"`
	ID       string `json:"id" yaml:"id"`
}

// Valid reports whether both parts are non-empty.
func (i Identity) Valid() bool {
	return i.Platform != "" && i.ID != ""
}

// String renders the identity as the registry key "platform:id".
func (i Identity) String() string {
	return i.Platform + ":" + i.ID
}

// ParseIdentity parses "platform:id". The id may itself contain colons.
func ParseIdentity(s string) (Identity, error) {
	platform, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	ident := Identity{Platform: strings.TrimSpace(platform), ID: strings.TrimSpace(id)}
	if !ok || !ident.Valid() {
		return Identity{}, fmt.Errorf("%w: %q (expected platform:id)", ErrInvalidIdentity, s)
	}
	return ident, nil
}

// ParseIdentities parses a comma separated list of "platform:id" entries.
// Blank entries are skipped.
func ParseIdentities(list string) ([]Identity, error) {
	var out []Identity
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		ident, err := ParseIdentity(part)
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, nil
}

// AdminSet is the set of privileged operators. Replace swaps the whole set
// atomically so readers never observe a partial update.
type AdminSet struct {
	members atomic.Pointer[map[string]struct{}]
}

// NewAdminSet builds a set from ids. Invalid identities are ignored.
func NewAdminSet(ids ...Identity) *AdminSet {
	s := &AdminSet{}
	s.Replace(ids)
	return s
}

// Replace installs ids as the new membership.
func (s *AdminSet) Replace(ids []Identity) {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id.Valid() {
			m[id.String()] = struct{}{}
		}
	}
	s.members.Store(&m)
}

// Contains reports whether id is privileged.
func (s *AdminSet) Contains(id Identity) bool {
	if s == nil || !id.Valid() {
		return false
	}
	m := s.members.Load()
	if m == nil {
		return false
	}
	_, ok := (*m)[id.String()]
	return ok
}

// Len returns the number of members.
func (s *AdminSet) Len() int {
	if s == nil {
		return 0
	}
	m := s.members.Load()
	if m == nil {
		return 0
	}
	return len(*m)
}

// List returns the members as sorted "platform:id" keys.
func (s *AdminSet) List() []string {
	if s == nil {
		return nil
	}
	m := s.members.Load()
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(*m))
	for k := range *m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package session

import (
	"sync"
	"time"

	"github.com/TimurManjosov/interceptor/internal/ttlcache"
)

// Registry maps each operator to at most one live edit session.
//
// Expired entries are not evicted; they are overwritten by the next Start for
// the same operator.
type Registry[T any] struct {
	mu       sync.Mutex
	sessions map[string]*ttlcache.Cache[T]
	ttl      time.Duration
	opts     []ttlcache.Option
}

// NewRegistry creates an empty registry whose sessions last ttl.
func NewRegistry[T any](ttl time.Duration, opts ...ttlcache.Option) *Registry[T] {
	return &Registry[T]{
		sessions: make(map[string]*ttlcache.Cache[T]),
		ttl:      ttl,
		opts:     opts,
	}
}

// TTL returns the session lease length.
func (r *Registry[T]) TTL() time.Duration { return r.ttl }

// Start opens a session for id holding initial. The check for an existing live
// session and the installation of the new one happen under one lock, so of two
// concurrent Starts for the same operator exactly one succeeds.
func (r *Registry[T]) Start(id Identity, initial T, refresh ttlcache.RefreshFunc[T]) (*ttlcache.Cache[T], error) {
	if !id.Valid() {
		return nil, ErrInvalidIdentity
	}
	key := id.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[key]; ok && !existing.IsExpired() {
		return nil, ErrAlreadyActive
	}
	c := ttlcache.New(initial, r.ttl, refresh, r.opts...)
	r.sessions[key] = c
	return c, nil
}

// IsActive reports whether id holds a session whose lease has not elapsed.
func (r *Registry[T]) IsActive(id Identity) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Lookup returns the live session for id.
func (r *Registry[T]) Lookup(id Identity) (*ttlcache.Cache[T], bool) {
	if !id.Valid() {
		return nil, false
	}
	r.mu.Lock()
	c, ok := r.sessions[id.String()]
	r.mu.Unlock()
	if !ok || c.IsExpired() {
		return nil, false
	}
	return c, true
}

// ExpireWhere ends every live session whose cached value satisfies match and
// returns how many were ended.
func (r *Registry[T]) ExpireWhere(match func(T) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.sessions {
		if v, ok := c.Peek(); ok && match(v) {
			c.MarkExpired()
			n++
		}
	}
	return n
}

// ActiveCount returns the number of sessions whose lease has not elapsed.
func (r *Registry[T]) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.sessions {
		if !c.IsExpired() {
			n++
		}
	}
	return n
}

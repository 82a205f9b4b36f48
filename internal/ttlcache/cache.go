// Package ttlcache provides a single-slot cache whose value is lazily
// refreshed once its lease has elapsed. There is no background timer: every
// access re-validates freshness, so staleness is bounded by the time between
// accesses.
package ttlcache

import (
	"context"
	"sync"
	"time"
)

// Clock interface for testable time operations
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// RefreshFunc reloads the cached value. It returns ok=false when the
// underlying value no longer exists.
type RefreshFunc[T any] func(ctx context.Context) (value T, ok bool, err error)

// Option customises a Cache.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// Cache holds one value together with its lease.
//
// Reads through Get or With are serialised, so while a refresh is in flight no
// other access on the same cache can start. Lease operations (IsExpired, Update,
// MarkExpired) never wait on a refresh.
type Cache[T any] struct {
	access sync.Mutex // serialises Get/With, including refresh

	mu        sync.Mutex // guards the fields below
	value     T
	expiresAt time.Time

	ttl     time.Duration
	refresh RefreshFunc[T]
	clock   Clock
}

// New creates a cache holding initial with a lease of ttl starting now.
func New[T any](initial T, ttl time.Duration, refresh RefreshFunc[T], opts ...Option) *Cache[T] {
	o := options{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		value:     initial,
		expiresAt: o.clock.Now().Add(ttl),
		ttl:       ttl,
		refresh:   refresh,
		clock:     o.clock,
	}
}

// TTL returns the lease length.
func (c *Cache[T]) TTL() time.Duration { return c.ttl }

// ExpiresAt returns the end of the current lease.
func (c *Cache[T]) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}

// IsExpired reports whether the lease has elapsed (now >= expiresAt).
func (c *Cache[T]) IsExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiredLocked()
}

func (c *Cache[T]) expiredLocked() bool {
	return !c.clock.Now().Before(c.expiresAt)
}

// Update starts a fresh lease without touching the value or refreshing.
func (c *Cache[T]) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiresAt = c.clock.Now().Add(c.ttl)
}

// MarkExpired ends the lease immediately.
func (c *Cache[T]) MarkExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiresAt = time.Time{}
}

// Peek returns the cached value while the lease holds. It never refreshes and
// does not wait for an access in progress.
func (c *Cache[T]) Peek() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expiredLocked() {
		var zero T
		return zero, false
	}
	return c.value, true
}

// Get returns the cached value while the lease holds. Once it has elapsed the
// refresh function is called: a returned value replaces the cache and starts a
// fresh lease, ok=false means the value is gone. Refresh errors are returned
// unchanged and leave the cache expired.
func (c *Cache[T]) Get(ctx context.Context) (T, bool, error) {
	c.access.Lock()
	defer c.access.Unlock()
	return c.getLocked(ctx)
}

// With resolves the value like Get and runs fn while still holding the access
// lock, so fn's mutation of the value cannot interleave with another access.
// fn may call Update or MarkExpired.
func (c *Cache[T]) With(ctx context.Context, fn func(value T, ok bool) error) error {
	c.access.Lock()
	defer c.access.Unlock()

	v, ok, err := c.getLocked(ctx)
	if err != nil {
		return err
	}
	return fn(v, ok)
}

func (c *Cache[T]) getLocked(ctx context.Context) (T, bool, error) {
	c.mu.Lock()
	if !c.expiredLocked() {
		v := c.value
		c.mu.Unlock()
		return v, true, nil
	}
	c.mu.Unlock()

	var zero T
	if c.refresh == nil {
		return zero, false, nil
	}
	v, ok, err := c.refresh(ctx)
	if err != nil || !ok {
		return zero, false, err
	}

	c.mu.Lock()
	c.value = v
	c.expiresAt = c.clock.Now().Add(c.ttl)
	c.mu.Unlock()
	return v, true, nil
}

package ttlcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// countingRefresh returns successive values and counts calls.
type countingRefresh struct {
	calls  int
	values []string
	gone   bool
	err    error
}

func (r *countingRefresh) fn(ctx context.Context) (string, bool, error) {
	r.calls++
	if r.err != nil {
		return "", false, r.err
	}
	if r.gone {
		return "", false, nil
	}
	v := r.values[0]
	if len(r.values) > 1 {
		r.values = r.values[1:]
	}
	return v, true, nil
}

func TestCache_GetWithinLeaseDoesNotRefresh(t *testing.T) {
	clock := newFakeClock()
	ref := &countingRefresh{values: []string{"fresh"}}
	c := New("initial", 10*time.Second, ref.fn, WithClock(clock))

	clock.Advance(9 * time.Second)
	v, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "initial", v)
	assert.Equal(t, 0, ref.calls)
}

func TestCache_ExpiryBoundaryIsInclusive(t *testing.T) {
	clock := newFakeClock()
	c := New("v", 10*time.Second, nil, WithClock(clock))

	clock.Advance(10*time.Second - time.Nanosecond)
	assert.False(t, c.IsExpired())

	clock.Advance(time.Nanosecond)
	assert.True(t, c.IsExpired(), "now == expiresAt must count as expired")
}

func TestCache_GetAfterExpiryRefreshesOnceAndRenewsLease(t *testing.T) {
	clock := newFakeClock()
	ref := &countingRefresh{values: []string{"reloaded"}}
	c := New("initial", 10*time.Second, ref.fn, WithClock(clock))

	clock.Advance(11 * time.Second)
	v, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "reloaded", v)
	assert.Equal(t, 1, ref.calls)
	assert.Equal(t, clock.Now().Add(10*time.Second), c.ExpiresAt())

	// The fresh lease serves later reads from the cache.
	_, _, _ = c.Get(context.Background())
	assert.Equal(t, 1, ref.calls)
}

func TestCache_MarkExpiredTriggersExactlyOneRefresh(t *testing.T) {
	clock := newFakeClock()
	ref := &countingRefresh{values: []string{"after-exit"}}
	c := New("initial", time.Minute, ref.fn, WithClock(clock))

	c.MarkExpired()
	assert.True(t, c.IsExpired())

	v, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "after-exit", v)
	assert.Equal(t, 1, ref.calls)
	assert.False(t, c.IsExpired())
}

func TestCache_RefreshAbsentYieldsAbsent(t *testing.T) {
	clock := newFakeClock()
	ref := &countingRefresh{gone: true}
	c := New("initial", time.Minute, ref.fn, WithClock(clock))

	c.MarkExpired()
	v, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, 1, ref.calls)
	assert.True(t, c.IsExpired(), "absent value must leave the cache unusable")
}

func TestCache_RefreshErrorPropagates(t *testing.T) {
	boom := errors.New("store down")
	ref := &countingRefresh{err: boom}
	c := New("initial", time.Minute, ref.fn, WithClock(newFakeClock()))

	c.MarkExpired()
	_, ok, err := c.Get(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.True(t, c.IsExpired())
}

func TestCache_UpdateExtendsLeaseWithoutRefresh(t *testing.T) {
	clock := newFakeClock()
	ref := &countingRefresh{values: []string{"unused"}}
	c := New("initial", 10*time.Second, ref.fn, WithClock(clock))

	clock.Advance(8 * time.Second)
	c.Update()
	clock.Advance(8 * time.Second)

	assert.False(t, c.IsExpired())
	v, _, _ := c.Get(context.Background())
	assert.Equal(t, "initial", v)
	assert.Equal(t, 0, ref.calls)
}

func TestCache_WithSerialisesAccess(t *testing.T) {
	clock := newFakeClock()
	c := New(0, time.Minute, nil, WithClock(clock))

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.With(context.Background(), func(int, bool) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestCache_WithPassesFnError(t *testing.T) {
	c := New("v", time.Minute, nil)
	want := errors.New("fn failed")
	err := c.With(context.Background(), func(v string, ok bool) error {
		assert.True(t, ok)
		assert.Equal(t, "v", v)
		return want
	})
	assert.ErrorIs(t, err, want)
}

func TestCache_PeekNeverRefreshes(t *testing.T) {
	clock := newFakeClock()
	ref := &countingRefresh{values: []string{"fresh"}}
	c := New("initial", 10*time.Second, ref.fn, WithClock(clock))

	v, ok := c.Peek()
	assert.True(t, ok)
	assert.Equal(t, "initial", v)

	clock.Advance(10 * time.Second)
	v, ok = c.Peek()
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, 0, ref.calls)
}

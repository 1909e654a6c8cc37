// ABOUTME: Query cache with stale-while-revalidate reads and one shared fetch per key.
// ABOUTME: Invalidation bumps a per-key generation so in-flight fetches cannot repopulate it.
package querycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/harperreed/pump/internal/logger"
)

// DefaultRevalidateInterval suppresses background refreshes of keys fetched more recently.
const DefaultRevalidateInterval = 2 * time.Second

// Fetcher loads the value for one key from the record store.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	value     any
	fetchedAt time.Time
}

// Cache maps keys to the most recent successful result. Values are shared
// between readers and must be treated as read-only.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	// gens survives invalidation; a fetch stores its result only if the
	// generation it started under is still current.
	gens     map[Key]uint64
	inflight map[Key]int
	flights  singleflight.Group
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger
	bg       sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithRevalidateInterval sets how long a fresh result suppresses background refreshes.
func WithRevalidateInterval(d time.Duration) Option {
	return func(c *Cache) { c.interval = d }
}

// WithLogger sets the logger used for invalidation and refresh events.
func WithLogger(l *logger.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[Key]*entry),
		gens:     make(map[Key]uint64),
		inflight: make(map[Key]int),
		interval: DefaultRevalidateInterval,
		now:      time.Now,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the cached value for key, calling fetch only on a miss.
// Concurrent misses for the same key share one fetch. The shared fetch
// is not cancelled when a waiting caller's ctx is; that caller just
// stops waiting.
func (c *Cache) Read(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	gen := c.gens[key]
	c.mu.Unlock()

	ch := c.start(ctx, key, gen, fetch)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	}
}

// Revalidate refreshes key in the background while readers keep getting
// the current value. It returns false when the key was fetched within the
// revalidate interval or a fetch for it is already in flight.
func (c *Cache) Revalidate(ctx context.Context, key Key, fetch Fetcher) bool {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.fetchedAt) < c.interval {
		c.mu.Unlock()
		return false
	}
	if c.inflight[key] > 0 {
		c.mu.Unlock()
		return false
	}
	gen := c.gens[key]
	c.mu.Unlock()

	ch := c.start(ctx, key, gen, fetch)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		if res := <-ch; res.Err != nil {
			c.log.Warn("background revalidation failed", "key", key.String(), "error", res.Err)
		}
	}()
	return true
}

// Wait blocks until background revalidations have finished.
func (c *Cache) Wait() {
	c.bg.Wait()
}

// start joins or launches the fetch for key at generation gen. The flight
// key includes the generation so readers after an invalidation never join
// a fetch that began before it.
func (c *Cache) start(ctx context.Context, key Key, gen uint64, fetch Fetcher) <-chan singleflight.Result {
	fetchCtx := context.WithoutCancel(ctx)
	return c.flights.DoChan(flightKey(key, gen), func() (any, error) {
		c.mu.Lock()
		c.inflight[key]++
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			if c.inflight[key]--; c.inflight[key] <= 0 {
				delete(c.inflight, key)
			}
			c.mu.Unlock()
		}()

		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[key] == gen {
			c.entries[key] = &entry{value: v, fetchedAt: c.now()}
		} else {
			c.log.Debug("discarding result fetched before invalidation", "key", key.String())
		}
		c.mu.Unlock()
		return v, nil
	})
}

func flightKey(key Key, gen uint64) string {
	return fmt.Sprintf("%s#%d", key, gen)
}

// Invalidate drops key so the next read fetches it again. Any fetch for
// key already in flight will not repopulate the cache.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	c.invalidateLocked(key)
	c.mu.Unlock()
	c.log.Debug("cache invalidated", "key", key.String())
}

// InvalidateWhere drops every cached or in-flight key matching pred and
// returns how many keys it touched.
func (c *Cache) InvalidateWhere(pred Predicate) int {
	c.mu.Lock()
	seen := make(map[Key]struct{}, len(c.entries)+len(c.inflight))
	for k := range c.entries {
		seen[k] = struct{}{}
	}
	for k := range c.inflight {
		seen[k] = struct{}{}
	}
	n := 0
	for k := range seen {
		if pred(k) {
			c.invalidateLocked(k)
			n++
		}
	}
	c.mu.Unlock()
	c.log.Debug("cache invalidated by predicate", "keys", n)
	return n
}

func (c *Cache) invalidateLocked(key Key) {
	delete(c.entries, key)
	c.gens[key]++
}

// Peek returns the cached value without fetching.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Keys returns the currently cached keys.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}

// Get is a typed wrapper around Read.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Read(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache %s: unexpected value type %T", key, v)
	}
	return t, nil
}

// PeekAs is a typed wrapper around Peek.
func PeekAs[T any](c *Cache, key Key) (T, bool) {
	var zero T
	v, ok := c.Peek(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

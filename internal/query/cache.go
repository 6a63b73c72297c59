// internal/query/cache.go
package query

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	xerrors "trackpro-client/internal/pkg/errors"
)

const defaultRetryDelay = 250 * time.Millisecond

// Options control a single Fetch. A zero StaleTime always refetches.
type Options struct {
	StaleTime  time.Duration
	Retry      int
	RetryDelay time.Duration
}

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// Cache stores the last successful result per key. Concurrent fetches of the
// same key are not de-duplicated; the last one to finish wins.
type Cache struct {
	mu        sync.Mutex
	entries   map[Key]*entry
	listeners map[int]func(Key)
	nextID    int
	now       func() time.Time
	logger    *zap.Logger
}

func NewCache(logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		entries:   make(map[Key]*entry),
		listeners: make(map[int]func(Key)),
		now:       time.Now,
		logger:    logger,
	}
}

// Fetch returns the cached value for key while it is fresh, otherwise runs fn.
// Failures are retried up to opts.Retry times when they look transient; the
// previous value stays cached when all attempts fail.
func Fetch[T any](ctx context.Context, c *Cache, key Key, opts Options, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.fresh(key, opts.StaleTime); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var (
		zero T
		err  error
	)
	for attempt := 0; ; attempt++ {
		var v T
		v, err = fn(ctx)
		if err == nil {
			c.store(key, v)
			return v, nil
		}
		if attempt >= opts.Retry || !retryable(err) {
			break
		}

		c.logger.Debug("retrying query",
			zap.Stringer("key", key),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay * time.Duration(attempt+1)):
		}
	}
	return zero, err
}

// Peek returns the cached value without fetching. loaded is false when the
// key was never fetched successfully, which differs from a cached nil.
func Peek[T any](c *Cache, key Key) (value T, loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return value, false
	}
	typed, ok := e.value.(T)
	if !ok && e.value != nil {
		return value, false
	}
	return typed, true
}

// Invalidate marks every entry matched by one of the prefixes as stale and
// notifies listeners once per prefix. Stale values remain readable via Peek.
func (c *Cache) Invalidate(prefixes ...Key) int {
	c.mu.Lock()
	n := 0
	for k, e := range c.entries {
		for _, p := range prefixes {
			if k.Matches(p) {
				e.stale = true
				n++
				break
			}
		}
	}
	listeners := make([]func(Key), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, p := range prefixes {
		c.logger.Debug("query invalidated", zap.Stringer("prefix", p))
		for _, fn := range listeners {
			fn(p)
		}
	}
	return n
}

// OnInvalidate registers fn for invalidation events and returns its cancel func.
func (c *Cache) OnInvalidate(fn func(Key)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Reset drops every entry, e.g. when the signed-in user changes.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
}

// IsStale reports whether key is missing, invalidated or older than staleTime.
func (c *Cache) IsStale(key Key, staleTime time.Duration) bool {
	_, ok := c.fresh(key, staleTime)
	return !ok
}

func (c *Cache) fresh(key Key, staleTime time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.stale || staleTime <= 0 {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= staleTime {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: v, fetchedAt: c.now()}
}

func retryable(err error) bool {
	apiErr, ok := xerrors.AsAPIError(err)
	return ok && apiErr.Retryable()
}

package dataset

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TableLoader produces a normalized table for a source.
type TableLoader interface {
	Load(ctx context.Context, source string) (*Table, error)
}

// Persister is an optional second cache tier that survives the process.
// LoadTable returns an error wrapping ErrNoSnapshot when it holds nothing
// for source.
type Persister interface {
	LoadTable(source string) (*Table, error)
	SaveTable(t *Table) error
}

// Cache memoizes normalized tables by source identifier. Concurrent Gets
// for the same uncached source share a single load. Cached tables are only
// dropped by Invalidate or Clear.
type Cache struct {
	loader  TableLoader
	persist Persister
	logger  *zap.Logger

	mu     sync.RWMutex
	tables map[string]*Table
	gens   map[string]uint64
	clears uint64
	group  singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

type CacheOption func(*Cache)

// WithPersister adds a persistent tier consulted before the loader.
func WithPersister(p Persister) CacheOption {
	return func(c *Cache) { c.persist = p }
}

func WithLogger(l *zap.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

func NewCache(loader TableLoader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader: loader,
		logger: zap.NewNop(),
		tables: make(map[string]*Table),
		gens:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the table for source, loading it at most once per key.
func (c *Cache) Get(ctx context.Context, source string) (*Table, error) {
	c.mu.RLock()
	t, ok := c.tables[source]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return t, nil
	}

	v, err, _ := c.group.Do(source, func() (interface{}, error) {
		c.mu.RLock()
		t, ok := c.tables[source]
		gen, clears := c.gens[source], c.clears
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		// Shared by every waiter: only the loader's own timeout bounds it.
		c.misses.Add(1)
		t, err := c.build(context.WithoutCancel(ctx), source)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[source] == gen && c.clears == clears {
			c.tables[source] = t
		}
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

func (c *Cache) build(ctx context.Context, source string) (*Table, error) {
	if c.persist != nil {
		t, err := c.persist.LoadTable(source)
		switch {
		case err == nil && !stale(t):
			c.logger.Debug("using snapshot", zap.String("source", source), zap.String("digest", t.Digest()))
			return t, nil
		case err == nil:
			c.logger.Info("snapshot is stale, reloading", zap.String("source", source))
		case !errors.Is(err, ErrNoSnapshot):
			c.logger.Warn("reading snapshot", zap.String("source", source), zap.Error(err))
		}
	}

	t, err := c.loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}

	if c.persist != nil {
		if err := c.persist.SaveTable(t); err != nil {
			c.logger.Warn("saving snapshot", zap.String("source", source), zap.Error(err))
		}
	}
	return t, nil
}

// stale reports whether a local source file changed after t was built.
// A local source that can no longer be read is always stale.
func stale(t *Table) bool {
	if IsURL(t.Source()) {
		return false
	}
	fi, err := os.Stat(t.Source())
	if err != nil {
		return true
	}
	return fi.ModTime().After(t.LoadedAt())
}

// Invalidate drops the cached table for source. A load already in flight
// for source still answers its callers but is not kept.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	delete(c.tables, source)
	c.gens[source]++
	c.mu.Unlock()
	c.group.Forget(source)
}

// Clear drops every cached table.
func (c *Cache) Clear() {
	c.mu.Lock()
	for source := range c.tables {
		c.group.Forget(source)
	}
	c.tables = make(map[string]*Table)
	c.clears++
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// Hits and Misses count Get calls answered from memory and loads started.
func (c *Cache) Hits() uint64   { return c.hits.Load() }
func (c *Cache) Misses() uint64 { return c.misses.Load() }

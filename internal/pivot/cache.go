package pivot

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"go-pivot-table/internal/model"
)

// DefaultCacheSize is the capacity used when none is configured.
const DefaultCacheSize = 10

// Cache memoizes results by key with a fixed capacity. Reads do not refresh
// an entry, so the oldest insertion is evicted first. Safe for concurrent
// use.
type Cache struct {
	entries *lru.Cache[string, *model.Result]
}

func NewCache(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	entries, err := lru.New[string, *model.Result](capacity)
	if err != nil {
		return nil, fmt.Errorf("create pivot cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) Get(key string) (*model.Result, bool) {
	return c.entries.Peek(key)
}

// Add stores a result. It reports whether an older entry was evicted.
func (c *Cache) Add(key string, res *model.Result) bool {
	return c.entries.Add(key, res)
}

func (c *Cache) Len() int { return c.entries.Len() }

func (c *Cache) Purge() { c.entries.Purge() }

// Engine runs Transform behind a Cache.
type Engine struct {
	cache  *Cache
	hits   atomic.Int64
	misses atomic.Int64
}

func NewEngine(cache *Cache) *Engine {
	return &Engine{cache: cache}
}

// Transform returns the memoized result for (datasetKey, cfg) or computes
// and stores it. Callers must identify their dataset: equal configs over
// different data never share an entry. Cached results are shared and must
// be treated as read-only. The bool reports a cache hit.
func (e *Engine) Transform(datasetKey string, rows []model.Record, cfg model.PivotConfig) (*model.Result, bool, error) {
	if e.cache == nil {
		res, err := Transform(rows, cfg)
		return res, false, err
	}

	key := datasetKey + ":" + ConfigHash(cfg)
	if res, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		return res, true, nil
	}
	e.misses.Add(1)

	res, err := Transform(rows, cfg)
	if err != nil {
		return nil, false, err
	}
	e.cache.Add(key, res)
	return res, false, nil
}

// Caching reports whether the engine memoizes results.
func (e *Engine) Caching() bool { return e.cache != nil }

// Stats returns the hit and miss counts since the engine was created.
func (e *Engine) Stats() (hits, misses int64) {
	return e.hits.Load(), e.misses.Load()
}

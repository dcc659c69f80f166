// Package codeinfo caches per-function analysis results without keeping the
// analyzed code object alive, mirroring the original FuncCodeInfoCache's use
// of weakref.WeakKeyDictionary. Go 1.24's weak package gives the same
// guarantee: the cache never prevents garbage collection of the CodeObject
// it describes.
package codeinfo

import (
	"container/list"
	"runtime"
	"sync"
	"time"
	"weak"
)

// CodeObject is the identity a cache entry is keyed on: one per compiled
// function/code unit in the traced program. Callers own the lifetime of the
// CodeObject; this package only ever holds a weak reference to it.
type CodeObject struct {
	Name string
	File string
	Line int
}

// Info is the analysis result cached per CodeObject: the line ranges and
// breakpoint-relevant metadata the dispatcher's gate algorithm needs,
// computed once and reused across frame-eval calls for the same function.
type Info struct {
	FuncStartLine int
	FuncEndLine   int
	Breakpoints   []int
	AlwaysSkip    bool
	// Generation pins this entry to the breakpoint cache generation it was
	// computed against (breakpoint.Cache.Version), so a consumer can detect
	// that the file's breakpoint set changed since this Info was cached
	// without this package needing to know anything about files at all.
	Generation uint64
}

type node struct {
	key     weak.Pointer[CodeObject]
	info    Info
	expires time.Time
	elem    *list.Element
}

// Cache is a bounded, weak-keyed, TTL-expiring cache from CodeObject to Info,
// generalizing FuncCodeInfoCache's OrderedDict-plus-WeakKeyDictionary pair
// onto Go's weak pointers and container/list.
//
// Entries are evicted for three independent reasons: explicit LRU eviction
// once the cache is at capacity, TTL expiry on Get, and asynchronous
// collection once the CodeObject itself is garbage collected — the cache
// never holds the sole reference keeping a CodeObject alive.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front = most recently used
	entries  map[weak.Pointer[CodeObject]]*node

	hits      uint64
	misses    uint64
	evictions uint64
}

// Stats is a point-in-time snapshot of cache effectiveness, mirroring the
// original's FuncCodeCacheStats.
type Stats struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	TotalEntries   int
	MemoryEstimate int
	HitRate        float64
}

// approxEntryBytes is the per-entry memory estimate, mirroring the
// original's flat 200-bytes-per-entry approximation.
const approxEntryBytes = 200

// NewCache returns a cache bounded to capacity entries, with a default entry
// time-to-live of ttl (use 0 to disable expiry).
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		entries:  make(map[weak.Pointer[CodeObject]]*node),
	}
}

// Get returns the cached Info for obj, if present and not expired.
func (c *Cache) Get(obj *CodeObject) (Info, bool) {
	key := weak.Make(obj)

	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		return Info{}, false
	}
	if c.ttl > 0 && time.Now().After(n.expires) {
		c.removeLocked(key, n)
		c.evictions++
		c.misses++
		return Info{}, false
	}
	c.order.MoveToFront(n.elem)
	c.hits++
	return n.info, true
}

// Set stores info for obj, evicting the least-recently-used entry if the
// cache is at capacity. A cleanup is registered on obj so that once it is
// garbage collected, the corresponding entry is removed promptly instead of
// lingering until its TTL or an LRU eviction reclaims it.
func (c *Cache) Set(obj *CodeObject, info Info) {
	key := weak.Make(obj)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		existing.info = info
		existing.expires = c.expiry()
		c.order.MoveToFront(existing.elem)
		return
	}

	n := &node{key: key, info: info, expires: c.expiry()}
	n.elem = c.order.PushFront(n)
	c.entries[key] = n

	runtime.AddCleanup(obj, c.onCollected, key)

	for len(c.entries) > c.capacity {
		back := c.order.Back()
		if back == nil {
			break
		}
		victim := back.Value.(*node)
		c.removeLocked(victim.key, victim)
		c.evictions++
	}
}

func (c *Cache) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.ttl)
}

// onCollected runs (on a separate goroutine, per runtime.AddCleanup) after
// the CodeObject keyed by key has been garbage collected.
func (c *Cache) onCollected(key weak.Pointer[CodeObject]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.entries[key]; ok {
		c.removeLocked(key, n)
		c.evictions++
	}
}

func (c *Cache) removeLocked(key weak.Pointer[CodeObject], n *node) {
	c.order.Remove(n.elem)
	delete(c.entries, key)
}

// Remove drops any cached entry for obj.
func (c *Cache) Remove(obj *CodeObject) {
	key := weak.Make(obj)
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.entries[key]; ok {
		c.removeLocked(key, n)
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[weak.Pointer[CodeObject]]*node)
}

// Len returns the number of entries currently cached, including any whose
// CodeObject has been collected but whose cleanup has not yet run.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CleanupExpired walks every entry and removes those past their TTL,
// returning the number removed. Expiry is otherwise only checked lazily on
// Get, so a host that wants to reclaim memory from functions that are no
// longer being hit — without waiting for them to be looked up again, or for
// GC to collect their CodeObject — calls this periodically or under memory
// pressure. It is never called from Dispatch.
func (c *Cache) CleanupExpired() int {
	if c.ttl <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for e := c.order.Back(); e != nil; {
		n := e.Value.(*node)
		prev := e.Prev()
		if now.After(n.expires) {
			c.removeLocked(n.key, n)
			c.evictions++
			removed++
		}
		e = prev
	}
	return removed
}

// Stats returns a point-in-time snapshot of cache effectiveness.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Hits:           c.hits,
		Misses:         c.misses,
		Evictions:      c.evictions,
		TotalEntries:   len(c.entries),
		MemoryEstimate: len(c.entries) * approxEntryBytes,
		HitRate:        hitRate,
	}
}

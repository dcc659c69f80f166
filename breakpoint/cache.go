package breakpoint

import (
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry is what the cache stores per file: the breakpoint lines as of the
// last refresh, and the file mtime that refresh observed.
type entry struct {
	lines []int
	mtime time.Time
}

// Cache is a bounded, mtime-invalidated cache mapping a file path to its
// breakpoint line numbers, generalizing the original BreakpointCache (which
// used a hand-rolled OrderedDict) onto hashicorp/golang-lru/v2's ordering.
//
// Files that cannot be stat'd (in-memory buffers, REPL cells, already-deleted
// files mid-edit) skip the mtime check entirely and are trusted until
// explicitly invalidated — this mirrors the original's test-file special case.
type Cache struct {
	mu   sync.Mutex
	lru  *lru.Cache[string, entry]
	stat func(string) (os.FileInfo, error)
	gen  map[string]uint64

	hits      uint64
	misses    uint64
	evictions uint64
}

// Stats is a point-in-time snapshot of cache effectiveness, mirroring the
// original's per-cache statistics shape.
type Stats struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	TotalEntries   int
	MemoryEstimate int
	HitRate        float64
}

// approxEntryBytes is the per-entry memory estimate: a file path string plus
// its cached line-number slice and mtime, rounded to a flat figure the way
// the original's cache statistics do.
const approxEntryBytes = 128

// NewCache returns a breakpoint line cache bounded to size entries.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 1000
	}
	c := &Cache{stat: os.Stat, gen: make(map[string]uint64)}
	l, err := lru.NewWithEvict[string, entry](size, func(string, entry) {
		c.evictions++
	})
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Get returns the cached lines for file if present and not stale. The second
// return value reports whether a usable cache entry was found.
func (c *Cache) Get(file string) ([]int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(file)
	if !ok {
		c.misses++
		return nil, false
	}
	if !c.isCurrent(file, e.mtime) {
		c.lru.Remove(file)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.lines, true
}

// Set stores lines for file, recording the file's current mtime (if
// stat-able) so a later Get can detect staleness.
func (c *Cache) Set(file string, lines []int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mtime := time.Time{}
	if info, err := c.stat(file); err == nil {
		mtime = info.ModTime()
	}
	c.lru.Add(file, entry{lines: lines, mtime: mtime})
	c.gen[file]++
}

// Version returns a counter that increments every time file's cached lines
// are replaced (via Set) or explicitly dropped (via Invalidate). Callers
// that cache derived per-code-object data keyed on a file's breakpoint
// state (codeinfo.Cache) use this to detect staleness without the
// dispatcher having to push invalidation into every such cache directly.
func (c *Cache) Version(file string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[file]
}

// isCurrent reports whether recorded is still accurate for file. A file that
// cannot be stat'd is always considered current — it is not disk-backed.
func (c *Cache) isCurrent(file string, recorded time.Time) bool {
	info, err := c.stat(file)
	if err != nil {
		return true
	}
	return !info.ModTime().After(recorded)
}

// Invalidate drops any cached entry for file, forcing the next Get to miss.
func (c *Cache) Invalidate(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(file)
	c.gen[file]++
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.gen = make(map[string]uint64)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
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

	entries := c.lru.Len()
	return Stats{
		Hits:           c.hits,
		Misses:         c.misses,
		Evictions:      c.evictions,
		TotalEntries:   entries,
		MemoryEstimate: entries * approxEntryBytes,
		HitRate:        hitRate,
	}
}

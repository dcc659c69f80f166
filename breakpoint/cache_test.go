package breakpoint

import (
	"os"
	"testing"
	"time"
)

func TestCacheGetMissThenSetThenHit(t *testing.T) {
	c, err := NewCache(10)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	if _, ok := c.Get("nope.go"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("nope.go", []int{1, 2, 3})
	lines, ok := c.Get("nope.go")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
}

func TestCacheSkipsMtimeCheckForUnstatableFile(t *testing.T) {
	c, err := NewCache(10)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	// stat always fails, as for an in-memory buffer with no disk file.
	c.stat = func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }

	c.Set("<repl>", []int{1})
	if _, ok := c.Get("<repl>"); !ok {
		t.Fatal("expected unstatable file to remain cached indefinitely")
	}
}

type fakeFileInfo struct {
	os.FileInfo
	mtime time.Time
}

func (f fakeFileInfo) ModTime() time.Time { return f.mtime }

func TestCacheInvalidatesOnNewerMtime(t *testing.T) {
	c, err := NewCache(10)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}

	base := time.Now()
	current := base
	c.stat = func(string) (os.FileInfo, error) { return fakeFileInfo{mtime: current}, nil }

	c.Set("a.go", []int{1})
	if _, ok := c.Get("a.go"); !ok {
		t.Fatal("expected hit immediately after Set")
	}

	current = base.Add(time.Second)
	if _, ok := c.Get("a.go"); ok {
		t.Fatal("expected miss after file mtime advanced")
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c, err := NewCache(10)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	c.stat = func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }

	c.Set("a.go", []int{1})
	c.Set("b.go", []int{2})
	c.Invalidate("a.go")

	if _, ok := c.Get("a.go"); ok {
		t.Fatal("expected miss after Invalidate")
	}
	if _, ok := c.Get("b.go"); !ok {
		t.Fatal("b.go should be unaffected by Invalidate(a.go)")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len() after Clear() = %d, want 0", c.Len())
	}
}

func TestCacheStatsTracksHitsMissesAndEvictions(t *testing.T) {
	c, err := NewCache(1)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	c.stat = func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }

	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 || s.HitRate != 0 {
		t.Fatalf("expected zeroed stats before any request, got %+v", s)
	}

	c.Get("a.go") // miss
	c.Set("a.go", []int{1})
	c.Get("a.go")           // hit
	c.Set("b.go", []int{2}) // evicts a.go, over capacity 1

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Fatalf("Hits/Misses = %d/%d, want 1/1", s.Hits, s.Misses)
	}
	if s.Evictions != 1 {
		t.Fatalf("Evictions = %d, want 1", s.Evictions)
	}
	if s.TotalEntries != 1 {
		t.Fatalf("TotalEntries = %d, want 1", s.TotalEntries)
	}
	if s.MemoryEstimate != approxEntryBytes {
		t.Fatalf("MemoryEstimate = %d, want %d", s.MemoryEstimate, approxEntryBytes)
	}
	if s.HitRate != 0.5 {
		t.Fatalf("HitRate = %v, want 0.5", s.HitRate)
	}
}

func TestCacheStatsCountsInvalidateAsEviction(t *testing.T) {
	c, err := NewCache(10)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	c.stat = func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }

	c.Set("a.go", []int{1})
	c.Invalidate("a.go")

	if s := c.Stats(); s.Evictions != 1 {
		t.Fatalf("Evictions = %d, want 1 after Invalidate", s.Evictions)
	}
}

// Package threadinfo tracks per-thread tracing state. Go has no native
// thread-local storage equivalent to Python's threading.local(), so this
// package uses a concurrency-safe map keyed by a caller-supplied thread
// identifier (an OS thread id or other stable per-callback-thread handle —
// never a goroutine id, which is not a stable or exposed concept in Go).
package threadinfo

import (
	"sync"
	"time"
)

// ID identifies the OS thread (or other stable execution context) a frame
// callback is running on.
type ID int64

const defaultMaxRecursionDepth = 100

// Info is the per-thread bookkeeping the selective dispatcher consults
// before doing any real work, generalizing the original ThreadInfo class.
type Info struct {
	InsideFrameEval bool
	FullyInitialized bool
	IsEngineThread   bool
	RecursionDepth   int
	SkipAllFrames    bool
	StepMode         string
	LastActivity     time.Time
}

// EnterFrameEval increments the recursion depth and marks the thread as
// currently inside a frame-eval callback. It returns false if the call
// should be rejected because the max recursion depth was already reached.
func (i *Info) EnterFrameEval() bool {
	if i.RecursionDepth >= defaultMaxRecursionDepth {
		return false
	}
	i.InsideFrameEval = true
	i.RecursionDepth++
	i.LastActivity = time.Now()
	return true
}

// ExitFrameEval decrements the recursion depth, clearing InsideFrameEval
// once it returns to zero.
func (i *Info) ExitFrameEval() {
	if i.RecursionDepth > 0 {
		i.RecursionDepth--
	}
	if i.RecursionDepth == 0 {
		i.InsideFrameEval = false
	}
}

// ShouldSkipFrame reports whether frames on this thread should be skipped
// outright, independent of any file- or line-level breakpoint analysis.
func (i *Info) ShouldSkipFrame() bool {
	return i.SkipAllFrames || i.IsEngineThread || i.RecursionDepth >= defaultMaxRecursionDepth
}

// Registry is the concurrency-safe map from thread ID to Info, replacing
// the original's threading.local()-based ThreadLocalCache.
type Registry struct {
	mu      sync.Mutex
	threads map[ID]*Info
}

// NewRegistry returns an empty thread-info registry.
func NewRegistry() *Registry {
	return &Registry{threads: make(map[ID]*Info)}
}

// Get returns the Info for id, creating a zero-value entry on first access.
func (r *Registry) Get(id ID) *Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.threads[id]
	if !ok {
		info = &Info{}
		r.threads[id] = info
	}
	return info
}

// MarkEngineThread flags id as belonging to the tracing engine itself, so
// its frames are always skipped regardless of breakpoint state — this
// prevents the engine from recursively tracing its own condition
// evaluation or backend bookkeeping.
func (r *Registry) MarkEngineThread(id ID) {
	r.Get(id).IsEngineThread = true
}

// SetSkipAll sets or clears the skip-all-frames flag for id.
func (r *Registry) SetSkipAll(id ID, skip bool) {
	r.Get(id).SkipAllFrames = skip
}

// SetStepMode records the single-step mode a DAP next/stepIn/stepOut
// request put thread id into; "" clears it (e.g. on continue). The
// dispatcher's gate consults Info.StepMode directly on its next Dispatch
// call for this thread.
func (r *Registry) SetStepMode(id ID, mode string) {
	info := r.Get(id)
	info.StepMode = mode
	info.FullyInitialized = true
}

// Forget removes id's tracked state entirely, e.g. once its OS thread exits.
func (r *Registry) Forget(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, id)
}

// Len returns the number of threads currently tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.threads)
}

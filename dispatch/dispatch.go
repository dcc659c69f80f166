// Package dispatch implements the selective trace dispatcher: the hot-path
// gate that decides, for every candidate frame, whether the engine needs to
// install a trace callback on it or can let it run untraced. The gate never
// allocates on the skip path and never blocks on a lock while the caller's
// own callback runs.
package dispatch

import (
	"strings"
	"sync/atomic"

	"github.com/tracecore/tracecore/breakpoint"
	"github.com/tracecore/tracecore/codeinfo"
	"github.com/tracecore/tracecore/logging"
	"github.com/tracecore/tracecore/threadinfo"
)

// Reason explains why the gate reached the decision it reached, mirroring
// the original FrameTraceAnalyzer's reason strings.
type Reason string

const (
	ReasonThreadSkip              Reason = "thread_skip_frame"
	ReasonNoBreakpointsInFile     Reason = "no_breakpoints_in_file"
	ReasonFileNotTracked          Reason = "file_not_tracked"
	ReasonBreakpointOnLine        Reason = "breakpoint_on_line"
	ReasonFunctionHasBreakpoints  Reason = "function_has_breakpoints"
	ReasonNoBreakpointsInFunction Reason = "no_breakpoints_in_function"
)

// Decision is the gate's verdict for one frame.
type Decision struct {
	ShouldTrace     bool
	Reason          Reason
	BreakpointLines []int
}

// Frame is the minimal view of a candidate frame the gate needs. Callers
// (the backend adapters) populate this from whatever native frame
// representation their runtime hands them.
type Frame struct {
	File          string
	Line          int
	FuncFirstLine int
	Code          *codeinfo.CodeObject
	Thread        threadinfo.ID
	// StepMode is non-empty when the caller is single-stepping and wants
	// frames within a breakpointed function's range traced even away from
	// the exact breakpoint line.
	StepMode string
	// FuncName is the frame's function name, consulted against any
	// registered function-name breakpoints independent of line breakpoints.
	FuncName string
}

// untrackedPathMarkers mirrors the original's deny-list of standard-library
// and debugger-internal path fragments that are never worth tracing.
var untrackedPathMarkers = []string{
	"/go/pkg/mod/",
	"/usr/local/go/src/",
	"/usr/lib/go-",
	"<",
	"tracecore/dispatch/",
	"tracecore/condition/",
	"tracecore/backend/",
}

func shouldTrackFile(file string) bool {
	for _, marker := range untrackedPathMarkers {
		if strings.Contains(file, marker) {
			return false
		}
	}
	return true
}

// Stats accumulates dispatch counters, read with Stats() and reset with
// ResetStats().
type Stats struct {
	Total   int64
	Traced  int64
	Skipped int64
	ByReason map[Reason]int64
}

// Dispatcher is the composed gate: breakpoint lookups, the per-thread skip
// check, and the tracked-file deny-list, in the exact precedence order the
// original FrameTraceAnalyzer.should_trace_frame uses.
type Dispatcher struct {
	breakpoints     *breakpoint.Collection
	lineCache       *breakpoint.Cache
	codeCache       *codeinfo.Cache
	funcBreakpoints *breakpoint.FunctionBreakpoints
	threads         *threadinfo.Registry
	logger          logging.Logger

	total    atomic.Int64
	traced   atomic.Int64
	skipped  atomic.Int64
	byReason map[Reason]*atomic.Int64

	enabled atomic.Bool
}

// New returns a Dispatcher wired to the given breakpoint collection, line
// cache, and thread registry. codeCache may be nil, in which case the gate
// skips the per-code-object always-skip fast path and falls back to the
// lineCache lookup on every dispatch.
func New(bp *breakpoint.Collection, lineCache *breakpoint.Cache, codeCache *codeinfo.Cache, threads *threadinfo.Registry, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	d := &Dispatcher{
		breakpoints: bp,
		lineCache:   lineCache,
		codeCache:   codeCache,
		threads:     threads,
		logger:      logger,
		byReason:    make(map[Reason]*atomic.Int64),
	}
	for _, r := range []Reason{
		ReasonThreadSkip, ReasonNoBreakpointsInFile, ReasonFileNotTracked,
		ReasonBreakpointOnLine, ReasonFunctionHasBreakpoints, ReasonNoBreakpointsInFunction,
	} {
		d.byReason[r] = &atomic.Int64{}
	}
	d.enabled.Store(true)
	return d
}

// SetFunctionBreakpoints attaches (or replaces) the function-name
// breakpoint set the gate consults alongside line breakpoints. Passing nil
// disables function-name matching entirely.
func (d *Dispatcher) SetFunctionBreakpoints(fb *breakpoint.FunctionBreakpoints) {
	d.funcBreakpoints = fb
}

// Enable turns the dispatcher on or off; a disabled dispatcher always
// returns a ShouldTrace=false decision without consulting any cache.
func (d *Dispatcher) Enable(enabled bool) { d.enabled.Store(enabled) }

// Enabled reports whether the dispatcher is currently active.
func (d *Dispatcher) Enabled() bool { return d.enabled.Load() }

// Dispatch is the hot-path gate. It must never hold a lock while any
// downstream trace callback runs — it only ever touches its own caches and
// returns a decision; the caller is responsible for acting on it.
func (d *Dispatcher) Dispatch(frame Frame) Decision {
	d.total.Add(1)

	if !d.enabled.Load() {
		return d.record(Decision{ShouldTrace: false, Reason: ReasonThreadSkip})
	}

	info := d.threads.Get(frame.Thread)
	if info.ShouldSkipFrame() {
		return d.record(Decision{ShouldTrace: false, Reason: ReasonThreadSkip})
	}

	funcMatch := d.funcBreakpoints != nil && frame.FuncName != "" && d.funcBreakpoints.Matches(frame.FuncName)

	gen := d.lineCache.Version(frame.File)
	if !funcMatch && d.codeCache != nil && frame.Code != nil {
		if ci, ok := d.codeCache.Get(frame.Code); ok && ci.Generation == gen && ci.AlwaysSkip {
			return d.record(Decision{ShouldTrace: false, Reason: ReasonNoBreakpointsInFunction})
		}
	}

	lines, ok := d.lineCache.Get(frame.File)
	if !ok {
		lines = d.breakpoints.LinesForFile(frame.File)
		d.lineCache.Set(frame.File, lines)
		gen = d.lineCache.Version(frame.File)
	}

	funcEnd := d.estimateFuncEnd(frame)
	if d.codeCache != nil && frame.Code != nil {
		if ci, ok := d.codeCache.Get(frame.Code); ok && ci.Generation == gen {
			funcEnd = ci.FuncEndLine
		}
		d.codeCache.Set(frame.Code, codeinfo.Info{
			FuncStartLine: frame.FuncFirstLine,
			FuncEndLine:   funcEnd,
			Breakpoints:   lines,
			AlwaysSkip:    len(lines) == 0 && !funcMatch,
			Generation:    gen,
		})
	}

	if funcMatch {
		return d.record(Decision{ShouldTrace: true, Reason: ReasonFunctionHasBreakpoints, BreakpointLines: lines})
	}

	if len(lines) == 0 {
		if !shouldTrackFile(frame.File) {
			return d.record(Decision{ShouldTrace: false, Reason: ReasonFileNotTracked})
		}
		return d.record(Decision{ShouldTrace: false, Reason: ReasonNoBreakpointsInFile})
	}

	if !shouldTrackFile(frame.File) {
		return d.record(Decision{ShouldTrace: false, Reason: ReasonFileNotTracked})
	}

	for _, line := range lines {
		if line == frame.Line {
			return d.record(Decision{ShouldTrace: true, Reason: ReasonBreakpointOnLine, BreakpointLines: lines})
		}
	}

	// info.StepMode is the registry's authoritative record of what a DAP
	// next/stepIn/stepOut request put this thread into (Session.step); a
	// caller-populated frame.StepMode is honored as a fallback for backend
	// adapters that don't route stepping through the registry at all.
	stepMode := info.StepMode
	if stepMode == "" {
		stepMode = frame.StepMode
	}
	if stepMode != "" && info.FullyInitialized {
		if inFunctionRange(lines, frame.FuncFirstLine, funcEnd) {
			return d.record(Decision{ShouldTrace: true, Reason: ReasonFunctionHasBreakpoints, BreakpointLines: lines})
		}
		return d.record(Decision{ShouldTrace: false, Reason: ReasonNoBreakpointsInFunction})
	}

	return d.record(Decision{ShouldTrace: false, Reason: ReasonNoBreakpointsInFunction})
}

// estimateFuncEnd falls back to a conservative window past the function's
// first line when no tighter bound (e.g. from codeinfo.Info) is available,
// mirroring the original's co_firstlineno + 100 fallback.
func (d *Dispatcher) estimateFuncEnd(frame Frame) int {
	const fallbackWindow = 100
	return frame.FuncFirstLine + fallbackWindow
}

func inFunctionRange(lines []int, start, end int) bool {
	for _, line := range lines {
		if line >= start && line <= end {
			return true
		}
	}
	return false
}

func (d *Dispatcher) record(dec Decision) Decision {
	if dec.ShouldTrace {
		d.traced.Add(1)
	} else {
		d.skipped.Add(1)
	}
	if counter, ok := d.byReason[dec.Reason]; ok {
		counter.Add(1)
	}
	return dec
}

// Stats returns a point-in-time snapshot of dispatch counters.
func (d *Dispatcher) Stats() Stats {
	s := Stats{
		Total:    d.total.Load(),
		Traced:   d.traced.Load(),
		Skipped:  d.skipped.Load(),
		ByReason: make(map[Reason]int64, len(d.byReason)),
	}
	for r, c := range d.byReason {
		if v := c.Load(); v != 0 {
			s.ByReason[r] = v
		}
	}
	return s
}

// ResetStats zeroes all dispatch counters.
func (d *Dispatcher) ResetStats() {
	d.total.Store(0)
	d.traced.Store(0)
	d.skipped.Store(0)
	for _, c := range d.byReason {
		c.Store(0)
	}
}

// InvalidateFile drops the cached line list for file, forcing the next
// Dispatch call for it to recompute from the breakpoint collection.
func (d *Dispatcher) InvalidateFile(file string) {
	d.lineCache.Invalidate(file)
}

// UpdateBreakpoints replaces the breakpoint set for file and invalidates the
// cached line list. The mutators below edit the collection directly and
// invalidate the cached line list the same way.
func (d *Dispatcher) UpdateBreakpoints(file string, specs []breakpoint.Spec) []*breakpoint.Breakpoint {
	installed := d.breakpoints.SetForFile(file, specs)
	d.InvalidateFile(file)
	return installed
}

// AddBreakpoint is a convenience mutator: it appends a single unconditional
// line breakpoint to file's existing set.
func (d *Dispatcher) AddBreakpoint(file string, line int) *breakpoint.Breakpoint {
	bp := d.breakpoints.Add(file, line, "", "", "")
	d.InvalidateFile(file)
	return bp
}

// RemoveBreakpoint drops the breakpoint at (file, line), reporting whether
// one was found.
func (d *Dispatcher) RemoveBreakpoint(file string, line int) bool {
	removed := d.breakpoints.Remove(file, line)
	if removed {
		d.InvalidateFile(file)
	}
	return removed
}

// ClearBreakpoints removes every breakpoint for file, or every breakpoint in
// the collection when file is empty.
func (d *Dispatcher) ClearBreakpoints(file string) {
	if file == "" {
		for _, f := range d.breakpoints.Files() {
			d.breakpoints.Clear(f)
			d.InvalidateFile(f)
		}
		return
	}
	d.breakpoints.Clear(file)
	d.InvalidateFile(file)
}

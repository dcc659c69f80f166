package dispatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tracecore/tracecore/breakpoint"
	"github.com/tracecore/tracecore/codeinfo"
	"github.com/tracecore/tracecore/threadinfo"
)

func newDispatcher(t *testing.T) (*Dispatcher, *breakpoint.Collection, *threadinfo.Registry) {
	t.Helper()
	bp := breakpoint.NewCollection()
	cache, err := breakpoint.NewCache(100)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	threads := threadinfo.NewRegistry()
	return New(bp, cache, codeinfo.NewCache(100, 0), threads, nil), bp, threads
}

func TestDispatchSkipsWithoutBreakpoints(t *testing.T) {
	d, _, _ := newDispatcher(t)
	dec := d.Dispatch(Frame{File: "a.go", Line: 10, Thread: 1})
	if dec.ShouldTrace {
		t.Fatal("expected skip with no breakpoints registered")
	}
	if dec.Reason != ReasonNoBreakpointsInFile {
		t.Fatalf("Reason = %q, want %q", dec.Reason, ReasonNoBreakpointsInFile)
	}
}

func TestDispatchTracesOnBreakpointLine(t *testing.T) {
	d, bp, _ := newDispatcher(t)
	bp.Add("a.go", 10, "", "", "")

	dec := d.Dispatch(Frame{File: "a.go", Line: 10, Thread: 1})
	if !dec.ShouldTrace {
		t.Fatalf("expected trace on breakpoint line, got %+v", dec)
	}
	if dec.Reason != ReasonBreakpointOnLine {
		t.Fatalf("Reason = %q, want %q", dec.Reason, ReasonBreakpointOnLine)
	}
}

func TestDispatchSkipsOffBreakpointLineWithoutStepMode(t *testing.T) {
	d, bp, _ := newDispatcher(t)
	bp.Add("a.go", 10, "", "", "")

	dec := d.Dispatch(Frame{File: "a.go", Line: 11, Thread: 1})
	if dec.ShouldTrace {
		t.Fatalf("expected skip off breakpoint line, got %+v", dec)
	}
	if dec.Reason != ReasonNoBreakpointsInFunction {
		t.Fatalf("Reason = %q, want %q", dec.Reason, ReasonNoBreakpointsInFunction)
	}
}

func TestDispatchTracesWithinFunctionRangeDuringStep(t *testing.T) {
	d, bp, threads := newDispatcher(t)
	bp.Add("a.go", 50, "", "", "")
	threads.Get(1).FullyInitialized = true

	dec := d.Dispatch(Frame{File: "a.go", Line: 12, FuncFirstLine: 5, Thread: 1, StepMode: "next"})
	if !dec.ShouldTrace {
		t.Fatalf("expected trace within stepped function range, got %+v", dec)
	}
	if dec.Reason != ReasonFunctionHasBreakpoints {
		t.Fatalf("Reason = %q, want %q", dec.Reason, ReasonFunctionHasBreakpoints)
	}
}

func TestDispatchSkipsThreadMarkedSkipAll(t *testing.T) {
	d, bp, threads := newDispatcher(t)
	bp.Add("a.go", 10, "", "", "")
	threads.SetSkipAll(1, true)

	dec := d.Dispatch(Frame{File: "a.go", Line: 10, Thread: 1})
	if dec.ShouldTrace {
		t.Fatal("expected skip for thread marked skip-all even on breakpoint line")
	}
	if dec.Reason != ReasonThreadSkip {
		t.Fatalf("Reason = %q, want %q", dec.Reason, ReasonThreadSkip)
	}
}

func TestDispatchSkipsUntrackedFile(t *testing.T) {
	d, bp, _ := newDispatcher(t)
	bp.Add("/usr/local/go/src/fmt/print.go", 10, "", "", "")

	dec := d.Dispatch(Frame{File: "/usr/local/go/src/fmt/print.go", Line: 10, Thread: 1})
	if dec.ShouldTrace {
		t.Fatal("expected skip for untracked standard-library file")
	}
	if dec.Reason != ReasonFileNotTracked {
		t.Fatalf("Reason = %q, want %q", dec.Reason, ReasonFileNotTracked)
	}
}

func TestDispatchDisabledAlwaysSkips(t *testing.T) {
	d, bp, _ := newDispatcher(t)
	bp.Add("a.go", 10, "", "", "")
	d.Enable(false)

	dec := d.Dispatch(Frame{File: "a.go", Line: 10, Thread: 1})
	if dec.ShouldTrace {
		t.Fatal("expected disabled dispatcher to always skip")
	}
}

func TestStatsAccumulateAndReset(t *testing.T) {
	d, bp, _ := newDispatcher(t)
	bp.Add("a.go", 10, "", "", "")

	d.Dispatch(Frame{File: "a.go", Line: 10, Thread: 1})
	d.Dispatch(Frame{File: "b.go", Line: 1, Thread: 1})

	stats := d.Stats()
	want := Stats{Total: 2, Traced: 1, Skipped: 1, ByReason: map[Reason]int64{
		ReasonBreakpointOnLine:    1,
		ReasonNoBreakpointsInFile: 1,
	}}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("unexpected stats (-want +got):\n%s", diff)
	}

	d.ResetStats()
	stats = d.Stats()
	if stats.Total != 0 || stats.Traced != 0 || stats.Skipped != 0 {
		t.Fatalf("expected zeroed stats after reset, got %+v", stats)
	}
}

func TestInvalidateFileForcesCacheRefresh(t *testing.T) {
	d, bp, _ := newDispatcher(t)
	bp.Add("a.go", 10, "", "", "")
	d.Dispatch(Frame{File: "a.go", Line: 10, Thread: 1}) // warms line cache

	bp.SetForFile("a.go", []breakpoint.Spec{{Line: 20}})
	d.InvalidateFile("a.go")

	dec := d.Dispatch(Frame{File: "a.go", Line: 20, Thread: 1})
	if !dec.ShouldTrace {
		t.Fatalf("expected trace on newly-set line after invalidation, got %+v", dec)
	}
}

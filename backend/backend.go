// Package backend abstracts over the two ways a host runtime can deliver
// frame-level trace notifications: a classic per-thread trace-callback
// style API (mirroring Python's sys.settrace) and a modern capability-based
// event-subscription API (mirroring Python 3.12+'s sys.monitoring). Command
// handlers, the DAP wire layer, and the underlying debugger implementation
// are all out of scope here — this package only calls into them through the
// Runtime seam.
package backend

import (
	"github.com/tracecore/tracecore/dispatch"
)

// TraceFunc is the classic-style per-frame callback signature: the backend
// hands the host a function it should invoke on trace events, and the host
// stays in control of when and how that happens.
type TraceFunc func(frame dispatch.Frame, event string) error

// EventFunc is the modern event-subscription callback signature.
type EventFunc func(frame dispatch.Frame, event string) error

// EventMask selects which event kinds an EventSubscription backend
// registers for.
type EventMask uint32

const (
	EventLine EventMask = 1 << iota
	EventCall
	EventReturn
	EventException
)

// Runtime is the host seam this package calls into. It represents
// whatever underlying debugger/process implementation actually owns frame
// evaluation; this core never implements it, only depends on it.
type Runtime interface {
	// InstallClassicTrace registers fn as the process-wide (or per-thread)
	// trace function, the way sys.settrace does.
	InstallClassicTrace(fn TraceFunc) error
	// RemoveClassicTrace undoes InstallClassicTrace. Must be safe to call
	// even if no classic trace function is currently installed.
	RemoveClassicTrace() error

	// SubscribeEvents registers fn for the given event mask and returns an
	// unsubscribe function, the way sys.monitoring.register_callback does.
	SubscribeEvents(fn EventFunc, mask EventMask) (unsubscribe func() error, err error)
}

// Statistics is the externally-visible health/usage snapshot for a backend,
// mirroring the original's IntegrationStatistics shape.
type Statistics struct {
	Kind            string
	Installed       bool
	DispatchStats   dispatch.Stats
}

// Backend is the polymorphic seam the runtime composition root programs
// against, regardless of which concrete tracing mechanism the host offers.
type Backend interface {
	// Install wires the backend into rt. Best-effort: a partial failure
	// (e.g. one of several integration points unavailable) should not
	// prevent the parts that did succeed from working.
	Install(rt Runtime) error
	// Shutdown tears down whatever Install wired up. Idempotent.
	Shutdown() error
	// UpdateBreakpoints notifies the backend that file's breakpoint lines
	// changed, so it can invalidate any host-side caches of its own.
	UpdateBreakpoints(file string, lines []int) error
	// SetStepping switches single-step mode on or off.
	SetStepping(mode string) error
	// SetExceptionBreakpoints configures which exception categories should
	// stop execution.
	SetExceptionBreakpoints(filters []string) error
	// Statistics reports the backend's current health/usage snapshot.
	Statistics() Statistics
}

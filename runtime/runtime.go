// Package runtime is the composition root: it wires the breakpoint cache,
// code-info cache, thread registry, condition evaluator, dispatcher, and
// tracing backend into one lifecycle, mirroring the original
// FrameEvalRuntime's initialize/shutdown/update_breakpoints/get_stats shape.
package runtime

import (
	"sync"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/tracecore/tracecore/backend"
	"github.com/tracecore/tracecore/breakpoint"
	"github.com/tracecore/tracecore/codeinfo"
	"github.com/tracecore/tracecore/condition"
	"github.com/tracecore/tracecore/config"
	"github.com/tracecore/tracecore/dispatch"
	"github.com/tracecore/tracecore/logging"
	"github.com/tracecore/tracecore/telemetry"
	"github.com/tracecore/tracecore/threadinfo"
)

// Status is a point-in-time view of the engine's lifecycle state.
type Status struct {
	Enabled     bool
	BackendKind string
}

// Stats bundles the dispatcher counters, telemetry snapshot, and both
// caches' hit/miss/eviction statistics into one externally-reportable value,
// mirroring FrameEvalRuntimeStats.as_dict() and cache_manager.py's
// get_cache_statistics().
type Stats struct {
	Dispatch  dispatch.Stats
	Telemetry telemetry.Snapshot
	LineCache breakpoint.Stats
	CodeCache codeinfo.Stats
}

// Runtime owns every subsystem's lifetime and is the only type outside
// dapfacade that main.go / cmd need to construct directly.
type Runtime struct {
	Breakpoints         *breakpoint.Collection
	FunctionBreakpoints *breakpoint.FunctionBreakpoints
	LineCache           *breakpoint.Cache
	CodeCache           *codeinfo.Cache
	Threads             *threadinfo.Registry
	Conditions          *condition.Evaluator
	Dispatcher          *dispatch.Dispatcher
	Telemetry           *telemetry.Telemetry

	logger logging.Logger
	policy *backend.Policy

	mu      sync.Mutex
	backend backend.Backend
	opts    config.Options
}

// New constructs every subsystem from opts but does not yet install a
// backend — call Initialize for that, once the host's Runtime and
// Capabilities are available.
func New(opts config.Options, logger logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.New()
	}

	lineCache, err := breakpoint.NewCache(opts.BreakpointCacheSize)
	if err != nil {
		return nil, err
	}

	tel := telemetry.New()
	threads := threadinfo.NewRegistry()
	bpCollection := breakpoint.NewCollection()
	funcBreakpoints := breakpoint.NewFunctionBreakpoints()
	codeCache := codeinfo.NewCache(opts.CacheSize, time.Duration(opts.CacheTTLSeconds)*time.Second)
	dispatcher := dispatch.New(bpCollection, lineCache, codeCache, threads, logger)
	dispatcher.SetFunctionBreakpoints(funcBreakpoints)
	dispatcher.Enable(opts.Enabled)

	cond := condition.New(
		condition.WithLogger(logger),
		condition.WithTelemetry(tel),
	)
	cond.SetEnabled(opts.ConditionalBreakpointsEnabled)
	if opts.ConditionBudgetSeconds > 0 {
		cond.SetBudget(time.Duration(opts.ConditionBudgetSeconds * float64(time.Second)))
	}

	return &Runtime{
		Breakpoints:         bpCollection,
		FunctionBreakpoints: funcBreakpoints,
		LineCache:           lineCache,
		CodeCache:           codeCache,
		Threads:             threads,
		Conditions:          cond,
		Dispatcher:          dispatcher,
		Telemetry:           tel,
		logger:              logger,
		policy:              backend.NewPolicy(logger, tel),
		opts:                opts,
	}, nil
}

// Initialize selects and installs a tracing backend against hostRuntime,
// applying GOMAXPROCS tuning for the current cgroup the way a long-running
// service boot strap normally would.
func (r *Runtime) Initialize(hostRuntime backend.Runtime, caps backend.Capabilities) error {
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, a ...interface{}) {
		r.logger.Debug(format, a...)
	})); err != nil {
		r.logger.Warn("runtime: automaxprocs: %v", err)
	}

	mode := backend.Mode(r.opts.Backend)
	be, err := r.policy.Select(mode, caps, r.opts.FallbackToTracing, r.Dispatcher, r.Telemetry)
	if err != nil {
		return err
	}
	if err := be.Install(hostRuntime); err != nil {
		return err
	}

	r.mu.Lock()
	r.backend = be
	r.mu.Unlock()
	return nil
}

// Shutdown disables the dispatcher, tears down the installed backend, and
// clears all caches, mirroring FrameEvalRuntime.shutdown.
func (r *Runtime) Shutdown() error {
	r.Dispatcher.Enable(false)

	r.mu.Lock()
	be := r.backend
	r.backend = nil
	r.mu.Unlock()

	r.LineCache.Clear()
	r.CodeCache.Clear()
	r.Breakpoints.ClearAll()
	r.FunctionBreakpoints.SetAll(nil)

	if be == nil {
		return nil
	}
	return be.Shutdown()
}

// UpdateBreakpoints installs a new breakpoint set for file and notifies the
// active backend, mirroring FrameEvalRuntime.update_breakpoints.
func (r *Runtime) UpdateBreakpoints(file string, specs []breakpoint.Spec) []*breakpoint.Breakpoint {
	installed := r.Breakpoints.SetForFile(file, specs)
	r.Dispatcher.InvalidateFile(file)

	lines := make([]int, len(installed))
	for i, bp := range installed {
		lines[i] = bp.Line
	}

	r.mu.Lock()
	be := r.backend
	r.mu.Unlock()
	if be != nil {
		if err := be.UpdateBreakpoints(file, lines); err != nil {
			r.logger.Warn("runtime: backend UpdateBreakpoints(%s): %v", file, err)
		}
	}
	return installed
}

// UpdateFunctionBreakpoints replaces the function-name breakpoint set the
// dispatcher's gate consults, mirroring set_function_breakpoints.
func (r *Runtime) UpdateFunctionBreakpoints(specs []breakpoint.FunctionSpec) []breakpoint.ID {
	return r.FunctionBreakpoints.SetAll(specs)
}

// Stats returns the current dispatch counters, telemetry snapshot, and
// cache effectiveness statistics.
func (r *Runtime) Stats() Stats {
	return Stats{
		Dispatch:  r.Dispatcher.Stats(),
		Telemetry: r.Telemetry.Snapshot(),
		LineCache: r.LineCache.Stats(),
		CodeCache: r.CodeCache.Stats(),
	}
}

// Status reports whether the engine is enabled and which backend kind is
// currently installed, or "" if none has been installed yet.
func (r *Runtime) Status() Status {
	r.mu.Lock()
	be := r.backend
	r.mu.Unlock()

	kind := ""
	if be != nil {
		kind = be.Statistics().Kind
	}
	return Status{Enabled: r.Dispatcher.Enabled(), BackendKind: kind}
}

package backend

import (
	"sync"

	"github.com/tracecore/tracecore/dispatch"
	"github.com/tracecore/tracecore/logging"
	"github.com/tracecore/tracecore/telemetry"
)

// ClassicBackend installs a single process-wide trace callback, generalizing
// the original SettraceBackend. It is the fallback every host runtime is
// expected to support.
type ClassicBackend struct {
	dispatcher *dispatch.Dispatcher
	logger     logging.Logger
	telemetry  *telemetry.Telemetry

	mu        sync.Mutex
	rt        Runtime
	installed bool
	stepping  string
}

// NewClassicBackend returns a ClassicBackend driven by dispatcher's gate
// decisions.
func NewClassicBackend(dispatcher *dispatch.Dispatcher, logger logging.Logger, tel *telemetry.Telemetry) *ClassicBackend {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &ClassicBackend{dispatcher: dispatcher, logger: logger, telemetry: tel}
}

func (b *ClassicBackend) Install(rt Runtime) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := rt.InstallClassicTrace(b.onTrace); err != nil {
		b.record(telemetry.ReasonIntegrationBdbFailed, err)
		return err
	}
	b.rt = rt
	b.installed = true
	return nil
}

func (b *ClassicBackend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.installed || b.rt == nil {
		return nil
	}
	err := b.rt.RemoveClassicTrace()
	if err != nil {
		b.record(telemetry.ReasonIntegrationRemoveFailed, err)
	}
	b.installed = false
	b.rt = nil
	return err
}

func (b *ClassicBackend) onTrace(frame dispatch.Frame, event string) error {
	dec := b.dispatcher.Dispatch(frame)
	if !dec.ShouldTrace {
		return nil
	}
	// The actual trace delivery (to the DAP-facing session) happens
	// upstream of this seam; this backend's job ends at the gate decision.
	return nil
}

func (b *ClassicBackend) UpdateBreakpoints(file string, lines []int) error {
	b.dispatcher.InvalidateFile(file)
	return nil
}

func (b *ClassicBackend) SetStepping(mode string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stepping = mode
	return nil
}

func (b *ClassicBackend) SetExceptionBreakpoints([]string) error {
	// The classic per-frame callback has no native exception-filter
	// concept; exception breakpoints are handled by the DAP-facing layer
	// inspecting frames as they're already traced.
	return nil
}

func (b *ClassicBackend) Statistics() Statistics {
	b.mu.Lock()
	installed := b.installed
	b.mu.Unlock()

	return Statistics{
		Kind:          "classic",
		Installed:     installed,
		DispatchStats: b.dispatcher.Stats(),
	}
}

func (b *ClassicBackend) record(reason telemetry.ReasonCode, err error) {
	b.logger.Warn("classic backend: %s: %v", reason, err)
	if b.telemetry != nil {
		b.telemetry.Record(reason, map[string]string{"error": err.Error()})
	}
}

package backend

import (
	"sync"

	"github.com/tracecore/tracecore/dispatch"
	"github.com/tracecore/tracecore/logging"
	"github.com/tracecore/tracecore/telemetry"
)

// EventSubscriptionBackend uses the host's capability-based event API
// (mirroring sys.monitoring) instead of a single global trace callback.
// It subscribes to line, call, return and exception events and runs every
// delivered event through the same dispatcher gate as ClassicBackend; it
// does not narrow its subscription per file or per event kind.
type EventSubscriptionBackend struct {
	dispatcher *dispatch.Dispatcher
	logger     logging.Logger
	telemetry  *telemetry.Telemetry

	mu          sync.Mutex
	unsubscribe func() error
	installed   bool
	stepping    string
}

// NewEventSubscriptionBackend returns an EventSubscriptionBackend driven by
// dispatcher's gate decisions.
func NewEventSubscriptionBackend(dispatcher *dispatch.Dispatcher, logger logging.Logger, tel *telemetry.Telemetry) *EventSubscriptionBackend {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &EventSubscriptionBackend{dispatcher: dispatcher, logger: logger, telemetry: tel}
}

func (b *EventSubscriptionBackend) Install(rt Runtime) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	unsubscribe, err := rt.SubscribeEvents(b.onEvent, EventLine|EventCall|EventReturn|EventException)
	if err != nil {
		b.record(telemetry.ReasonBackendIntegrationFailed, err)
		return err
	}
	b.unsubscribe = unsubscribe
	b.installed = true
	return nil
}

func (b *EventSubscriptionBackend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.installed || b.unsubscribe == nil {
		return nil
	}
	err := b.unsubscribe()
	if err != nil {
		b.record(telemetry.ReasonIntegrationRemoveFailed, err)
	}
	b.installed = false
	b.unsubscribe = nil
	return err
}

func (b *EventSubscriptionBackend) onEvent(frame dispatch.Frame, event string) error {
	dec := b.dispatcher.Dispatch(frame)
	if !dec.ShouldTrace {
		return nil
	}
	return nil
}

func (b *EventSubscriptionBackend) UpdateBreakpoints(file string, lines []int) error {
	b.dispatcher.InvalidateFile(file)
	return nil
}

func (b *EventSubscriptionBackend) SetStepping(mode string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stepping = mode
	return nil
}

func (b *EventSubscriptionBackend) SetExceptionBreakpoints([]string) error {
	// Event-subscription runtimes can, in principle, filter at the source;
	// this core still gates every delivered event through the dispatcher,
	// so no host-side filter configuration is required here.
	return nil
}

func (b *EventSubscriptionBackend) Statistics() Statistics {
	b.mu.Lock()
	installed := b.installed
	b.mu.Unlock()

	return Statistics{
		Kind:          "event_subscription",
		Installed:     installed,
		DispatchStats: b.dispatcher.Stats(),
	}
}

func (b *EventSubscriptionBackend) record(reason telemetry.ReasonCode, err error) {
	b.logger.Warn("event subscription backend: %s: %v", reason, err)
	if b.telemetry != nil {
		b.telemetry.Record(reason, map[string]string{"error": err.Error()})
	}
}

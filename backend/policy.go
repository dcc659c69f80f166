package backend

import (
	"fmt"

	"github.com/tracecore/tracecore/dispatch"
	"github.com/tracecore/tracecore/logging"
	"github.com/tracecore/tracecore/telemetry"
)

// Mode selects which backend kind the caller wants, generalizing the
// original's AUTO/CLASSIC/EVENT_SUBSCRIPTION choice.
type Mode string

const (
	ModeAuto              Mode = "auto"
	ModeClassic           Mode = "classic"
	ModeEventSubscription Mode = "event_subscription"
)

// Capabilities describes what the host runtime can actually offer,
// generalizing FrameEvalCompatibilityPolicy's platform/version/environment
// checks into capability flags a Go host reports directly instead of this
// package inferring them from version tuples.
type Capabilities struct {
	// SupportsEventSubscription is true when the host exposes a
	// sys.monitoring-style capability API.
	SupportsEventSubscription bool
	// IncompatibleIntegrations lists names of other active tracing tools
	// (coverage tools, other debuggers) known to conflict with this engine.
	// When any is present, ModeAuto selects the classic backend instead of
	// the event-subscription one.
	IncompatibleIntegrations []string
}

// Policy selects a concrete Backend given a requested Mode and the host's
// reported Capabilities, mirroring the original
// FrameEvalCompatibilityPolicy.supports_sys_monitoring capability check.
type Policy struct {
	logger    logging.Logger
	telemetry *telemetry.Telemetry
}

// NewPolicy returns a Policy that logs and records telemetry for fallback
// decisions.
func NewPolicy(logger logging.Logger, tel *telemetry.Telemetry) *Policy {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Policy{logger: logger, telemetry: tel}
}

// Select returns the Backend to use for dispatcher under caps, given the
// requested mode. ModeAuto prefers EventSubscription when the host supports
// it and no incompatible integration is active, falling back to Classic
// otherwise. An explicit ModeEventSubscription request that the host cannot
// satisfy falls back to Classic (with a telemetry fallback event) when
// fallbackAllowed is true; otherwise it is reported as an error.
func (p *Policy) Select(mode Mode, caps Capabilities, fallbackAllowed bool, dispatcher *dispatch.Dispatcher, tel *telemetry.Telemetry) (Backend, error) {
	switch mode {
	case ModeClassic:
		return NewClassicBackend(dispatcher, p.logger, tel), nil

	case ModeEventSubscription:
		if !caps.SupportsEventSubscription {
			if !fallbackAllowed {
				return nil, fmt.Errorf("backend: event_subscription requested but host does not support it")
			}
			p.logger.Warn("backend: event_subscription requested but unsupported, falling back to classic")
			if p.telemetry != nil {
				p.telemetry.Record(telemetry.ReasonIntegrationFailed, map[string]string{
					"requested": string(ModeEventSubscription),
				})
			}
			return NewClassicBackend(dispatcher, p.logger, tel), nil
		}
		return NewEventSubscriptionBackend(dispatcher, p.logger, tel), nil

	case ModeAuto, "":
		if caps.SupportsEventSubscription && len(caps.IncompatibleIntegrations) == 0 {
			return NewEventSubscriptionBackend(dispatcher, p.logger, tel), nil
		}
		if len(caps.IncompatibleIntegrations) > 0 {
			p.logger.Info("backend: falling back to classic, incompatible integrations present: %v", caps.IncompatibleIntegrations)
			if p.telemetry != nil {
				p.telemetry.Record(telemetry.ReasonAutoIntegrationFailed, map[string]string{
					"integrations": fmt.Sprint(caps.IncompatibleIntegrations),
				})
			}
		}
		return NewClassicBackend(dispatcher, p.logger, tel), nil

	default:
		return nil, fmt.Errorf("backend: unknown mode %q", mode)
	}
}

// Package telemetry records why the selective tracing engine made the
// decisions it made, without ever affecting those decisions. It is
// diagnostics-only: nothing in dispatch, breakpoint, codeinfo, condition, or
// backend may branch on telemetry state.
package telemetry

import (
	"encoding/json"
	"sync"
	"time"
)

// ReasonCode identifies why a fallback, failure, or degraded path was taken.
type ReasonCode string

// These seven match the spec's stable reason-code vocabulary verbatim; the
// rest are this engine's own finer-grained additions layered on top, kept
// distinct so a reader can tell "the spec's contract" from "this backend's
// extra detail" at a glance.
const (
	ReasonAutoIntegrationFailed          ReasonCode = "AUTO_INTEGRATION_FAILED"
	ReasonBytecodeInjectionFailed        ReasonCode = "BYTECODE_INJECTION_FAILED"
	ReasonIntegrationFailed              ReasonCode = "INTEGRATION_FAILED"
	ReasonSelectiveTracingAnalysisFailed ReasonCode = "SELECTIVE_TRACING_ANALYSIS_FAILED"
	ReasonHotReloadSucceeded             ReasonCode = "HOT_RELOAD_SUCCEEDED"
	ReasonHotReloadFailed                ReasonCode = "HOT_RELOAD_FAILED"
	ReasonBudgetExceeded                 ReasonCode = "BUDGET_EXCEEDED"
)

const (
	ReasonBytecodeOptimizationFailed         ReasonCode = "BYTECODE_OPTIMIZATION_FAILED"
	ReasonBytecodeOptimizationFileReadFailed ReasonCode = "BYTECODE_OPTIMIZATION_FILE_READ_FAILED"
	ReasonIntegrationBdbFailed               ReasonCode = "INTEGRATION_BDB_FAILED"
	ReasonIntegrationRemoveFailed            ReasonCode = "INTEGRATION_REMOVE_FAILED"
	ReasonBackendHookFailed                  ReasonCode = "BACKEND_HOOK_FAILED"
	ReasonBackendIntegrationFailed           ReasonCode = "BACKEND_INTEGRATION_FAILED"
	ReasonBackendTraceHookFailed             ReasonCode = "BACKEND_TRACE_HOOK_FAILED"
)

// Event is a single recorded occurrence of a reason code, with free-form
// context (e.g. file path, condition text, error string).
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Reason    ReasonCode        `json:"reason_code"`
	Context   map[string]string `json:"context,omitempty"`
}

const maxRecentEvents = 50

// Telemetry is a process-wide counter and bounded ring buffer of recent
// reason-code occurrences. All methods are safe for concurrent use.
type Telemetry struct {
	mu            sync.Mutex
	counts        map[ReasonCode]int
	recentEvents  []Event
	recentCursor  int
	now           func() time.Time
}

// New returns an empty Telemetry instance.
func New() *Telemetry {
	return &Telemetry{
		counts: make(map[ReasonCode]int),
		now:    time.Now,
	}
}

// Record increments the counter for reason and appends an Event to the
// recent-events ring buffer, evicting the oldest entry once full.
func (t *Telemetry) Record(reason ReasonCode, context map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[reason]++
	evt := Event{Timestamp: t.now(), Reason: reason, Context: context}
	if len(t.recentEvents) < maxRecentEvents {
		t.recentEvents = append(t.recentEvents, evt)
		return
	}
	t.recentEvents[t.recentCursor] = evt
	t.recentCursor = (t.recentCursor + 1) % maxRecentEvents
}

// Snapshot is an immutable, JSON-serializable view of accumulated telemetry.
type Snapshot struct {
	ReasonCounts map[ReasonCode]int `json:"reason_counts"`
	RecentEvents []Event            `json:"recent_events"`
}

// AsJSON marshals the snapshot to indented JSON.
func (s Snapshot) AsJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Snapshot returns a copy of the current counters and recent events, in
// chronological order oldest-first.
func (t *Telemetry) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := make(map[ReasonCode]int, len(t.counts))
	for k, v := range t.counts {
		if v != 0 {
			counts[k] = v
		}
	}

	events := make([]Event, len(t.recentEvents))
	if len(t.recentEvents) < maxRecentEvents {
		copy(events, t.recentEvents)
	} else {
		n := copy(events, t.recentEvents[t.recentCursor:])
		copy(events[n:], t.recentEvents[:t.recentCursor])
	}

	return Snapshot{ReasonCounts: counts, RecentEvents: events}
}

// Clear resets all counters and recent events. Intended for test isolation.
func (t *Telemetry) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[ReasonCode]int)
	t.recentEvents = nil
	t.recentCursor = 0
}

package runtime

import (
	"testing"

	"github.com/tracecore/tracecore/backend"
	"github.com/tracecore/tracecore/breakpoint"
	"github.com/tracecore/tracecore/config"
	"github.com/tracecore/tracecore/dispatch"
)

type fakeHostRuntime struct {
	installed  bool
	subscribed bool
}

func (f *fakeHostRuntime) InstallClassicTrace(backend.TraceFunc) error {
	f.installed = true
	return nil
}

func (f *fakeHostRuntime) RemoveClassicTrace() error {
	f.installed = false
	return nil
}

func (f *fakeHostRuntime) SubscribeEvents(backend.EventFunc, backend.EventMask) (func() error, error) {
	f.subscribed = true
	return func() error { f.subscribed = false; return nil }, nil
}

func TestNewConstructsAllSubsystems(t *testing.T) {
	opts := config.Default()
	r, err := New(opts, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if r.Breakpoints == nil || r.LineCache == nil || r.CodeCache == nil || r.Threads == nil || r.Conditions == nil || r.Dispatcher == nil {
		t.Fatal("expected all subsystems constructed")
	}
}

func TestInitializeSelectsClassicBackendByDefault(t *testing.T) {
	opts := config.Default()
	r, err := New(opts, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	host := &fakeHostRuntime{}
	if err := r.Initialize(host, backend.Capabilities{}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !host.installed {
		t.Fatal("expected classic trace installed on host")
	}
	if r.Status().BackendKind != "classic" {
		t.Fatalf("Status().BackendKind = %q, want classic", r.Status().BackendKind)
	}
}

func TestUpdateBreakpointsInvalidatesDispatcherAndNotifiesBackend(t *testing.T) {
	opts := config.Default()
	opts.Backend = "classic"
	opts.Enabled = true
	r, err := New(opts, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := r.Initialize(&fakeHostRuntime{}, backend.Capabilities{}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	installed := r.UpdateBreakpoints("a.go", []breakpoint.Spec{{Line: 10}})
	if len(installed) != 1 || installed[0].Line != 10 {
		t.Fatalf("unexpected installed breakpoints: %+v", installed)
	}

	stats := r.Stats()
	if stats.Dispatch.Total != 0 {
		t.Fatalf("expected no dispatch calls yet, got %+v", stats.Dispatch)
	}

	dec := r.Dispatcher.Dispatch(dispatch.Frame{File: "a.go", Line: 10, Thread: 1})
	if !dec.ShouldTrace {
		t.Fatalf("expected dispatcher to see the new breakpoint, got %+v", dec)
	}
}

func TestShutdownClearsStateAndDisablesDispatcher(t *testing.T) {
	opts := config.Default()
	opts.Backend = "classic"
	opts.Enabled = true
	r, err := New(opts, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	host := &fakeHostRuntime{}
	if err := r.Initialize(host, backend.Capabilities{}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	r.UpdateBreakpoints("a.go", []breakpoint.Spec{{Line: 10}})

	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if r.Dispatcher.Enabled() {
		t.Fatal("expected dispatcher disabled after shutdown")
	}
	if host.installed {
		t.Fatal("expected host classic trace removed after shutdown")
	}
	if len(r.Breakpoints.Files()) != 0 {
		t.Fatal("expected breakpoints cleared after shutdown")
	}
}

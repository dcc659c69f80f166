// Package dapfacade is the DAP-shaped call-in contract the selective
// tracing engine exposes: set_breakpoints, stack_trace, variables,
// evaluate, and the event stream a client drives through the DAP wire
// layer (explicitly out of scope for this core). Everything this package
// cannot answer on its own — rendering an actual stack trace, walking real
// variable values — is delegated to an injected DebuggerHost, never
// implemented here.
package dapfacade

import (
	"github.com/google/uuid"

	"github.com/tracecore/tracecore/backend"
	"github.com/tracecore/tracecore/breakpoint"
	"github.com/tracecore/tracecore/condition"
	"github.com/tracecore/tracecore/dispatch"
	"github.com/tracecore/tracecore/threadinfo"
)

// DebuggerHost is the seam into the underlying debugger implementation and
// process/launcher orchestration — both explicit non-goals of this core.
// A real DAP server implements this; this package only calls into it.
type DebuggerHost interface {
	StackTrace(thread ThreadID) (StackTrace, error)
	Scopes(frame FrameID) ([]Scope, error)
	Variables(ref VarRef) ([]Variable, error)
	FrameLocals(frame FrameID) (map[string]interface{}, error)
	SetVariable(ref VarRef, name, valueText string) (Variable, error)
	ExceptionInfo(thread ThreadID) (ExceptionDetails, error)
}

// Session fronts one debugged process: a stable id, the breakpoint
// collection and gate/backend it drives, and the injected host that
// answers stack/variable questions.
type Session struct {
	ID ID

	host            DebuggerHost
	breakpoints     *breakpoint.Collection
	funcBreakpoints *breakpoint.FunctionBreakpoints
	dispatcher      *dispatch.Dispatcher
	conditions      *condition.Evaluator
	backend         backend.Backend
	threads         *threadinfo.Registry

	onEvent EventHandler
}

// ID is an opaque session identifier, generated once per Session.
type ID string

// NewSession wires a Session to its breakpoint collection, dispatcher,
// condition evaluator, backend, thread registry, and the host that answers
// stack/variable queries.
func NewSession(host DebuggerHost, breakpoints *breakpoint.Collection, funcBreakpoints *breakpoint.FunctionBreakpoints, dispatcher *dispatch.Dispatcher, conditions *condition.Evaluator, be backend.Backend, threads *threadinfo.Registry) *Session {
	return &Session{
		ID:              ID(uuid.NewString()),
		host:            host,
		breakpoints:     breakpoints,
		funcBreakpoints: funcBreakpoints,
		dispatcher:      dispatcher,
		conditions:      conditions,
		backend:         be,
		threads:         threads,
	}
}

// SetEventHandler registers the callback that receives this session's
// event stream.
func (s *Session) SetEventHandler(h EventHandler) { s.onEvent = h }

func (s *Session) emit(evt Event) {
	if s.onEvent != nil {
		s.onEvent(evt)
	}
}

// SetBreakpoints replaces the breakpoint set for file, the DAP
// setBreakpoints request's full-replace semantics, and invalidates the
// dispatcher's cached line list for the file.
func (s *Session) SetBreakpoints(file string, specs []breakpoint.Spec) []*breakpoint.Breakpoint {
	installed := s.breakpoints.SetForFile(file, specs)

	lines := make([]int, len(installed))
	for i, bp := range installed {
		lines[i] = bp.Line
	}
	s.dispatcher.InvalidateFile(file)
	if s.backend != nil {
		s.backend.UpdateBreakpoints(file, lines)
	}
	return installed
}

// StackTrace delegates to the injected host.
func (s *Session) StackTrace(thread ThreadID) (StackTrace, error) {
	return s.host.StackTrace(thread)
}

// Scopes delegates to the injected host.
func (s *Session) Scopes(frame FrameID) ([]Scope, error) {
	return s.host.Scopes(frame)
}

// Variables delegates to the injected host.
func (s *Session) Variables(ref VarRef) ([]Variable, error) {
	return s.host.Variables(ref)
}

// SetVariable delegates to the injected host, which owns the actual write
// into the debugged process's memory.
func (s *Session) SetVariable(ref VarRef, name, valueText string) (Variable, error) {
	return s.host.SetVariable(ref, name, valueText)
}

// ExceptionInfo delegates to the injected host.
func (s *Session) ExceptionInfo(thread ThreadID) (ExceptionDetails, error) {
	return s.host.ExceptionInfo(thread)
}

// SetFunctionBreakpoints replaces the function-name breakpoint set the
// dispatcher's gate consults, DAP's setFunctionBreakpoints full-replace
// semantics.
func (s *Session) SetFunctionBreakpoints(specs []breakpoint.FunctionSpec) []breakpoint.ID {
	return s.funcBreakpoints.SetAll(specs)
}

// SetExceptionBreakpoints forwards the requested exception filter categories
// to the active backend.
func (s *Session) SetExceptionBreakpoints(filters []string) error {
	return s.backend.SetExceptionBreakpoints(filters)
}

// Continue clears thread's single-step mode, letting it run until the next
// breakpoint.
func (s *Session) Continue(thread ThreadID) error {
	s.threads.SetStepMode(threadinfo.ID(thread), "")
	return s.backend.SetStepping("")
}

// Next puts thread into line-step mode, the DAP "next" (step over) request.
func (s *Session) Next(thread ThreadID) error {
	return s.step(thread, "next")
}

// StepIn puts thread into step-into mode.
func (s *Session) StepIn(thread ThreadID) error {
	return s.step(thread, "step_in")
}

// StepOut puts thread into step-out mode.
func (s *Session) StepOut(thread ThreadID) error {
	return s.step(thread, "step_out")
}

func (s *Session) step(thread ThreadID, mode string) error {
	s.threads.SetStepMode(threadinfo.ID(thread), mode)
	return s.backend.SetStepping(mode)
}

// Evaluate compiles and runs an arbitrary watch/REPL expression against a
// frame's locals, reusing the same condition.Evaluator the breakpoint gate
// uses so caching and fallback-on-error semantics stay identical between
// breakpoint conditions and client-driven evaluation requests.
func (s *Session) Evaluate(frame FrameID, expression string) (condition.Result, error) {
	locals, err := s.host.FrameLocals(frame)
	if err != nil {
		return condition.Result{}, err
	}
	return s.conditions.Evaluate(expression, locals), nil
}

// NotifyStopped emits a Stopped event for thread, the way a breakpoint hit
// or step completion does.
func (s *Session) NotifyStopped(thread ThreadID, reason string) {
	s.emit(Event{Type: EventStopped, ThreadID: thread, Reason: reason})
}

// NotifyTerminated emits a Terminated event.
func (s *Session) NotifyTerminated() {
	s.emit(Event{Type: EventTerminated})
}

// NotifyThread emits a Thread lifecycle event.
func (s *Session) NotifyThread(thread ThreadID, reason string) {
	s.emit(Event{Type: EventThread, ThreadID: thread, Reason: reason})
}

// NotifyOutput emits captured process output.
func (s *Session) NotifyOutput(text string) {
	s.emit(Event{Type: EventStdout, Text: text})
}

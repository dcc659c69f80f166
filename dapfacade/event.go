package dapfacade

// EventType enumerates the events a session can emit, mirroring the
// teacher's debug.EventType (Stopped/Terminated/Thread/Stdout/Exception).
type EventType string

const (
	EventStopped    EventType = "stopped"
	EventTerminated EventType = "terminated"
	EventThread     EventType = "thread"
	EventStdout     EventType = "output"
	EventException  EventType = "exception"
)

// Event is a single notification pushed out of the engine toward the DAP
// wire layer, which owns translating it into a protocol message. This core
// never touches the wire format itself.
type Event struct {
	Type     EventType
	ThreadID ThreadID
	Reason   string
	Text     string
}

// EventHandler receives events as they occur. The DAP wire layer (out of
// scope here) implements this to forward events to a debug client.
type EventHandler func(Event)

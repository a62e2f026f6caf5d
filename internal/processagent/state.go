// Package processagent wraps OS processes for the supervisor. A process is
// spawned with piped stdout and stderr, and everything that happens to it is
// reported as a stream of events: output chunks, an exit, or a fault.
package processagent

import "fmt"

// Kind is the event type.
type Kind string

const (
	// KindChunk carries bytes read from stdout or stderr.
	KindChunk Kind = "chunk"
	// KindExit reports process exit after both pipes have drained.
	KindExit Kind = "exit"
	// KindFault reports an OS-level error after the process was created.
	KindFault Kind = "fault"
)

// Stream identifies an output pipe.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Event is something that happened to a spawned process.
type Event struct {
	Kind Kind

	// Stream and Data are set for KindChunk. Data is owned by the receiver.
	Stream Stream
	Data   []byte

	// Code is set for KindExit when the OS reported an exit code. It is nil
	// when the process was terminated by a signal.
	Code *int

	// Err is set for KindFault.
	Err error
}

func (e Event) String() string {
	switch e.Kind {
	case KindChunk:
		return fmt.Sprintf("chunk(%s, %d bytes)", e.Stream, len(e.Data))
	case KindExit:
		if e.Code == nil {
			return "exit(signal)"
		}
		return fmt.Sprintf("exit(%d)", *e.Code)
	case KindFault:
		return fmt.Sprintf("fault(%v)", e.Err)
	}
	return string(e.Kind)
}

// Chunk returns a chunk event.
func Chunk(stream Stream, data []byte) Event {
	return Event{Kind: KindChunk, Stream: stream, Data: data}
}

// Exit returns an exit event with the given code.
func Exit(code int) Event {
	return Event{Kind: KindExit, Code: &code}
}

// Signaled returns an exit event without a code.
func Signaled() Event {
	return Event{Kind: KindExit}
}

// Fault returns a fault event.
func Fault(err error) Event {
	return Event{Kind: KindFault, Err: err}
}

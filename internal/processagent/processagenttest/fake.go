// Package processagenttest provides in-memory process handles for tests.
package processagenttest

import (
	"errors"
	"os"
	"sync"

	"github.com/tessro/acm/internal/event"
	"github.com/tessro/acm/internal/processagent"
)

// Handle is a scripted processagent.Handle. Tests drive it with Emit.
type Handle struct {
	pid     int
	emitter *event.Emitter[processagent.Event]

	mu sync.Mutex
	// +checklocks:mu
	signals []os.Signal
	// +checklocks:mu
	signalErr error
}

var _ processagent.Handle = (*Handle)(nil)

// NewHandle returns a handle reporting pid.
func NewHandle(pid int) *Handle {
	return &Handle{pid: pid, emitter: event.NewBuffered[processagent.Event]()}
}

// PID implements processagent.Handle.
func (h *Handle) PID() int { return h.pid }

// OnEvent implements processagent.Handle.
func (h *Handle) OnEvent(fn func(processagent.Event)) { h.emitter.OnEvent(fn) }

// Signal records sig and returns the error set by FailSignals.
func (h *Handle) Signal(sig os.Signal) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.signalErr != nil {
		return h.signalErr
	}
	h.signals = append(h.signals, sig)
	return nil
}

// FailSignals makes subsequent Signal calls return err.
func (h *Handle) FailSignals(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.signalErr = err
}

// Signals returns the signals received so far.
func (h *Handle) Signals() []os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]os.Signal(nil), h.signals...)
}

// Emit delivers ev to listeners.
func (h *Handle) Emit(ev processagent.Event) { h.emitter.Emit(ev) }

// Stdout emits a stdout chunk.
func (h *Handle) Stdout(s string) { h.Emit(processagent.Chunk(processagent.Stdout, []byte(s))) }

// Stderr emits a stderr chunk.
func (h *Handle) Stderr(s string) { h.Emit(processagent.Chunk(processagent.Stderr, []byte(s))) }

// Exit emits an exit event with code.
func (h *Handle) Exit(code int) { h.Emit(processagent.Exit(code)) }

// ErrSpawn is returned by a Spawner with no handles left.
var ErrSpawn = errors.New("spawn failed")

// Spawner hands out handles with increasing pids and records every spec.
type Spawner struct {
	mu sync.Mutex
	// +checklocks:mu
	next int
	// +checklocks:mu
	specs []processagent.Spec
	// +checklocks:mu
	handles []*Handle
	// +checklocks:mu
	err error
}

var _ processagent.Spawner = (*Spawner)(nil)

// NewSpawner returns a Spawner whose first pid is firstPID.
func NewSpawner(firstPID int) *Spawner {
	return &Spawner{next: firstPID}
}

// Spawn implements processagent.Spawner.
func (s *Spawner) Spawn(spec processagent.Spec) (processagent.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specs = append(s.specs, spec)
	if s.err != nil {
		return nil, s.err
	}
	h := NewHandle(s.next)
	s.next++
	s.handles = append(s.handles, h)
	return h, nil
}

// Fail makes subsequent Spawn calls return err.
func (s *Spawner) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Specs returns every spec passed to Spawn.
func (s *Spawner) Specs() []processagent.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]processagent.Spec(nil), s.specs...)
}

// Handle returns the handle spawned with pid, or nil.
func (s *Spawner) Handle(pid int) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.handles {
		if h.pid == pid {
			return h
		}
	}
	return nil
}

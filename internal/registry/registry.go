// Package registry tracks spawned agent processes in memory.
//
// Each entry is driven by the events of its process handle: output chunks
// are appended, and the first exit or fault moves the entry to a terminal
// status. Entries are only removed by RemoveTerminal.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/tessro/acm/internal/backend"
	"github.com/tessro/acm/internal/processagent"
)

// Errors returned by registry operations.
var (
	ErrNotFound     = errors.New("process not found")
	ErrDuplicatePID = errors.New("pid is already tracked by a running process")
)

// Stderr annotations.
const (
	killedNote = "\nProcess terminated by user"
	faultNote  = "\nProcess error: "
)

// Status is the lifecycle state of a tracked process.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Info is the immutable description of a tracked process.
type Info struct {
	Agent      backend.Agent
	Prompt     string
	WorkFolder string
	Model      string
	StartTime  time.Time
}

// Snapshot is a consistent copy of an entry.
type Snapshot struct {
	PID int
	Info
	Status   Status
	ExitCode *int
	Stdout   []byte
	Stderr   []byte
}

// Summary is the minimal view returned by List.
type Summary struct {
	PID    int           `json:"pid"`
	Agent  backend.Agent `json:"agent"`
	Status Status        `json:"status"`
}

type entry struct {
	pid    int
	handle processagent.Handle
	info   Info

	stdout   bytes.Buffer
	stderr   bytes.Buffer
	status   Status
	exitCode *int

	// done is closed on the first terminal transition.
	done chan struct{}
}

func (e *entry) finish(status Status) {
	e.status = status
	close(e.done)
}

func (e *entry) snapshot() Snapshot {
	s := Snapshot{
		PID:    e.pid,
		Info:   e.info,
		Status: e.status,
		Stdout: bytes.Clone(e.stdout.Bytes()),
		Stderr: bytes.Clone(e.stderr.Bytes()),
	}
	if e.exitCode != nil {
		code := *e.exitCode
		s.ExitCode = &code
	}
	return s
}

// Registry is the table of tracked processes keyed by pid.
type Registry struct {
	mu sync.Mutex
	// +checklocks:mu
	entries map[int]*entry
	// +checklocks:mu
	order []int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[int]*entry)}
}

// Track adds a running entry for h and subscribes to its events. The entry
// exists when Track returns. A terminal entry with the same pid (the OS
// reused it) is replaced.
func (r *Registry) Track(h processagent.Handle, info Info) error {
	pid := h.PID()
	e := &entry{
		pid:    pid,
		handle: h,
		info:   info,
		status: StatusRunning,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	if old, ok := r.entries[pid]; ok {
		if !old.status.Terminal() {
			r.mu.Unlock()
			return fmt.Errorf("%w: %d", ErrDuplicatePID, pid)
		}
		slog.Warn("replacing finished process with reused pid", "component", "registry", "pid", pid)
		r.order = slices.DeleteFunc(r.order, func(p int) bool { return p == pid })
	}
	r.entries[pid] = e
	r.order = append(r.order, pid)
	r.mu.Unlock()

	// Subscribe outside the lock: buffered events are replayed synchronously
	// and apply takes the lock.
	h.OnEvent(func(ev processagent.Event) { r.apply(e, ev) })
	return nil
}

// apply is the state-transition function for one entry.
func (r *Registry) apply(e *entry, ev processagent.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case processagent.KindChunk:
		if ev.Stream == processagent.Stderr {
			e.stderr.Write(ev.Data)
		} else {
			e.stdout.Write(ev.Data)
		}

	case processagent.KindExit:
		if ev.Code != nil {
			code := *ev.Code
			e.exitCode = &code
		}
		if e.status.Terminal() {
			return
		}
		if ev.Code != nil && *ev.Code == 0 {
			e.finish(StatusCompleted)
		} else {
			e.finish(StatusFailed)
		}
		slog.Debug("process finished", "component", "registry", "pid", e.pid, "status", e.status)

	case processagent.KindFault:
		if e.status.Terminal() {
			slog.Debug("ignoring fault on finished process", "component", "registry", "pid", e.pid, "error", ev.Err)
			return
		}
		e.stderr.WriteString(faultNote + errorText(ev.Err))
		e.finish(StatusFailed)
		slog.Warn("process fault", "component", "registry", "pid", e.pid, "error", ev.Err)
	}
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// Get returns a snapshot of the entry for pid.
func (r *Registry) Get(pid int) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[pid]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return e.snapshot(), nil
}

// Has reports whether pid is tracked.
func (r *Registry) Has(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[pid]
	return ok
}

// List returns a summary of every entry in insertion order.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Summary, 0, len(r.order))
	for _, pid := range r.order {
		e := r.entries[pid]
		out = append(out, Summary{PID: pid, Agent: e.info.Agent, Status: e.status})
	}
	return out
}

// Done returns a channel that is closed once pid reaches a terminal status.
// The channel is already closed for terminal entries.
func (r *Registry) Done(pid int) (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[pid]
	if !ok {
		return nil, ErrNotFound
	}
	return e.done, nil
}

// Kill signals a running entry and marks it failed without waiting for the
// process to exit. It reports whether a signal was sent; terminal entries are
// left alone and their status is returned.
func (r *Registry) Kill(pid int, sig os.Signal) (Status, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[pid]
	if !ok {
		return "", false, ErrNotFound
	}
	if e.status.Terminal() {
		return e.status, false, nil
	}

	if err := e.handle.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return e.status, false, fmt.Errorf("signal pid %d: %w", pid, err)
	}
	e.stderr.WriteString(killedNote)
	e.finish(StatusFailed)
	slog.Info("process terminated", "component", "registry", "pid", pid, "signal", sig)
	return e.status, true, nil
}

// RemoveTerminal deletes every completed or failed entry and returns the
// removed pids in ascending order.
func (r *Registry) RemoveTerminal() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := []int{}
	kept := r.order[:0]
	for _, pid := range r.order {
		if r.entries[pid].status.Terminal() {
			delete(r.entries, pid)
			removed = append(removed, pid)
			continue
		}
		kept = append(kept, pid)
	}
	r.order = kept
	slices.Sort(removed)
	return removed
}

// Running returns the pids of entries still running.
func (r *Registry) Running() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pids []int
	for _, pid := range r.order {
		if r.entries[pid].status == StatusRunning {
			pids = append(pids, pid)
		}
	}
	return pids
}

// Len returns the number of tracked entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

package processagent

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/tessro/acm/internal/event"
	"github.com/tessro/acm/internal/logging"
)

// Errors returned by process operations.
var (
	ErrNoPID = errors.New("process has no pid")
)

// readBufferSize is the pipe read size; one read becomes one chunk event.
const readBufferSize = 32 * 1024

// Spec describes a process to spawn.
type Spec struct {
	// Path is the executable. Bare names are looked up on PATH.
	Path string
	Args []string
	// Dir is the working directory.
	Dir string
	// Env is the process environment; nil inherits the current environment.
	Env []string
}

// Handle is a live, spawned process.
type Handle interface {
	PID() int
	// Signal sends sig to the process. It returns os.ErrProcessDone once the
	// process has been reaped.
	Signal(sig os.Signal) error
	// OnEvent registers a listener. Events emitted before the first listener
	// is registered are replayed to it.
	OnEvent(fn func(Event))
}

// Spawner starts processes.
type Spawner interface {
	Spawn(spec Spec) (Handle, error)
}

// ExecSpawner spawns real OS processes with os/exec.
type ExecSpawner struct{}

var _ Spawner = ExecSpawner{}

// Spawn starts the process described by spec. Stdin is the null device and
// stdout/stderr are captured. On unix the process leads its own process group.
func (ExecSpawner) Spawn(spec Spec) (Handle, error) {
	return Start(spec)
}

// Process is a Handle backed by exec.Cmd.
type Process struct {
	cmd     *exec.Cmd
	pid     int
	emitter *event.Emitter[Event]
	log     *slog.Logger

	mu sync.Mutex
	// +checklocks:mu
	exited bool

	done chan struct{}
}

var _ Handle = (*Process)(nil)

// Start spawns a process and begins pumping its output.
func Start(spec Spec) (*Process, error) {
	log := slog.With("component", "processagent", "path", spec.Path)

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	// Stdin left nil: the child reads from the null device.
	setupProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	log.Debug("starting process", "dir", spec.Dir, "args", len(spec.Args))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start process: %w", err)
	}
	if cmd.Process == nil || cmd.Process.Pid <= 0 {
		_ = cmd.Wait()
		return nil, ErrNoPID
	}

	p := &Process{
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		emitter: event.NewBuffered[Event](),
		log:     log.With("pid", cmd.Process.Pid),
		done:    make(chan struct{}),
	}

	var pumps sync.WaitGroup
	pumps.Add(2)
	go p.pump(&pumps, Stdout, stdout)
	go p.pump(&pumps, Stderr, stderr)
	go p.wait(&pumps)

	p.log.Info("process started")
	return p, nil
}

// PID returns the OS process id.
func (p *Process) PID() int { return p.pid }

// OnEvent registers an event listener.
func (p *Process) OnEvent(fn func(Event)) { p.emitter.OnEvent(fn) }

// Done is closed after the exit or fault event has been emitted.
func (p *Process) Done() <-chan struct{} { return p.done }

// Signal sends sig to the process group, falling back to the process itself.
func (p *Process) Signal(sig os.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return os.ErrProcessDone
	}
	sig = platformSignal(sig)
	if err := signalGroup(p.pid, sig); err == nil {
		return nil
	}
	return p.cmd.Process.Signal(sig)
}

func (p *Process) pump(wg *sync.WaitGroup, stream Stream, r io.Reader) {
	defer wg.Done()
	defer logging.LogPanic("processagent-"+string(stream), nil)

	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			p.emitter.Emit(Chunk(stream, data))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				p.log.Debug("pipe read ended", "stream", stream, "error", err)
			}
			return
		}
	}
}

// wait reaps the process once both pipes have drained so the exit event
// always follows the last chunk.
func (p *Process) wait(pumps *sync.WaitGroup) {
	defer close(p.done)
	defer logging.LogPanic("processagent-wait", nil)

	pumps.Wait()
	err := p.cmd.Wait()

	p.mu.Lock()
	p.exited = true
	p.mu.Unlock()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		p.log.Info("process exited", "code", 0)
		p.emitter.Emit(Exit(0))
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		if code < 0 {
			p.log.Info("process terminated by signal", "state", exitErr.String())
			p.emitter.Emit(Signaled())
			return
		}
		p.log.Info("process exited", "code", code)
		p.emitter.Emit(Exit(code))
	default:
		p.log.Warn("process wait failed", "error", err)
		p.emitter.Emit(Fault(err))
	}
}

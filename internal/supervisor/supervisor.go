// Package supervisor implements the process operations acm exposes as tools:
// start an agent CLI, list, inspect, wait on, kill, and clean up processes.
package supervisor

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/tessro/acm/internal/backend"
	"github.com/tessro/acm/internal/paths"
	"github.com/tessro/acm/internal/processagent"
	"github.com/tessro/acm/internal/registry"
	"github.com/tessro/acm/internal/version"
)

// DefaultWaitTimeout applies when neither the caller nor the config sets one.
const DefaultWaitTimeout = 180 * time.Second

// timeFormat matches the millisecond UTC timestamps MCP clients expect.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// terminateSignal is sent by Kill and Shutdown.
var terminateSignal os.Signal = syscall.SIGTERM

// Locator returns the executable path for an agent CLI.
type Locator func(agent backend.Agent) (string, error)

// Options configures a Supervisor. Zero values pick defaults.
type Options struct {
	Backends *backend.Set
	Spawner  processagent.Spawner
	Registry *registry.Registry
	Locate   Locator

	// Banner receives the one-line startup notice on the first successful
	// start. Defaults to os.Stderr.
	Banner  io.Writer
	Version string

	DefaultWaitTimeout time.Duration
	Now                func() time.Time
}

// Supervisor owns the process registry and the operations on it.
type Supervisor struct {
	backends *backend.Set
	spawner  processagent.Spawner
	registry *registry.Registry
	locate   Locator

	banner      io.Writer
	bannerOnce  sync.Once
	version     string
	startedAt   time.Time
	waitTimeout time.Duration
	now         func() time.Time

	log *slog.Logger
}

// New creates a Supervisor.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		backends:    opts.Backends,
		spawner:     opts.Spawner,
		registry:    opts.Registry,
		locate:      opts.Locate,
		banner:      opts.Banner,
		version:     opts.Version,
		waitTimeout: opts.DefaultWaitTimeout,
		now:         opts.Now,
		log:         slog.With("component", "supervisor"),
	}
	if s.backends == nil {
		s.backends = backend.NewSet(backend.Options{})
	}
	if s.spawner == nil {
		s.spawner = processagent.ExecSpawner{}
	}
	if s.registry == nil {
		s.registry = registry.New()
	}
	if s.locate == nil {
		s.locate = func(agent backend.Agent) (string, error) {
			return paths.ResolveCLI(string(agent), "")
		}
	}
	if s.banner == nil {
		s.banner = os.Stderr
	}
	if s.version == "" {
		s.version = version.Version
	}
	if s.waitTimeout <= 0 {
		s.waitTimeout = DefaultWaitTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.startedAt = s.now()
	return s
}

// Registry returns the underlying process registry.
func (s *Supervisor) Registry() *registry.Registry { return s.registry }

// Version returns the server version reported in the banner.
func (s *Supervisor) Version() string { return s.version }

// StartedAt returns when the supervisor was created.
func (s *Supervisor) StartedAt() time.Time { return s.startedAt }

func (s *Supervisor) announce() {
	s.bannerOnce.Do(func() {
		fmt.Fprintf(s.banner, "%s v%s started at %s\n",
			version.ServerName, s.version, s.startedAt.UTC().Format(timeFormat))
	})
}

// Shutdown terminates every running process. Agents run in their own process
// groups, so they would otherwise outlive the server.
func (s *Supervisor) Shutdown() {
	for _, pid := range s.registry.Running() {
		if _, _, err := s.registry.Kill(pid, terminateSignal); err != nil {
			s.log.Warn("failed to terminate process on shutdown", "pid", pid, "error", err)
			continue
		}
		s.log.Info("terminated process on shutdown", "pid", pid)
	}
}

// displayName is the agent name used in caller-facing messages.
func displayName(agent backend.Agent) string {
	switch agent {
	case backend.Codex:
		return "Codex"
	case backend.Gemini:
		return "Gemini"
	default:
		return "Claude"
	}
}

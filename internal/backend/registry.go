package backend

import (
	"fmt"
	"slices"
	"sync"
)

// Options configures the backends in a Set.
type Options struct {
	// ClaudeOutputFormat is "json" (default) or "stream-json".
	ClaudeOutputFormat string

	// Aliases extends the built-in model aliases for claude.
	Aliases Aliases
}

// Set holds one backend per agent.
type Set struct {
	mu sync.RWMutex
	// +checklocks:mu
	backends map[Agent]Backend
}

// NewSet creates a Set with the claude, codex, and gemini backends.
func NewSet(opts Options) *Set {
	s := &Set{backends: make(map[Agent]Backend)}
	s.Register(&ClaudeBackend{OutputFormat: opts.ClaudeOutputFormat, Aliases: opts.Aliases})
	s.Register(&CodexBackend{})
	s.Register(&GeminiBackend{})
	return s
}

// Register adds or replaces the backend for b.Name().
func (s *Set) Register(b Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends[b.Name()] = b
}

// Get returns the backend for an agent.
func (s *Set) Get(agent Agent) (Backend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.backends[agent]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s", agent)
	}
	return b, nil
}

// ForModel returns the backend selected for a model name.
func (s *Set) ForModel(model string) (Backend, error) {
	return s.Get(SelectAgent(model))
}

// List returns all registered agents, sorted.
func (s *Set) List() []Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agents := make([]Agent, 0, len(s.backends))
	for agent := range s.backends {
		agents = append(agents, agent)
	}
	slices.Sort(agents)
	return agents
}

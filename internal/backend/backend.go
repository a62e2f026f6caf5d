// Package backend provides an abstraction layer for the agent CLIs acm can supervise.
// Each backend knows how to build the argument vector for its CLI and how to
// normalize the output that CLI writes to stdout.
package backend

// Agent identifies an agent CLI flavor.
type Agent string

// Supported agents.
const (
	Claude Agent = "claude"
	Codex  Agent = "codex"
	Gemini Agent = "gemini"
)

// Agents lists the supported agents in display order.
var Agents = []Agent{Claude, Codex, Gemini}

func (a Agent) String() string { return string(a) }

// Valid reports whether a is a supported agent.
func (a Agent) Valid() bool {
	switch a {
	case Claude, Codex, Gemini:
		return true
	}
	return false
}

// Backend defines the interface for agent CLI implementations.
type Backend interface {
	// Name returns the agent this backend drives.
	Name() Agent

	// BuildArgs returns the CLI arguments for one non-interactive invocation.
	// It has no side effects.
	BuildArgs(inv Invocation) []string

	// ParseOutput normalizes accumulated stdout. It never fails; input it
	// cannot make sense of yields nil.
	ParseOutput(stdout []byte) Result
}

// Invocation contains parameters for building a CLI invocation.
type Invocation struct {
	// Prompt is passed to the CLI verbatim.
	Prompt string

	// Model is the caller-supplied model name, possibly an alias.
	Model string

	// SessionID resumes a prior conversation when set.
	SessionID string

	// ReasoningEffort is a validated codex reasoning effort (low, medium, high).
	ReasoningEffort string
}

// Command is a fully resolved CLI invocation.
type Command struct {
	Agent Agent
	Path  string
	Args  []string
}

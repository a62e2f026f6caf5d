package backend

import (
	"errors"
	"fmt"
	"strings"
)

// builtinAliases maps model shorthands to fully qualified model identifiers.
var builtinAliases = map[string]string{
	"haiku": "claude-3-5-haiku-20241022",
}

// reasoningEfforts is the closed set of codex reasoning efforts.
var reasoningEfforts = []string{"low", "medium", "high"}

// ErrReasoningEffortUnsupported is returned when a reasoning effort is given
// for an agent other than codex.
var ErrReasoningEffortUnsupported = errors.New("reasoning_effort is only supported for codex models")

// ErrInvalidReasoningEffort is returned for values outside low, medium, high.
var ErrInvalidReasoningEffort = errors.New("invalid reasoning_effort")

// SelectAgent chooses the agent for a model name. The first matching rule wins:
// "gpt-" selects codex, "gemini" selects gemini, anything else selects claude.
func SelectAgent(model string) Agent {
	switch {
	case strings.HasPrefix(model, "gpt-"):
		return Codex
	case strings.HasPrefix(model, "gemini"):
		return Gemini
	default:
		return Claude
	}
}

// Aliases extends the built-in model aliases. Built-in entries cannot be overridden.
type Aliases map[string]string

// Resolve returns the model identifier for name. Lookup is case-sensitive and
// unknown names pass through unchanged.
func (a Aliases) Resolve(name string) string {
	if full, ok := builtinAliases[name]; ok {
		return full
	}
	if full, ok := a[name]; ok {
		return full
	}
	return name
}

// ResolveModelAlias resolves name against the built-in alias table.
func ResolveModelAlias(name string) string {
	return Aliases(nil).Resolve(name)
}

// ReasoningEffort validates a reasoning effort for the given agent.
// A blank value means no effort is applied and is never an error.
func ReasoningEffort(agent Agent, value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", nil
	}
	if agent != Codex {
		return "", ErrReasoningEffortUnsupported
	}
	for _, allowed := range reasoningEfforts {
		if normalized == allowed {
			return normalized, nil
		}
	}
	return "", &InvalidEffortError{Value: value}
}

// InvalidEffortError reports a reasoning effort outside the accepted set.
// It matches ErrInvalidReasoningEffort with errors.Is.
type InvalidEffortError struct {
	Value string
}

func (e *InvalidEffortError) Error() string {
	return fmt.Sprintf("Invalid reasoning_effort: %s. Must be one of: %s", e.Value, strings.Join(reasoningEfforts, ", "))
}

func (e *InvalidEffortError) Is(target error) bool {
	return target == ErrInvalidReasoningEffort
}

// GetReasoningEffort validates value for the agent selected by model.
func GetReasoningEffort(model, value string) (string, error) {
	return ReasoningEffort(SelectAgent(model), value)
}

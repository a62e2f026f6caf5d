package backend

import (
	"bytes"
	"encoding/json"
)

// Result is the normalized output of one agent process.
// The concrete type is *ClaudeResult, *CodexResult, or *GeminiResult.
type Result interface {
	Agent() Agent
	// Session returns the session id the agent reported, if any.
	Session() string
}

// Common holds the fields every result shares.
type Common struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// Session returns the reported session id.
func (c Common) Session() string { return c.SessionID }

// ToolCall is one sub-tool invocation recorded in an agent's output.
type ToolCall struct {
	Tool     string          `json:"tool"`
	Server   string          `json:"server,omitempty"`
	Command  string          `json:"command,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
	Output   json.RawMessage `json:"output,omitempty"`
	ExitCode *int            `json:"exit_code,omitempty"`
}

// ClaudeResult is the normalized claude output.
//
// When claude ran in batch mode its single JSON object is kept verbatim and
// marshals back unchanged; Common is still filled from it where possible.
type ClaudeResult struct {
	Common
	Tools []ToolCall `json:"tools,omitempty"`

	legacy json.RawMessage
}

// Agent implements Result.
func (r *ClaudeResult) Agent() Agent { return Claude }

// Legacy reports whether r wraps a single batch-mode JSON object.
func (r *ClaudeResult) Legacy() bool { return r.legacy != nil }

// MarshalJSON implements json.Marshaler.
func (r *ClaudeResult) MarshalJSON() ([]byte, error) {
	if r.legacy != nil {
		return r.legacy, nil
	}
	type plain ClaudeResult
	return json.Marshal((*plain)(r))
}

// CodexResult is the normalized codex output.
type CodexResult struct {
	Common
	// TokenCount is the last token_count event seen, or JSON null.
	TokenCount json.RawMessage `json:"token_count"`
	Tools      []ToolCall      `json:"tools,omitempty"`
}

// Agent implements Result.
func (r *CodexResult) Agent() Agent { return Codex }

// MarshalJSON implements json.Marshaler.
func (r *CodexResult) MarshalJSON() ([]byte, error) {
	type plain CodexResult
	out := *r
	if len(out.TokenCount) == 0 {
		out.TokenCount = json.RawMessage("null")
	}
	return json.Marshal((*plain)(&out))
}

// GeminiResult is gemini's output object, passed through unchanged.
type GeminiResult struct {
	Common
	raw json.RawMessage
}

// Agent implements Result.
func (r *GeminiResult) Agent() Agent { return Gemini }

// MarshalJSON implements json.Marshaler.
func (r *GeminiResult) MarshalJSON() ([]byte, error) {
	return r.raw, nil
}

// singleObject returns data trimmed if it is exactly one JSON object.
func singleObject(data []byte) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

// jsonLines calls fn for each non-blank line of data. Lines are handed over
// raw; callers skip the ones they cannot decode.
func jsonLines(data []byte, fn func(line []byte)) {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
}

package backend

import (
	"encoding/json"
)

// StreamMessage is one event of claude's stream-json output.
type StreamMessage struct {
	Type      string         `json:"type"`              // "system", "assistant", "user", "result"
	Subtype   string         `json:"subtype,omitempty"` // For system messages: "init"
	SessionID string         `json:"session_id,omitempty"`
	Message   *NestedMessage `json:"message,omitempty"` // For assistant/user types
	Result    *string        `json:"result,omitempty"`  // For result type
	IsError   bool           `json:"is_error,omitempty"`
}

// NestedMessage contains the actual API message content.
type NestedMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
	Model   string         `json:"model,omitempty"`
}

// ContentBlock represents a single content item in a message.
type ContentBlock struct {
	Type      string          `json:"type"`                  // "text", "tool_use", "tool_result"
	Text      string          `json:"text,omitempty"`        // For text blocks
	ID        string          `json:"id,omitempty"`          // tool_use ID
	Name      string          `json:"name,omitempty"`        // Tool name
	Input     json.RawMessage `json:"input,omitempty"`       // Tool input as raw JSON
	Content   json.RawMessage `json:"content,omitempty"`     // tool_result content (string or array)
	ToolUseID string          `json:"tool_use_id,omitempty"` // Links result to tool_use
	IsError   bool            `json:"is_error,omitempty"`
}

// ParseStreamMessage parses one stream-json line. It returns nil, nil for
// empty lines.
func ParseStreamMessage(line []byte) (*StreamMessage, error) {
	if len(line) == 0 {
		return nil, nil
	}
	var msg StreamMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetToolUses returns all tool_use blocks from the message.
func (m *StreamMessage) GetToolUses() []ContentBlock {
	return m.blocks("tool_use")
}

// GetToolResults returns all tool_result blocks from the message.
func (m *StreamMessage) GetToolResults() []ContentBlock {
	return m.blocks("tool_result")
}

func (m *StreamMessage) blocks(kind string) []ContentBlock {
	if m.Message == nil {
		return nil
	}
	var out []ContentBlock
	for _, block := range m.Message.Content {
		if block.Type == kind {
			out = append(out, block)
		}
	}
	return out
}

// ToolResultOutput extracts the output of a tool_result content value.
// A string is returned as-is. For an array of content parts the first
// text-typed part wins; failing that the first part, then the whole value.
func ToolResultOutput(content json.RawMessage) json.RawMessage {
	if len(content) == 0 {
		return nil
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(content, &parts); err != nil {
		return content
	}
	for _, part := range parts {
		var p struct {
			Type string          `json:"type"`
			Text json.RawMessage `json:"text"`
		}
		if json.Unmarshal(part, &p) == nil && p.Type == "text" && len(p.Text) > 0 {
			return p.Text
		}
	}
	if len(parts) > 0 {
		return parts[0]
	}
	return content
}

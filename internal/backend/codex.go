package backend

import (
	"encoding/json"
	"log/slog"
)

// CodexBackend implements Backend for OpenAI Codex CLI.
type CodexBackend struct{}

// Compile-time check that CodexBackend implements Backend.
var _ Backend = (*CodexBackend)(nil)

// Name returns the backend identifier.
func (b *CodexBackend) Name() Agent { return Codex }

// BuildArgs returns the codex exec arguments. The prompt is the final
// positional argument.
func (b *CodexBackend) BuildArgs(inv Invocation) []string {
	args := []string{"exec"}
	if inv.SessionID != "" {
		args = append(args, "resume", inv.SessionID)
	}
	if inv.ReasoningEffort != "" {
		args = append(args, "-c", "model_reasoning_effort="+inv.ReasoningEffort)
	}
	if inv.Model != "" {
		args = append(args, "--model", inv.Model)
	}
	// Use full-auto mode for automated operation (workspace-write + on-request approval)
	args = append(args, "--full-auto", "--json", inv.Prompt)
	return args
}

// ParseOutput normalizes codex NDJSON output. Both the current item-based
// event protocol and the older msg envelope are understood.
func (b *CodexBackend) ParseOutput(stdout []byte) Result {
	if len(stdout) == 0 {
		return nil
	}

	var (
		res   CodexResult
		found bool
	)

	jsonLines(stdout, func(line []byte) {
		var ev codexEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			slog.Debug("skipping unparseable codex line", "len", len(line))
			return
		}

		// Legacy envelope: {"id": ..., "msg": {"type": ...}}
		if ev.Msg != nil {
			switch ev.Msg.Type {
			case "agent_message":
				res.Message = ev.Msg.Message
				found = true
			case "token_count":
				res.TokenCount = ev.rawMsg
				found = true
			}
			return
		}

		switch ev.Type {
		case "thread.started":
			if ev.ThreadID != "" {
				res.SessionID = ev.ThreadID
				found = true
			}
		case "token_count":
			res.TokenCount = json.RawMessage(append([]byte(nil), line...))
			found = true
		case "item.completed":
			if ev.Item == nil {
				return
			}
			switch ev.Item.kind() {
			case "agent_message", "assistant_message":
				res.Message = ev.Item.Text
				found = true
			case "mcp_tool_call":
				res.Tools = append(res.Tools, ToolCall{
					Tool:   ev.Item.Tool,
					Server: ev.Item.Server,
					Input:  ev.Item.Arguments,
					Output: ev.Item.Result,
				})
				found = true
			case "command_execution":
				call := ToolCall{
					Tool:     "command_execution",
					Command:  ev.Item.Command,
					ExitCode: ev.Item.ExitCode,
				}
				if ev.Item.AggregatedOutput != nil {
					out, _ := json.Marshal(*ev.Item.AggregatedOutput)
					call.Output = out
				}
				res.Tools = append(res.Tools, call)
				found = true
			case "reasoning":
				// never a candidate for the final message
			}
		}
	})

	if !found {
		return nil
	}
	return &res
}

// Codex protocol types

// codexEvent is one line of codex --json output.
type codexEvent struct {
	Type     string     `json:"type"`
	ThreadID string     `json:"thread_id,omitempty"`
	Item     *codexItem `json:"item,omitempty"`

	// Legacy envelope, filled by UnmarshalJSON.
	Msg    *codexEventMsg `json:"-"`
	rawMsg json.RawMessage
}

// UnmarshalJSON keeps the raw msg object so token_count events can be passed
// through untouched.
func (e *codexEvent) UnmarshalJSON(data []byte) error {
	type plain codexEvent
	var aux struct {
		plain
		RawMsg json.RawMessage `json:"msg,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = codexEvent(aux.plain)
	if len(aux.RawMsg) > 0 && string(aux.RawMsg) != "null" {
		var msg codexEventMsg
		if err := json.Unmarshal(aux.RawMsg, &msg); err != nil {
			return err
		}
		e.Msg = &msg
		e.rawMsg = aux.RawMsg
	}
	return nil
}

// codexEventMsg represents the inner event message of the legacy protocol.
type codexEventMsg struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// codexItem is the payload of item.* events. Older releases used item_type
// instead of type.
type codexItem struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	ItemType string `json:"item_type,omitempty"`
	Text     string `json:"text,omitempty"`

	// mcp_tool_call
	Server    string          `json:"server,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`

	// command_execution
	Command          string  `json:"command,omitempty"`
	AggregatedOutput *string `json:"aggregated_output,omitempty"`
	ExitCode         *int    `json:"exit_code,omitempty"`
}

func (i *codexItem) kind() string {
	if i.Type != "" {
		return i.Type
	}
	return i.ItemType
}

package backend

import (
	"encoding/json"
	"log/slog"
)

// ClaudeBackend implements the Backend interface for the Claude Code CLI.
type ClaudeBackend struct {
	// OutputFormat is "json" (default) or "stream-json".
	OutputFormat string

	// Aliases extends the built-in model aliases.
	Aliases Aliases
}

// Verify ClaudeBackend implements Backend interface.
var _ Backend = (*ClaudeBackend)(nil)

// Name returns the backend identifier.
func (b *ClaudeBackend) Name() Agent {
	return Claude
}

// BuildArgs returns the claude arguments for a one-shot print-mode run.
func (b *ClaudeBackend) BuildArgs(inv Invocation) []string {
	format := b.OutputFormat
	if format == "" {
		format = "json"
	}

	args := []string{"--dangerously-skip-permissions", "--output-format", format}
	// --verbose is required when using --output-format stream-json
	if format == "stream-json" {
		args = append(args, "--verbose")
	}
	if inv.SessionID != "" {
		args = append(args, "-r", inv.SessionID)
	}
	args = append(args, "-p", inv.Prompt)
	if inv.Model != "" {
		args = append(args, "--model", b.Aliases.Resolve(inv.Model))
	}
	return args
}

// ParseOutput normalizes claude stdout.
//
// A buffer holding a single JSON object is batch-mode output and is kept
// verbatim. Anything else is read as stream-json events; lines that do not
// decode are skipped.
func (b *ClaudeBackend) ParseOutput(stdout []byte) Result {
	if len(stdout) == 0 {
		return nil
	}
	if obj, ok := singleObject(stdout); ok {
		return parseClaudeLegacy(obj)
	}

	var (
		res     ClaudeResult
		found   bool
		pending = make(map[string]int) // tool_use id -> index in res.Tools
	)

	jsonLines(stdout, func(line []byte) {
		msg, err := ParseStreamMessage(line)
		if err != nil || msg == nil {
			slog.Debug("skipping unparseable claude line", "len", len(line))
			return
		}
		if msg.SessionID != "" {
			res.SessionID = msg.SessionID
			found = true
		}

		switch msg.Type {
		case "result":
			if msg.Result != nil {
				res.Message = *msg.Result
				found = true
			}
		case "assistant":
			for _, use := range msg.GetToolUses() {
				pending[use.ID] = len(res.Tools)
				res.Tools = append(res.Tools, ToolCall{Tool: use.Name, Input: use.Input})
				found = true
			}
		case "user":
			for _, tr := range msg.GetToolResults() {
				idx, ok := pending[tr.ToolUseID]
				if !ok {
					continue
				}
				res.Tools[idx].Output = ToolResultOutput(tr.Content)
				delete(pending, tr.ToolUseID)
			}
		}
	})

	if !found {
		return nil
	}
	return &res
}

func parseClaudeLegacy(obj json.RawMessage) Result {
	res := &ClaudeResult{legacy: obj}
	var fields struct {
		SessionID string `json:"session_id"`
		Result    string `json:"result"`
	}
	if json.Unmarshal(obj, &fields) == nil {
		res.SessionID = fields.SessionID
		res.Message = fields.Result
	}
	return res
}

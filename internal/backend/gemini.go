package backend

import "encoding/json"

// GeminiBackend implements Backend for the Gemini CLI.
type GeminiBackend struct{}

var _ Backend = (*GeminiBackend)(nil)

// Name returns the backend identifier.
func (b *GeminiBackend) Name() Agent { return Gemini }

// BuildArgs returns the gemini arguments. -y auto-approves tool use; the
// prompt is the final positional argument.
func (b *GeminiBackend) BuildArgs(inv Invocation) []string {
	args := []string{"-y", "--output-format", "stream-json"}
	if inv.SessionID != "" {
		args = append(args, "-r", inv.SessionID)
	}
	if inv.Model != "" {
		args = append(args, "--model", inv.Model)
	}
	return append(args, inv.Prompt)
}

// ParseOutput accepts only a single JSON object and passes it through.
// Unlike claude and codex there is no line-by-line fallback.
func (b *GeminiBackend) ParseOutput(stdout []byte) Result {
	obj, ok := singleObject(stdout)
	if !ok {
		return nil
	}
	res := &GeminiResult{raw: obj}
	var fields struct {
		SessionID      string `json:"session_id"`
		SessionIDCamel string `json:"sessionId"`
		Response       string `json:"response"`
	}
	if json.Unmarshal(obj, &fields) == nil {
		res.SessionID = fields.SessionID
		if res.SessionID == "" {
			res.SessionID = fields.SessionIDCamel
		}
		res.Message = fields.Response
	}
	return res
}

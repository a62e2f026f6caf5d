package mcpserver

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tessro/acm/internal/supervisor"
)

// nullID is the id of a response to a request whose id could not be read.
var nullID = json.RawMessage("null")

// envelope is the part of a JSON-RPC message acm inspects before handing it
// to the MCP server.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// notification reports whether the message expects no response.
func (e *envelope) notification() bool { return len(e.ID) == 0 }

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   rpcError        `json:"error"`
}

func encodeError(id json.RawMessage, code int, msg string) []byte {
	if len(id) == 0 {
		id = nullID
	}
	data, _ := json.Marshal(errorResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error:   rpcError{Code: code, Message: msg},
	})
	return data
}

// argError is a malformed tool argument.
type argError struct{ msg string }

func (e *argError) Error() string { return e.msg }

// errorCode maps a tool failure to its JSON-RPC error code. Unknown pids are
// reported as invalid params.
func errorCode(err error) int {
	var ae *argError
	if errors.As(err, &ae) {
		return mcp.INVALID_PARAMS
	}
	switch supervisor.CodeOf(err) {
	case supervisor.CodeInvalidParams, supervisor.CodeNotFound:
		return mcp.INVALID_PARAMS
	default:
		return mcp.INTERNAL_ERROR
	}
}

func isBatch(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

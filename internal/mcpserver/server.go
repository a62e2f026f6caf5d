// Package mcpserver exposes the supervisor as MCP tools over JSON-RPC 2.0.
//
// The MCP server from mcp-go answers the handshake, tools/list, and ping.
// acm inspects tools/call itself so supervisor errors keep their JSON-RPC
// error class instead of collapsing into internal errors.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tessro/acm/internal/supervisor"
	"github.com/tessro/acm/internal/version"
)

// Server dispatches JSON-RPC messages to the supervisor.
type Server struct {
	sup   *supervisor.Supervisor
	mcp   *server.MCPServer
	tools map[string]struct{}
	log   *slog.Logger
}

// New creates a Server for sup.
func New(sup *supervisor.Supervisor) *Server {
	s := &Server{
		sup: sup,
		mcp: server.NewMCPServer(
			version.ServerName,
			sup.Version(),
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		tools: make(map[string]struct{}),
		log:   slog.With("component", "mcpserver"),
	}
	s.registerTools()
	return s
}

// Supervisor returns the supervisor behind s.
func (s *Server) Supervisor() *supervisor.Supervisor { return s.sup }

type callErrorKey struct{}

// callError carries a tool failure out of the mcp-go handler.
type callError struct {
	mu  sync.Mutex
	err error
}

func (c *callError) set(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *callError) get() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// HandleMessage processes one JSON-RPC message and returns the encoded
// response, or nil when the message is a notification.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) []byte {
	if isBatch(raw) {
		return encodeError(nullID, mcp.INVALID_REQUEST, "Batch requests are not supported")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.Debug("unparseable message", "error", err)
		return encodeError(nullID, mcp.PARSE_ERROR, "Parse error: "+err.Error())
	}

	rec := &callError{}
	if env.Method == "tools/call" {
		var params toolCallParams
		if err := json.Unmarshal(env.Params, &params); err != nil || params.Name == "" {
			return s.reply(&env, encodeError(env.ID, mcp.INVALID_PARAMS, "Invalid tool call parameters"))
		}
		if _, ok := s.tools[params.Name]; !ok {
			return s.reply(&env, encodeError(env.ID, mcp.METHOD_NOT_FOUND, fmt.Sprintf("Tool %s not found", params.Name)))
		}
		s.log.Debug("tool call", "tool", params.Name)
		ctx = context.WithValue(ctx, callErrorKey{}, rec)
	}

	msg := s.mcp.HandleMessage(ctx, raw)
	if err := rec.get(); err != nil {
		s.log.Debug("tool call failed", "error", err)
		return s.reply(&env, encodeError(env.ID, errorCode(err), err.Error()))
	}
	if msg == nil || env.notification() {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("failed to encode response", "method", env.Method, "error", err)
		return encodeError(env.ID, mcp.INTERNAL_ERROR, "Failed to encode response")
	}
	return data
}

// reply drops responses to notifications.
func (s *Server) reply(env *envelope, data []byte) []byte {
	if env.notification() {
		return nil
	}
	return data
}

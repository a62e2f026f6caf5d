package mcpserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gavv/httpexpect/v2"
)

func TestHTTP_Health(t *testing.T) {
	h := newHarness(t)
	ts := httptest.NewServer(h.srv.Router())
	defer ts.Close()

	e := httpexpect.Default(t, ts.URL)
	e.GET("/healthz").
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("status", "ok").
		HasValue("version", "0.9.0").
		HasValue("processes", 0)
}

func TestHTTP_InitializeMintsSession(t *testing.T) {
	h := newHarness(t)
	ts := httptest.NewServer(h.srv.Router())
	defer ts.Close()

	e := httpexpect.Default(t, ts.URL)
	resp := e.POST("/mcp").
		WithJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  "initialize",
			"params": map[string]any{
				"protocolVersion": "2025-03-26",
				"capabilities":    map[string]any{},
				"clientInfo":      map[string]any{"name": "test", "version": "1"},
			},
		}).
		Expect().
		Status(http.StatusOK)
	resp.Header("Mcp-Session-Id").NotEmpty()
	resp.JSON().Object().Value("result").Object().
		Value("serverInfo").Object().HasValue("name", "acm")

	e.POST("/mcp").
		WithJSON(map[string]any{"jsonrpc": "2.0", "id": 2, "method": "ping"}).
		Expect().
		Status(http.StatusOK).
		Header("Mcp-Session-Id").IsEmpty()
}

func TestHTTP_ToolCallsAndNotifications(t *testing.T) {
	h := newHarness(t)
	ts := httptest.NewServer(h.srv.Router())
	defer ts.Close()

	e := httpexpect.Default(t, ts.URL)
	e.POST("/mcp").
		WithJSON(map[string]any{"jsonrpc": "2.0", "method": "notifications/initialized"}).
		Expect().
		Status(http.StatusAccepted)

	e.POST("/mcp").
		WithJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      7,
			"method":  "tools/call",
			"params": map[string]any{
				"name":      "run",
				"arguments": map[string]any{"workFolder": h.dir, "prompt": "hi"},
			},
		}).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("id", 7).
		Value("result").Object().
		Value("content").Array().Length().IsEqual(1)

	e.GET("/healthz").
		Expect().
		JSON().Object().
		HasValue("processes", 1)

	e.POST("/mcp").
		WithJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      8,
			"method":  "tools/call",
			"params":  map[string]any{"name": "get_result", "arguments": map[string]any{"pid": 12345}},
		}).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		Value("error").Object().
		HasValue("code", -32602).
		HasValue("message", "Process with PID 12345 not found")
}

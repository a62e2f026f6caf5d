package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tessro/acm/internal/supervisor"
)

// Tool names.
const (
	ToolRun     = "run"
	ToolList    = "list_processes"
	ToolResult  = "get_result"
	ToolWait    = "wait"
	ToolKill    = "kill_process"
	ToolCleanup = "cleanup_processes"
)

type toolFunc func(ctx context.Context, args arguments) (any, error)

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool(ToolRun,
		mcp.WithDescription(`Start a claude, codex, or gemini CLI process in the background and return its PID immediately.

The agent is chosen from the model: names starting with "gpt-" run codex, names starting with "gemini" run gemini, anything else (or no model) runs claude. Use get_result or wait to collect the output.`),
		mcp.WithString("prompt",
			mcp.Description("The prompt to send to the agent. Either prompt or prompt_file is required."),
		),
		mcp.WithString("prompt_file",
			mcp.Description("Path to a file containing the prompt, absolute or relative to workFolder."),
		),
		mcp.WithString("workFolder",
			mcp.Required(),
			mcp.Description("The working directory for the agent process. Must exist."),
		),
		mcp.WithString("model",
			mcp.Description(`Model name, e.g. "sonnet", "haiku", "gpt-5-codex", "gemini-2.5-pro".`),
		),
		mcp.WithString("reasoning_effort",
			mcp.Description("Codex only: reasoning effort."),
			mcp.Enum("low", "medium", "high"),
		),
		mcp.WithString("session_id",
			mcp.Description("Resume a previous agent session."),
		),
	), s.run)

	s.addTool(mcp.NewTool(ToolList,
		mcp.WithDescription("List all tracked agent processes with their PID, agent, and status."),
	), s.list)

	s.addTool(mcp.NewTool(ToolResult,
		mcp.WithDescription("Get the current status and output of an agent process. Output is parsed into agentOutput when the agent's format is recognized, otherwise raw stdout and stderr are returned."),
		mcp.WithNumber("pid",
			mcp.Required(),
			mcp.Description("The process ID returned by run."),
		),
	), s.getResult)

	s.addTool(mcp.NewTool(ToolWait,
		mcp.WithDescription("Wait for one or more agent processes to finish and return their results in the order requested."),
		mcp.WithArray("pids",
			mcp.Required(),
			mcp.Description("Process IDs to wait for."),
			mcp.Items(map[string]any{"type": "number"}),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Maximum time to wait in seconds. Defaults to 180."),
		),
	), s.wait)

	s.addTool(mcp.NewTool(ToolKill,
		mcp.WithDescription("Terminate a running agent process by PID."),
		mcp.WithNumber("pid",
			mcp.Required(),
			mcp.Description("The process ID to terminate."),
		),
	), s.kill)

	s.addTool(mcp.NewTool(ToolCleanup,
		mcp.WithDescription("Remove all completed and failed processes from the process list."),
	), s.cleanup)
}

// addTool registers t with the MCP server. Results are rendered as indented
// JSON text; failures are recorded on the call context so the dispatcher can
// report them with the right error code.
func (s *Server) addTool(t mcp.Tool, fn toolFunc) {
	s.tools[t.Name] = struct{}{}
	s.mcp.AddTool(t, server.ToolHandlerFunc(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := fn(ctx, arguments(req.GetArguments()))
		if err != nil {
			if rec, ok := ctx.Value(callErrorKey{}).(*callError); ok {
				rec.set(err)
			}
			return nil, err
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", t.Name, err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}))
}

func (s *Server) run(ctx context.Context, args arguments) (any, error) {
	workFolder, ok := args["workFolder"].(string)
	if !ok {
		return nil, &argError{"Missing or invalid required parameter: workFolder"}
	}
	req := supervisor.RunRequest{WorkFolder: workFolder}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"prompt", &req.Prompt},
		{"prompt_file", &req.PromptFile},
		{"model", &req.Model},
		{"reasoning_effort", &req.ReasoningEffort},
		{"session_id", &req.SessionID},
	} {
		v, err := args.optionalString(f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return s.sup.Start(ctx, req)
}

func (s *Server) list(context.Context, arguments) (any, error) {
	return s.sup.List(), nil
}

func (s *Server) getResult(_ context.Context, args arguments) (any, error) {
	pid, err := args.pid()
	if err != nil {
		return nil, err
	}
	return s.sup.GetResult(pid)
}

func (s *Server) wait(ctx context.Context, args arguments) (any, error) {
	pids, err := args.pids()
	if err != nil {
		return nil, err
	}
	timeout, err := args.seconds("timeout")
	if err != nil {
		return nil, err
	}
	return s.sup.Wait(ctx, pids, timeout)
}

func (s *Server) kill(_ context.Context, args arguments) (any, error) {
	pid, err := args.pid()
	if err != nil {
		return nil, err
	}
	return s.sup.Kill(pid)
}

func (s *Server) cleanup(context.Context, arguments) (any, error) {
	return s.sup.Cleanup(), nil
}

// arguments are decoded tool arguments. JSON numbers arrive as float64.
type arguments map[string]any

func (a arguments) optionalString(name string) (string, error) {
	switch v := a[name].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", &argError{fmt.Sprintf("Invalid parameter: %s must be a string", name)}
	}
}

func (a arguments) pid() (int, error) {
	pid, ok := wholeNumber(a["pid"])
	if !ok || pid <= 0 {
		return 0, &argError{"Missing or invalid required parameter: pid"}
	}
	return pid, nil
}

func (a arguments) pids() ([]int, error) {
	const msg = "Missing or invalid required parameter: pids (must be a non-empty array of numbers)"
	raw, ok := a["pids"].([]any)
	if !ok || len(raw) == 0 {
		return nil, &argError{msg}
	}
	pids := make([]int, 0, len(raw))
	for _, v := range raw {
		pid, ok := wholeNumber(v)
		if !ok || pid <= 0 {
			return nil, &argError{msg}
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// seconds reads an optional duration given in seconds. Absent means zero.
func (a arguments) seconds(name string) (time.Duration, error) {
	switch v := a[name].(type) {
	case nil:
		return 0, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v > math.MaxInt64/float64(time.Second) {
			return 0, &argError{fmt.Sprintf("Invalid parameter: %s must be a finite number of seconds", name)}
		}
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, &argError{fmt.Sprintf("Invalid parameter: %s must be a number", name)}
	}
}

func wholeNumber(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

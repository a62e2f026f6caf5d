package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tessro/acm/internal/backend"
	"github.com/tessro/acm/internal/logging"
	"github.com/tessro/acm/internal/processagent"
	"github.com/tessro/acm/internal/registry"
)

// RunRequest holds the arguments of the run tool.
type RunRequest struct {
	Prompt          string
	PromptFile      string
	WorkFolder      string
	Model           string
	ReasoningEffort string
	SessionID       string
}

// Started is returned by a successful Start.
type Started struct {
	PID     int           `json:"pid"`
	Status  string        `json:"status"`
	Agent   backend.Agent `json:"agent"`
	Message string        `json:"message"`
}

// Start validates req, spawns the selected agent CLI, and tracks it. The
// process is registered as running before Start returns; Start never waits
// for the agent to finish.
func (s *Supervisor) Start(ctx context.Context, req RunRequest) (*Started, error) {
	if strings.TrimSpace(req.WorkFolder) == "" {
		return nil, invalidParams("Missing or invalid required parameter: workFolder")
	}

	hasPrompt := strings.TrimSpace(req.Prompt) != ""
	hasFile := strings.TrimSpace(req.PromptFile) != ""
	switch {
	case !hasPrompt && !hasFile:
		return nil, invalidParams("Either prompt or prompt_file must be provided")
	case hasPrompt && hasFile:
		return nil, invalidParams("Cannot specify both prompt and prompt_file. Please use only one.")
	}

	prompt := req.Prompt
	if hasFile {
		var err error
		if prompt, err = readPromptFile(req.WorkFolder, req.PromptFile); err != nil {
			return nil, err
		}
	}

	workFolder, err := filepath.Abs(req.WorkFolder)
	if err != nil {
		return nil, invalidParams("Working folder does not exist: %s", req.WorkFolder)
	}
	info, err := os.Stat(workFolder)
	if err != nil {
		return nil, invalidParams("Working folder does not exist: %s", req.WorkFolder)
	}
	if !info.IsDir() {
		return nil, invalidParams("Working folder is not a directory: %s", req.WorkFolder)
	}

	agent := backend.SelectAgent(req.Model)
	effort, err := backend.ReasoningEffort(agent, req.ReasoningEffort)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error(), Err: err}
	}

	b, err := s.backends.Get(agent)
	if err != nil {
		return nil, internal(err, "No backend registered for %s", agent)
	}
	path, err := s.locate(agent)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error(), Err: err}
	}

	cmd := backend.Command{
		Agent: agent,
		Path:  path,
		Args: b.BuildArgs(backend.Invocation{
			Prompt:          prompt,
			Model:           req.Model,
			SessionID:       req.SessionID,
			ReasoningEffort: effort,
		}),
	}

	if err := ctx.Err(); err != nil {
		return nil, internal(err, "Request cancelled before starting %s", displayName(agent))
	}

	s.log.Debug("spawning agent", "agent", agent, "path", cmd.Path, "args", len(cmd.Args), "dir", workFolder)
	h, err := s.spawner.Spawn(processagent.Spec{Path: cmd.Path, Args: cmd.Args, Dir: workFolder})
	if err != nil {
		s.log.Error("spawn failed", "agent", agent, "path", cmd.Path, "error", err)
		return nil, internal(err, "Failed to start %s CLI process", displayName(agent))
	}

	pid := h.PID()
	if err := s.registry.Track(h, registry.Info{
		Agent:      agent,
		Prompt:     prompt,
		WorkFolder: workFolder,
		Model:      req.Model,
		StartTime:  s.now(),
	}); err != nil {
		_ = h.Signal(terminateSignal)
		return nil, internal(err, "Failed to start %s CLI process", displayName(agent))
	}

	s.announce()
	s.log.Info("agent started",
		"pid", pid,
		"agent", agent,
		"model", req.Model,
		"resume", req.SessionID != "",
		"prompt", logging.Preview(prompt, 0),
	)

	name := displayName(agent)
	return &Started{
		PID:     pid,
		Status:  "started",
		Agent:   agent,
		Message: fmt.Sprintf("%s process started successfully", name),
	}, nil
}

// readPromptFile resolves name against workFolder unless it is absolute and
// returns its contents.
func readPromptFile(workFolder, name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(workFolder, name)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if _, err := os.Stat(path); err != nil {
		return "", invalidParams("Prompt file does not exist: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Code: CodeInvalidParams, Message: "Failed to read prompt file: " + err.Error(), Err: err}
	}
	return string(data), nil
}

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tessro/acm/internal/backend"
	"github.com/tessro/acm/internal/registry"
)

// Result is the get_result view of one process.
type Result struct {
	PID         int             `json:"pid"`
	Agent       backend.Agent   `json:"agent"`
	Status      registry.Status `json:"status"`
	ExitCode    *int            `json:"exitCode,omitempty"`
	StartTime   string          `json:"startTime"`
	WorkFolder  string          `json:"workFolder"`
	Prompt      string          `json:"prompt"`
	Model       string          `json:"model,omitempty"`
	AgentOutput backend.Result  `json:"agentOutput,omitempty"`
	SessionID   string          `json:"session_id,omitempty"`
	Stdout      *string         `json:"stdout,omitempty"`
	Stderr      *string         `json:"stderr,omitempty"`
}

// KillResult is returned by Kill.
type KillResult struct {
	PID     int    `json:"pid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CleanupResult is returned by Cleanup.
type CleanupResult struct {
	Removed     int    `json:"removed"`
	RemovedPIDs []int  `json:"removedPids"`
	Message     string `json:"message"`
}

// List returns a summary of every tracked process.
func (s *Supervisor) List() []registry.Summary {
	return s.registry.List()
}

// GetResult returns the current state of pid. Stdout is parsed on every
// call; when the agent's parser extracts nothing, raw output is returned.
func (s *Supervisor) GetResult(pid int) (*Result, error) {
	snap, err := s.registry.Get(pid)
	if err != nil {
		return nil, notFound(pid)
	}
	return s.result(snap), nil
}

func (s *Supervisor) result(snap registry.Snapshot) *Result {
	r := &Result{
		PID:        snap.PID,
		Agent:      snap.Agent,
		Status:     snap.Status,
		ExitCode:   snap.ExitCode,
		StartTime:  snap.StartTime.UTC().Format(timeFormat),
		WorkFolder: snap.WorkFolder,
		Prompt:     snap.Prompt,
		Model:      snap.Model,
	}

	if b, err := s.backends.Get(snap.Agent); err == nil {
		if out := b.ParseOutput(snap.Stdout); out != nil {
			r.AgentOutput = out
			r.SessionID = out.Session()
			return r
		}
	}

	stdout, stderr := string(snap.Stdout), string(snap.Stderr)
	r.Stdout = &stdout
	r.Stderr = &stderr
	return r
}

// Wait blocks until every pid in pids has finished, the timeout elapses, or
// ctx is done. All pids are validated before waiting. A non-positive timeout
// uses the configured default. Waiting never affects the processes.
func (s *Supervisor) Wait(ctx context.Context, pids []int, timeout time.Duration) ([]*Result, error) {
	if len(pids) == 0 {
		return nil, invalidParams("Missing or invalid required parameter: pids (must be a non-empty array of numbers)")
	}

	done := make([]<-chan struct{}, len(pids))
	for i, pid := range pids {
		ch, err := s.registry.Done(pid)
		if err != nil {
			return nil, notFound(pid)
		}
		done[i] = ch
	}

	if !allClosed(done) {
		if timeout <= 0 {
			timeout = s.waitTimeout
		}
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		s.log.Debug("waiting for processes", "pids", pids, "timeout", timeout)
		for _, ch := range done {
			select {
			case <-ch:
			case <-timer.C:
				return nil, &Error{
					Code:    CodeTimeout,
					Message: fmt.Sprintf("Timed out waiting for processes after %s seconds", seconds(timeout)),
					Err:     ErrTimeout,
				}
			case <-ctx.Done():
				return nil, internal(ctx.Err(), "Wait cancelled: %v", ctx.Err())
			}
		}
	}

	results := make([]*Result, 0, len(pids))
	for _, pid := range pids {
		r, err := s.GetResult(pid)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func allClosed(chs []<-chan struct{}) bool {
	for _, ch := range chs {
		select {
		case <-ch:
		default:
			return false
		}
	}
	return true
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// Kill sends SIGTERM to a running process and marks it failed without
// waiting for it to exit. Finished processes are reported, not signaled.
func (s *Supervisor) Kill(pid int) (*KillResult, error) {
	status, signaled, err := s.registry.Kill(pid, terminateSignal)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return nil, notFound(pid)
	case err != nil:
		s.log.Error("kill failed", "pid", pid, "error", err)
		return nil, internal(err, "Failed to terminate process: %v", err)
	case !signaled:
		return &KillResult{PID: pid, Status: string(status), Message: "Process already terminated"}, nil
	}
	return &KillResult{PID: pid, Status: "terminated", Message: "Process terminated successfully"}, nil
}

// Cleanup removes every completed or failed process from the registry.
func (s *Supervisor) Cleanup() *CleanupResult {
	removed := s.registry.RemoveTerminal()
	if len(removed) > 0 {
		s.log.Info("removed finished processes", "count", len(removed))
	}
	return &CleanupResult{
		Removed:     len(removed),
		RemovedPIDs: removed,
		Message:     fmt.Sprintf("Removed %d finished process(es)", len(removed)),
	}
}

//go:build unix

package supervisor_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/acm/internal/backend"
	"github.com/tessro/acm/internal/paths"
	"github.com/tessro/acm/internal/registry"
	"github.com/tessro/acm/internal/supervisor"
)

// writeScript creates an executable shell script standing in for an agent CLI.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newExecSupervisor(t *testing.T, script string) *supervisor.Supervisor {
	t.Helper()
	t.Setenv(paths.CLIEnvVar("claude"), script)
	return supervisor.New(supervisor.Options{Banner: io.Discard})
}

func TestExec_ClaudeBatchOutput(t *testing.T) {
	script := writeScript(t, `printf '%s' '{"type":"result","result":"hello","session_id":"sess-1"}'`)
	sup := newExecSupervisor(t, script)

	started, err := sup.Start(context.Background(), supervisor.RunRequest{WorkFolder: t.TempDir(), Prompt: "say hello"})
	require.NoError(t, err)

	results, err := sup.Wait(context.Background(), []int{started.PID}, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, registry.StatusCompleted, r.Status)
	require.NotNil(t, r.ExitCode)
	assert.Equal(t, 0, *r.ExitCode)
	assert.Equal(t, "sess-1", r.SessionID)
	require.IsType(t, &backend.ClaudeResult{}, r.AgentOutput)
	assert.Equal(t, "hello", r.AgentOutput.(*backend.ClaudeResult).Message)
}

func TestExec_ArgumentsAndWorkingDirectory(t *testing.T) {
	script := writeScript(t, `pwd -P; for a in "$@"; do echo "$a"; done; echo err >&2; exit 4`)
	sup := newExecSupervisor(t, script)
	dir := t.TempDir()

	started, err := sup.Start(context.Background(), supervisor.RunRequest{WorkFolder: dir, Prompt: "multi word prompt"})
	require.NoError(t, err)

	results, err := sup.Wait(context.Background(), []int{started.PID}, 10*time.Second)
	require.NoError(t, err)
	r := results[0]
	assert.Equal(t, registry.StatusFailed, r.Status)
	require.NotNil(t, r.ExitCode)
	assert.Equal(t, 4, *r.ExitCode)

	wantDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	require.NotNil(t, r.Stdout)
	assert.Contains(t, *r.Stdout, wantDir+"\n")
	assert.Contains(t, *r.Stdout, "-p\nmulti word prompt\n")
	assert.Equal(t, "err\n", *r.Stderr)
}

func TestExec_KillRunningProcess(t *testing.T) {
	script := writeScript(t, `sleep 30`)
	sup := newExecSupervisor(t, script)

	started, err := sup.Start(context.Background(), supervisor.RunRequest{WorkFolder: t.TempDir(), Prompt: "p"})
	require.NoError(t, err)

	res, err := sup.Kill(started.PID)
	require.NoError(t, err)
	assert.Equal(t, "terminated", res.Status)

	done, err := sup.Registry().Done(started.PID)
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("killed process not marked terminal")
	}

	r, err := sup.GetResult(started.PID)
	require.NoError(t, err)
	assert.Equal(t, registry.StatusFailed, r.Status)
}

func TestExec_MissingExecutable(t *testing.T) {
	sup := newExecSupervisor(t, filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := sup.Start(context.Background(), supervisor.RunRequest{WorkFolder: t.TempDir(), Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, supervisor.CodeInternal, supervisor.CodeOf(err))
	assert.Equal(t, "Failed to start Claude CLI process", err.Error())
	assert.Empty(t, sup.List())
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/acm/internal/backend"
	"github.com/tessro/acm/internal/config"
)

func TestDiagnose(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PATH", t.TempDir())

	codex := filepath.Join(t.TempDir(), "codex")
	require.NoError(t, os.WriteFile(codex, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("CODEX_CLI_NAME", codex)
	t.Setenv("CLAUDE_CLI_NAME", "bin/claude")
	t.Setenv("GEMINI_CLI_NAME", "")

	checks := diagnose(config.Default())
	require.Len(t, checks, 3)

	byAgent := map[backend.Agent]cliCheck{}
	for _, c := range checks {
		byAgent[c.Agent] = c
	}

	claude := byAgent[backend.Claude]
	require.Error(t, claude.Err)
	assert.Contains(t, claude.Err.Error(), "Relative paths are not allowed")
	assert.Equal(t, "CLAUDE_CLI_NAME", claude.Source)
	assert.False(t, claude.OK())

	assert.True(t, byAgent[backend.Codex].OK())
	assert.Equal(t, codex, byAgent[backend.Codex].Path)

	gemini := byAgent[backend.Gemini]
	assert.NoError(t, gemini.Err)
	assert.Equal(t, "gemini", gemini.Path)
	assert.Equal(t, "config", gemini.Source)
	assert.False(t, gemini.OK())

	var out bytes.Buffer
	renderChecks(&out, checks)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], codex)
	assert.Contains(t, lines[2], "not found: gemini")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "acm "), out.String())
}

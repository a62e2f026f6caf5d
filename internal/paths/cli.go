package paths

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CLIEnvVar returns the override variable for an agent CLI (e.g. CLAUDE_CLI_NAME).
func CLIEnvVar(agent string) string {
	return strings.ToUpper(agent) + "_CLI_NAME"
}

// ClaudeLocalPath returns the per-user claude install location (~/.claude/local/claude).
func ClaudeLocalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "local", "claude")
}

// ResolveCLI determines the executable used to spawn an agent CLI.
//
// The <AGENT>_CLI_NAME environment variable takes precedence over the
// configured value. An absolute path is used as-is. A value containing a path
// separator is rejected. A bare name is looked up on PATH; if the lookup fails
// the bare name is returned and the spawn reports the failure. For claude,
// the default name prefers ~/.claude/local/claude when it exists.
func ResolveCLI(agent, configured string) (string, error) {
	envVar := CLIEnvVar(agent)
	name := os.Getenv(envVar)
	source := envVar
	if name == "" {
		name = configured
		source = "cli." + agent
	}

	if name != "" {
		if filepath.IsAbs(name) {
			slog.Debug("using absolute CLI path", "agent", agent, "source", source, "path", name)
			return name, nil
		}
		if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
			return "", fmt.Errorf("Invalid %s: Relative paths are not allowed. Use either a simple name (e.g., '%s') or an absolute path (e.g., '/tmp/%s-test')", source, agent, agent)
		}
	} else {
		name = agent
	}

	if agent == "claude" && name == "claude" {
		if local := ClaudeLocalPath(); local != "" {
			if _, err := os.Stat(local); err == nil {
				slog.Debug("found claude at local user path", "path", local)
				return local, nil
			}
		}
	}

	if found, err := exec.LookPath(name); err == nil {
		return found, nil
	}
	slog.Warn("CLI not found on PATH, relying on spawn lookup", "agent", agent, "name", name)
	return name, nil
}

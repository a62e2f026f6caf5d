package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tessro/acm/internal/backend"
	"github.com/tessro/acm/internal/config"
	"github.com/tessro/acm/internal/paths"
)

var (
	okColor    = lipgloss.Color("#10B981") // Green
	errorColor = lipgloss.Color("#EF4444") // Red
	mutedColor = lipgloss.Color("#6B7280") // Gray

	agentStyle = lipgloss.NewStyle().Bold(true).Width(8)
	okStyle    = lipgloss.NewStyle().Foreground(okColor)
	errorStyle = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the agent CLIs can be found",
	Long: `Resolve the executable for each agent the same way the server does and
report whether it exists. Environment overrides (CLAUDE_CLI_NAME,
CODEX_CLI_NAME, GEMINI_CLI_NAME) take precedence over the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		checks := diagnose(cfg)
		renderChecks(cmd.OutOrStdout(), checks)
		for _, c := range checks {
			if !c.OK() {
				return fmt.Errorf("%s CLI not available", c.Agent)
			}
		}
		return nil
	},
}

// cliCheck is the resolution result for one agent CLI.
type cliCheck struct {
	Agent  backend.Agent
	Source string
	Path   string
	Found  bool
	Err    error
}

func (c cliCheck) OK() bool { return c.Err == nil && c.Found }

func diagnose(cfg *config.Config) []cliCheck {
	checks := make([]cliCheck, 0, len(backend.Agents))
	for _, agent := range backend.Agents {
		c := cliCheck{Agent: agent, Source: "config"}
		if os.Getenv(paths.CLIEnvVar(string(agent))) != "" {
			c.Source = paths.CLIEnvVar(string(agent))
		}
		c.Path, c.Err = paths.ResolveCLI(string(agent), cfg.CLIName(string(agent)))
		if c.Err == nil && filepath.IsAbs(c.Path) {
			info, err := os.Stat(c.Path)
			c.Found = err == nil && !info.IsDir()
		}
		checks = append(checks, c)
	}
	return checks
}

func renderChecks(w io.Writer, checks []cliCheck) {
	for _, c := range checks {
		var status string
		switch {
		case c.Err != nil:
			status = errorStyle.Render("✗ " + c.Err.Error())
		case c.Found:
			status = okStyle.Render("✓ " + c.Path)
		default:
			status = errorStyle.Render("✗ not found: " + c.Path)
		}
		fmt.Fprintf(w, "%s %s %s\n", agentStyle.Render(string(c.Agent)), status, mutedStyle.Render("("+c.Source+")"))
	}
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

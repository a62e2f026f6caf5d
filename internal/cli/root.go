// Package cli implements the acm command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/acm/internal/config"
	"github.com/tessro/acm/internal/paths"
)

// configPath is the global --config flag value.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "acm",
	Short: "AI CLI process supervisor over MCP",
	Long:  "acm runs claude, codex, and gemini CLI processes in the background and exposes them as MCP tools.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Export --config so every path helper sees the override.
		if configPath != "" {
			if err := os.Setenv(paths.EnvConfigPath, configPath); err != nil {
				return err
			}
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (overrides ~/.config/acm/config.toml)")
}

// loadConfig reads the configuration honoring --config.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

func Execute() error {
	return rootCmd.Execute()
}

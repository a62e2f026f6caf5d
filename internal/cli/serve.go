package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/acm/internal/backend"
	"github.com/tessro/acm/internal/config"
	"github.com/tessro/acm/internal/logging"
	"github.com/tessro/acm/internal/mcpserver"
	"github.com/tessro/acm/internal/paths"
	"github.com/tessro/acm/internal/supervisor"
	"github.com/tessro/acm/internal/version"
)

var serveHTTPAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server. By default it speaks JSON-RPC over stdin and stdout,
which is how MCP clients launch it. With --http it listens on the given
address instead and accepts messages on POST /mcp.

Running processes are terminated when the server exits.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		// stdout carries the protocol, so logs go to the file and stderr.
		cleanup, err := logging.SetupMulti(cfg.Log.File, os.Stderr, level)
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		defer cleanup()
	} else {
		logging.SetupStderr(os.Stderr, level)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := newSupervisor(cfg)
	defer sup.Shutdown()

	slog.Info("acm starting", "version", version.Version, "http", serveHTTPAddr)
	srv := mcpserver.New(sup)
	if serveHTTPAddr != "" {
		return srv.ListenAndServe(ctx, serveHTTPAddr)
	}
	return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
}

func newSupervisor(cfg *config.Config) *supervisor.Supervisor {
	return supervisor.New(supervisor.Options{
		Backends: backend.NewSet(backend.Options{
			ClaudeOutputFormat: cfg.Claude.OutputFormat,
			Aliases:            cfg.Models.Aliases,
		}),
		Locate: func(agent backend.Agent) (string, error) {
			return paths.ResolveCLI(string(agent), cfg.CLIName(string(agent)))
		},
		DefaultWaitTimeout: cfg.WaitTimeout(),
	})
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "serve over HTTP on this address (e.g. :8765) instead of stdio")
	rootCmd.AddCommand(serveCmd)
}

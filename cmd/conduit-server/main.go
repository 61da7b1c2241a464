// Package main provides the CLI entry point for the Conduit agent
// orchestration server.
//
// Conduit fronts a ReAct-style supervisor/specialist agent loop over HTTP:
// a chat endpoint that streams Server-Sent Events, a builder endpoint for
// structured page edits, and an admin surface for tuning agent prompts and
// models at runtime.
//
// # Basic Usage
//
// Start the server:
//
//	conduit-server serve --addr :8080
//
// # Environment Variables
//
// Every option is sourced from the environment; see internal/config for the
// full list (ANTHROPIC_API_KEY, OPENROUTER_API_KEY, SUPABASE_*,
// TAVILY_API_KEY, BRAVE_SEARCH_API_KEY, FIRECRAWL_API_KEY, AGENT_*,
// WEB_*, ALLOW_CODE_EXEC, CODE_TIMEOUT, AGENT_WORKSPACE, CORS_ORIGINS,
// LOG_LEVEL).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "conduit-server",
		Short:        "Conduit - multi-agent orchestration server",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildServeCmd(), buildVersionCmd())
	return rootCmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "conduit-server %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dear-diary/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the journal to AI assistants over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Assistants connected to it can add and classify entries, browse entries
and goals, and edit goals. Logs go to stderr so they never mix with the
protocol stream.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}

	cmd.Flags().Bool("preload", true, "Load the classification pipeline before accepting requests")

	return cmd
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if preload, _ := cmd.Flags().GetBool("preload"); preload {
		// A failed load is reported by every classification; serve anyway.
		if err := a.pipeline.Load(ctx); err != nil {
			slog.Warn("Pipeline not ready", "error", err)
		}
	}

	srv := mcp.NewServer(mcp.ServerConfig{
		Journal: a.journal,
		User:    a.user,
		Version: version,
	})

	slog.Info("MCP server listening on stdio", "user_id", a.user)
	return mcp.Serve(ctx, srv, os.Stdin, os.Stdout)
}

package cmd

import (
	"fmt"
	"time"

	"github.com/lukman83/compintel/internal/httputil"
	mcpserver "github.com/lukman83/compintel/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "Starting compintel MCP server on stdio...")

	if err := mcpserver.Serve(mcpDeps()); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// mcpDeps reloads the competitor file on every tool call so edits show up
// without a restart.
func mcpDeps() mcpserver.Deps {
	return mcpserver.Deps{
		LoadCompetitors: loadCompetitors,
		Client:          httputil.NewHTTPClient(nil, 10*time.Second),
		MaxMinutes:      cfg.PipelineTimeoutMinutes,
	}
}

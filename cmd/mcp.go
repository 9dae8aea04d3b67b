package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/ideas/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This allows Claude Code to browse ideas, move them through the workflow and
request deep dives natively. Configure in Claude Code with:

  {
    "mcpServers": {
      "ideas": { "command": "ideas", "args": ["mcp"] }
    }
  }

Available tools: ideas_list, ideas_get, ideas_set_status, ideas_deep_dive,
ideas_list_versions, ideas_restore_version`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Shared bus so a running API server sees status changes made here.
		a, err := getApp(true)
		if err != nil {
			return err
		}
		return mcp.NewServer(a.store, a.engine, a.versions, buildVersion).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

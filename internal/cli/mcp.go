package cli

import (
	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/mcpserver"
)

func newMCPCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the interpreter as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mcpserver.Version = Version
			return mcpserver.ServeStdio(e.shell)
		},
	}
}

// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package mcpserver exposes the interpreter over the Model Context
// Protocol, so an agent can run pipelines as a tool.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marcelocantos/pipesh/internal/pipeline"
	"github.com/marcelocantos/pipesh/internal/shell"
)

// Version is reported to MCP clients.
var Version = "dev"

// Identity is recorded in the audit log for tool calls.
const Identity = "mcp"

// New builds an MCP server with the run and list tools.
func New(sh *shell.Shell) *server.MCPServer {
	s := server.NewMCPServer(
		"pipesh",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Run pipesh command lines. Stages are separated by | and "+
			"words may be double-quoted. Use list to see the available commands."),
	)
	h := &handlers{sh: sh}
	s.AddTool(runTool(), h.run)
	s.AddTool(listTool(), h.list)
	return s
}

// ServeStdio serves sh over stdin/stdout until the client disconnects.
func ServeStdio(sh *shell.Shell) error {
	return server.ServeStdio(New(sh))
}

func runTool() mcp.Tool {
	return mcp.NewTool("run",
		mcp.WithDescription("Run a pipesh command line and return its output, one item per line."),
		mcp.WithString("line",
			mcp.Required(),
			mcp.Description(`Command line, e.g. "echo a b | count"`),
		),
	)
}

func listTool() mcp.Tool {
	return mcp.NewTool("list",
		mcp.WithDescription("List the available commands with their tier and description."),
	)
}

type handlers struct {
	sh *shell.Shell
}

func (h *handlers) run(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := h.sh.Run(ctx, shell.Invocation{Identity: Identity, Line: line})
	if err != nil {
		return mcp.NewToolResultError(strings.Join(pipeline.Messages(err), "\n")), nil
	}
	return mcp.NewToolResultText(strings.Join(out, "\n")), nil
}

func (h *handlers) list(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := h.sh.Registry()
	var b strings.Builder
	for _, c := range reg.All() {
		state := ""
		if reg.CheckTier(c.Tier()) != nil {
			state = ", disabled"
		}
		fmt.Fprintf(&b, "%s [%s%s]: %s\n", c.Name(), c.Tier(), state, c.Description())
	}
	return mcp.NewToolResultText(b.String()), nil
}

package main

import (
	"fmt"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the tenant's flow to AI agents as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		srv := mcp.NewServer(s.engine.Editor(), flowcanvas.Version, mcp.WithLogger(s.logger))
		switch transport {
		case "stdio":
			// Logs go to stderr, stdout carries JSON-RPC.
			s.logger.Info("starting MCP server (stdio)", "tenant", s.cfg.Tenant)
			return srv.ServeStdio()
		case "sse":
			if err := srv.ServeSSE(cmd.Context(), addr, baseURL); err != nil {
				return err
			}
			s.logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "http://localhost:8081", "Public base URL of the SSE endpoint")
}

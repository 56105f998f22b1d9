package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/relstore"
	"github.com/aretw0/relstore/internal/cli"
	"github.com/aretw0/relstore/pkg/adapters/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes the configured store to AI agents as MCP tools
(list_tables, find, where, save, destroy, validate) and the relstore://schema resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			transport, _ := cmd.Flags().GetString("transport")
			addr, _ := cmd.Flags().GetString("addr")

			if transport != "stdio" && transport != "sse" {
				return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
			}

			return cli.ServeStore(cmd.Context(), cfg, nil, logger, func(ctx context.Context, store *relstore.Store) error {
				srv := mcp.NewServer(store, logger)
				if transport == "stdio" {
					// Stdout carries JSON-RPC.
					log.SetOutput(os.Stderr)
					logger.Info("starting MCP server (stdio)", "schema", store.Schema().Name())
					return srv.ServeStdio()
				}

				baseURL, _ := cmd.Flags().GetString("base-url")
				if baseURL == "" {
					baseURL = "http://localhost" + addr
				}
				return srv.ServeSSE(ctx, addr, baseURL)
			})
		},
	}
	cmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	cmd.Flags().String("base-url", "", "Public base URL of the SSE server")
	return cmd
}

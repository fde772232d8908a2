package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/vadimtrunov/PopularMovies/internal/mcp"
)

// newMCPServeCmd returns the "mcp-serve" subcommand. It starts an MCP
// server over stdin/stdout so that assistants can browse the catalog and
// edit favorites.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Start MCP server over stdio",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			svc, _, logger, err := setup(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			srv := mcpserver.NewServer(mcpserver.Deps{
				Catalog: svc.catalog,
				Store:   svc.store,
			}, version, logger)
			return srv.ServeStdio(ctx)
		},
	}
}

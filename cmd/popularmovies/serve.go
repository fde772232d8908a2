package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/PopularMovies/internal/api"
)

// newServeCmd returns the "serve" subcommand that runs the REST API.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and favorites over HTTP",
		Long: "Start a JSON REST API with /api/movies, /api/search and /api/favorites,\n" +
			"plus /healthz and Prometheus /metrics.",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			svc, cfg, logger, err := setup(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			srv := api.NewServer(svc.catalog, svc.store, api.Options{
				RateLimit: cfg.Server.RateLimit,
				Logger:    logger,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/relstore"
	"github.com/aretw0/relstore/internal/cli"
	httpAdapter "github.com/aretw0/relstore/pkg/adapters/http"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Serves the configured store as a REST API, with its OpenAPI document at /openapi.json
and Prometheus metrics at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			return cli.ServeStore(cmd.Context(), cfg, reg, logger, func(ctx context.Context, store *relstore.Store) error {
				handler, err := httpAdapter.NewHandler(store,
					httpAdapter.WithLogger(logger),
					httpAdapter.WithGatherer(reg),
				)
				if err != nil {
					return err
				}

				srv := &http.Server{
					Addr:              cfg.HTTP.Addr,
					Handler:           handler,
					ReadHeaderTimeout: 10 * time.Second,
				}

				serverErrors := make(chan error, 1)
				go func() {
					logger.Info("HTTP server listening", "address", srv.Addr, "schema", store.Schema().Name(), "backend", cfg.Backend)
					serverErrors <- srv.ListenAndServe()
				}()

				select {
				case err := <-serverErrors:
					return fmt.Errorf("server error: %w", err)
				case <-ctx.Done():
					logger.Info("shutting down", "cause", context.Cause(ctx))

					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						logger.Error("graceful shutdown did not complete", "error", err)
						if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
							return err
						}
					}
					logger.Info("HTTP server stopped gracefully")
					return nil
				}
			})
		},
	}
	cmd.Flags().String("addr", "", "Address to listen on (default from config, :8080)")
	return cmd
}

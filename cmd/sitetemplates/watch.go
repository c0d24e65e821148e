package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"sitetemplates/internal/router"
)

var metricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow template invalidations and serve health and metrics",
	Long: `watch keeps an L1 template cache in sync with invalidations published
by other processes and serves /health and /metrics until interrupted.
Invalidations need the valkey cache backend.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           router.New(a.db, a.metrics.Registry()),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 2)
		go func() {
			slog.Info("metrics server starting", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		if a.tiered != nil {
			go func() {
				if err := a.tiered.Listen(ctx); err != nil {
					errCh <- err
				}
			}()
		} else {
			slog.Warn("cache backend is local, cross-process invalidations are not followed")
		}

		var runErr error
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received")
		case runErr = <-errCh:
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server forced to shutdown", "error", err)
		}
		return runErr
	}),
}

func init() {
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9464", "metrics listen address")
}

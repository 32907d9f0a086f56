package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/shelfprice/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the price comparison HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		slog.Info("shelfprice starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"mode", cfg.Server.Mode,
			"renderer", cfg.Browser.Renderer,
		)

		// ── 1. Scraper (launches the renderer) ──────────────────────
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// ── 2. Router + server ──────────────────────────────────────
		router := api.NewRouter(ctx, a.scraper, a.metrics.Registry, cfg)
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		// ── 3. Graceful shutdown ────────────────────────────────────
		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
			slog.Info("shutdown signal received")
		}

		// Batches are long; give in-flight requests time to finish.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.Scraper.NavigationTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}
		slog.Info("shelfprice stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides SHELFPRICE_PORT)")
	rootCmd.AddCommand(serveCmd)
}

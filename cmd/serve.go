package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/7-mb/speciesid/internal/config"
	"github.com/7-mb/speciesid/internal/device"
	"github.com/7-mb/speciesid/internal/handlers"
	"github.com/7-mb/speciesid/internal/notify"
)

func newServeCmd() *cobra.Command {
	var port string
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the identification API server",
		Long: `Starts the HTTP surface over the identification pipeline.

Clients upload up to five photos, crop or remove them, and trigger a
species-identification request against the configured service.`,
		Example: `  # Start server on default port 8888
  speciesid serve

  # Start server on custom port
  speciesid serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			p := buildPipeline(cfg, device.NoPicker{}, notify.LogNotifier{})
			handler := handlers.New(p.store, p.controller, p.transformer, cfg)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/images", handler.HandleImages)
			mux.HandleFunc("/api/images/", handler.HandleImageDetail)
			mux.HandleFunc("/api/identify", handler.HandleIdentify)
			mux.HandleFunc("/api/results", handler.HandleResults)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Speciesid API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Config file (default "+config.DefaultFile+")")

	return cmd
}

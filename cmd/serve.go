package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quizpulse/quizpulse/internal/api"
)

const (
	defaultAddr     = "127.0.0.1:8080"
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library over a local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if !cmd.Flags().Changed("addr") {
				addr = envOr("QUIZPULSE_ADDR", defaultAddr)
			}
			origins, _ := cmd.Flags().GetStringSlice("cors-origin")
			timeout, _ := cmd.Flags().GetDuration("request-timeout")

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			handler := api.NewRouter(newLibrary(st), api.Options{
				AllowedOrigins: origins,
				Timeout:        timeout,
				Logger:         slog.Default(),
			})
			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", addr)
			return serve(cmd.Context(), srv)
		},
	}

	f := c.Flags()
	f.String("addr", defaultAddr, "Listen address (overrides QUIZPULSE_ADDR env var)")
	f.StringSlice("cors-origin", nil, "Allowed CORS origin; repeat for several (default any)")
	f.Duration("request-timeout", 30*time.Second, "Per-request timeout")
	return c
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "addr", srv.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/phylotangle/phylotangle/internal/server"
)

// newServeCmd creates the serve command for running the HTTP API.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the phylotangle HTTP API",
		Long: `Serve starts an HTTP service exposing tree parsing, rendering, tanglegram
layout, Robinson-Foulds distances, and the named tree store as a JSON API.

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

// runServe builds the configured backends and serves until ctx is cancelled.
func runServe(ctx context.Context, addr string) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)
	if addr == "" {
		addr = cfg.Server.Addr
	}

	c, err := cacheFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	st, err := storeFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	srv := server.New(server.Options{
		Logger: logger,
		Cache:  c,
		Store:  st,
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
		Margin: cfg.Render.Margin,
	})

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

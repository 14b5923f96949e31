package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classification API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			e, err := a.openEngine(ctx, engineOptions{withMemory: true})
			if err != nil {
				return err
			}
			defer e.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           newHandler(e, a.cfg.Server, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return e.learner.Flush(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config server.addr)")
	return cmd
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apihttp "finflow/internal/http"
	"finflow/internal/log"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for app clients",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	addr := app.Config.HTTPAddr
	if flagAddr != "" {
		addr = flagAddr
	}

	srv := apihttp.NewServer(addr, app.Service, app.Backend.Store, app.Logger, apihttp.Options{
		RequestsPerMinute: app.Config.RateLimitPerMinute,
		Clock:             now,
	})
	app.Caches.StartCleanup(app.Config.CacheCleanupInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("HTTP server listening", log.FieldOperation, log.OpStartup, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

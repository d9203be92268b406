package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/goldenline/internal/policy"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootstrap()
		if err != nil {
			return err
		}
		defer e.Close()
		return serve(cmd.Context(), e)
	},
}

func serve(parent context.Context, e *env) error {
	if parent == nil {
		parent = context.Background()
	}
	if e.cfg.App.Migrations {
		if err := migrate(e); err != nil {
			return err
		}
		e.log.Info("migrations completed")
	}

	routerCfg := policy.NewRouterConfig(e.db, e.log, e.cfg.Auth.GateCacheTTL)
	srv := &http.Server{
		Addr:         ":" + e.cfg.Server.Port,
		Handler:      NewApp(e.log, routerCfg),
		ReadTimeout:  time.Duration(e.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(e.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(e.cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("server starting", "port", e.cfg.Server.Port, "dev", e.cfg.App.Dev, "driver", e.cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	e.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	e.log.Info("server stopped gracefully")
	return nil
}

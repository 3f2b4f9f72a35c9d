package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"
)

const shutdownGrace = 10 * time.Second

// Run starts the HTTP server and performs a graceful shutdown when ctx is
// cancelled or the process receives SIGINT/SIGTERM. Hooks run after the
// listener has drained, in order.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger, hooks ...func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	for _, hook := range hooks {
		if hookErr := hook(shutdownCtx); hookErr != nil {
			logger.Error("shutdown hook failed", slog.Any("error", hookErr))
			if err == nil {
				err = hookErr
			}
		}
	}
	return err
}

// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "marketplace-core/internal"
	"marketplace-core/internal/service"
	"marketplace-core/internal/util"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		util.GetLogger().Error("marketplace api stopped with error", "error", err)
		os.Exit(1)
	}
}

// run serves HTTP until SIGINT/SIGTERM or a listener failure, then drains the server
// and releases the store and event connections.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.NewApplication()
	if err := application.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	logger := application.Logger

	server := &http.Server{
		Addr:              ":" + application.Config.ServerPort,
		Handler:           application.HTTPHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("marketplace api listening", "port", application.Config.ServerPort, "store", application.Config.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if interval := application.Config.QuoteSweepInterval; interval > 0 {
		go sweepQuotes(ctx, application.QuoteService, interval)
	}

	var listenErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case listenErr = <-serveErr:
		logger.Error("http listener failed", "error", listenErr)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := errors.Join(
		listenErr,
		server.Shutdown(shutdownCtx),
		application.Shutdown(shutdownCtx),
	)
	if err == nil {
		logger.Info("marketplace api stopped")
	}
	return err
}

// sweepQuotes expires overdue quotes until ctx is cancelled. Failures are logged and retried on the next tick.
func sweepQuotes(ctx context.Context, quotes service.QuoteService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := quotes.ExpireStale(ctx)
			if err != nil {
				util.GetLogger().Warn("quote sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				util.GetLogger().Info("expired stale quotes", "count", expired)
			}
		}
	}
}

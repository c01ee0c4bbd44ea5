// Package main runs the helpdesk HTTP gateway: the dashboard-facing proxy
// over the chat backend plus the cached statistics route.
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

	"github.com/joho/godotenv"

	"github.com/hungg523/helpdesk-assistant/internal/config"
	"github.com/hungg523/helpdesk-assistant/internal/gateway"
	"github.com/hungg523/helpdesk-assistant/internal/metrics"
	"github.com/hungg523/helpdesk-assistant/internal/stats"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	cache, err := stats.OpenCache(cfg.StatsCachePath())
	if err != nil {
		logger.Warn("stats cache unavailable, fallback disabled", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	statsClient := stats.New(stats.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.StatsTimeout,
		Cache:   cache,
		Metrics: metrics.NewCollector(),
		Logger:  logger,
	})

	srv, err := gateway.New(gateway.Options{
		BackendURL: cfg.APIURL,
		Stats:      statsClient,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("init gateway: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.GatewayAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", cfg.GatewayAddr, "backend", cfg.APIURL)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

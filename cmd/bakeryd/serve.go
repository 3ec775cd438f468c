package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-bakeryops/components/dashboard/gorouter"
	"github.com/goliatone/go-bakeryops/components/dashboard/httpapi"
	"github.com/goliatone/go-bakeryops/pkg/config"
)

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	a, err := newApp(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("shutdown cleanup failed", zap.Error(err))
		}
	}()

	logger.Info("starting bakeryd",
		zap.String("addr", cfg.Server.Addr),
		zap.String("engine", cfg.Server.Engine),
		zap.String("mode", cfg.Server.Mode),
		zap.String("storage", cfg.Storage.Driver),
	)
	if cfg.Server.Engine == config.EngineNetHTTP {
		return a.serveNetHTTP(ctx)
	}
	return a.serveFiber(ctx)
}

// netHTTPHandler mounts the whole surface on one ServeMux.
func (a *app) netHTTPHandler() http.Handler {
	opts := httpapi.MuxOptions{
		Page:    a.controller,
		Stream:  a.broadcast,
		Metrics: promhttp.Handler(),
	}
	if a.cfg.Server.Production() {
		opts.Static = http.FileServer(http.Dir(a.cfg.Server.StaticDir))
	}
	return a.metrics.Instrument(httpapi.NewMux(a.handlers, opts))
}

func (a *app) serveNetHTTP(ctx context.Context) error {
	server := &http.Server{
		Addr:        a.cfg.Server.Addr,
		Handler:     a.netHTTPHandler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	return a.run(ctx, func() error { return server.ListenAndServe() }, server.Shutdown)
}

// sideHandler serves what fiber does not: metrics and the SSE stream.
func (a *app) sideHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/live/stream", a.broadcast.ServeSSE)
	return mux
}

func (a *app) serveFiber(ctx context.Context) error {
	server := router.NewFiberAdapter()
	cfg := gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: a.controller,
		API:        a.handlers,
		Broadcast:  a.broadcast,
		BasePath:   a.cfg.Server.BasePath,
	}
	if a.cfg.Server.Production() {
		cfg.Assets = os.DirFS(a.cfg.Server.StaticDir)
	}
	if err := gorouter.Register(cfg); err != nil {
		return err
	}

	side := &http.Server{Addr: a.cfg.Server.MetricsAddr, Handler: a.sideHandler(), ReadTimeout: 10 * time.Second}
	go func() {
		if err := side.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = side.Shutdown(shutdownCtx)
	}()

	return a.run(ctx, func() error { return server.Serve(a.cfg.Server.Addr) }, server.Shutdown)
}

// run serves until ctx is cancelled, then shuts down within the configured
// timeout.
func (a *app) run(ctx context.Context, listen func() error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- listen()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown failed", zap.Error(err))
		return err
	}
	a.logger.Info("server shutdown complete")
	return nil
}

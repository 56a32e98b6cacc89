package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/a16vhoss/neuropath-backend/internal/adapter/postgres"
	"github.com/a16vhoss/neuropath-backend/internal/adapter/postgres/reviewlog"
	"github.com/a16vhoss/neuropath-backend/internal/adapter/postgres/schedrecord"
	"github.com/a16vhoss/neuropath-backend/internal/adapter/postgres/session"
	"github.com/a16vhoss/neuropath-backend/internal/config"
	"github.com/a16vhoss/neuropath-backend/internal/service/study"
	"github.com/a16vhoss/neuropath-backend/internal/transport/middleware"
	"github.com/a16vhoss/neuropath-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, wires the
// storage and service layers, and serves HTTP until ctx is cancelled, then
// shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	records := schedrecord.New(pool)
	reviews := reviewlog.New(pool)
	sessions := session.New(pool)
	txManager := postgres.NewTxManager(pool)

	studySvc, err := study.NewService(logger, records, reviews, sessions, txManager, cfg.Scheduler.ToDomain(), nil)
	if err != nil {
		return fmt.Errorf("create study service: %w", err)
	}

	studyHandler := rest.NewStudyHandler(studySvc, reviews, logger)
	healthHandler := rest.NewHealthHandler(pool, BuildVersion())

	mux := rest.NewRouter(studyHandler, healthHandler)

	mws := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	}
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(5 * time.Minute)
		defer limiter.Stop()
		mws = append(mws, limiter.Limit(cfg.Server.RateLimitPerMinute))
	}
	handler := middleware.Chain(mws...)(mux)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/platform/metrics"
	"bookcatalog/internal/platform/postgres"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	cleanups []func()
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := postgres.Open(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("database connection OK", zap.String("db.dsn", postgres.RedactDSN(cfg.DB.DSN)))

	repo := book.NewPostgresRepo(pool, cfg.DB.QueryTimeout)
	service := book.NewService(repo, logger.Named("book"))
	reg := metrics.NewRegistry()
	reg.RegisterPool(pool)
	handler, stopLimiter, err := newRouter(cfg.HTTP, logger, pool, reg, book.NewHTTPHandler(service))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build router: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ErrorLog:     zap.NewStdLog(logger),
	}

	return &App{
		config: cfg,
		logger: logger,
		server: server,
		cleanups: []func(){
			stopLimiter,
			pool.Close,
		},
	}, nil
}

// Run serves until SIGINT or SIGTERM, then shuts the server down.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped", zap.String("app.addr", app.config.Addr), zap.Error(err))
	return err
}

// Clean runs the registered cleanups in order.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting", zap.String("app.addr", app.config.Addr))
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop waits for the group context, then tries a graceful shutdown and
// falls back to closing every connection. It always returns nil so the group
// reports only the Serve result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.HTTP.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Warn("api server graceful shutdown timed out")
		default:
			app.logger.Error("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Warn("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

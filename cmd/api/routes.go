package main

import (
	"context"
	"net/http"
	"time"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/httpx"
	"bookcatalog/internal/platform/metrics"

	"go.uber.org/zap"
)

const readinessTimeout = 500 * time.Millisecond

type pinger interface {
	Ping(ctx context.Context) error
}

// newRouter registers every route and wraps the mux in the middleware
// chain. The returned stop func releases the rate limiter.
func newRouter(cfg config.HTTPConfig, logger *zap.Logger, db pinger, reg *metrics.Registry, books *book.HTTPHandler) (http.Handler, func(), error) {
	proxies, err := httpx.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, nil, err
	}

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			httpx.LoggerFrom(r.Context()).Warn("readiness check failed", zap.Error(err))
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Handle("GET /metrics", reg.Handler())

	books.Register(router)

	// Metrics wrap recovery so a panic is counted as the 500 it becomes.
	middlewares := []httpx.Middleware{
		httpx.RequestIDMiddleware,
		httpx.ClientIPMiddleware(proxies),
		httpx.AccessLogMiddleware(logger),
		reg.Middleware,
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSAllowedOrigins),
	}

	stop := func() {}
	if cfg.RateLimitRPS > 0 {
		limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
		middlewares = append(middlewares, limiter.Middleware)
		stop = limiter.Stop
	}
	middlewares = append(middlewares, httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes))

	return httpx.Chain(httpx.WithJSONFallbacks(router), middlewares...), stop, nil
}

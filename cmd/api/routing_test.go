package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/httpx"
	"bookcatalog/internal/platform/metrics"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, db pinger, httpCfg config.HTTPConfig) (*book.MockRepository, http.Handler) {
	ctrl := gomock.NewController(t)
	repo := book.NewMockRepository(ctrl)
	handler, stop, err := newRouter(httpCfg, zap.NewNop(), db, metrics.NewRegistry(), book.NewHTTPHandler(book.NewService(repo, nil)))
	require.NoError(t, err)
	t.Cleanup(stop)
	return repo, handler
}

func defaultHTTPConfig() config.HTTPConfig {
	return config.HTTPConfig{MaxBodyBytes: 1 << 20}
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouting_LiteralRoutesBeforeBookID(t *testing.T) {
	repo, h := newTestRouter(t, fakePinger{}, defaultHTTPConfig())

	repo.EXPECT().Search(gomock.Any(), "x").Return([]book.Book{}, nil)
	repo.EXPECT().Filter(gomock.Any(), book.YearRange{}).Return([]book.Book{}, nil)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/books/search?search=x").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/books/filter").Code)
}

func TestRouting_BookID(t *testing.T) {
	repo, h := newTestRouter(t, fakePinger{}, defaultHTTPConfig())
	repo.EXPECT().Get(gomock.Any(), int64(5)).Return(book.Book{ID: 5}, nil)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/books/5").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(h, http.MethodGet, "/books/five").Code)
}

func TestRouting_Fallbacks(t *testing.T) {
	_, h := newTestRouter(t, fakePinger{}, defaultHTTPConfig())

	w := do(h, http.MethodGet, "/authors")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, w.Body.String())

	w = do(h, http.MethodPatch, "/books/1")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Header().Get("Allow"), http.MethodPut)
}

func TestRouting_MiddlewareApplied(t *testing.T) {
	_, h := newTestRouter(t, fakePinger{}, defaultHTTPConfig())

	w := do(h, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(httpx.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRouting_Readiness(t *testing.T) {
	_, up := newTestRouter(t, fakePinger{}, defaultHTTPConfig())
	assert.Equal(t, http.StatusOK, do(up, http.MethodGet, "/readyz").Code)

	_, down := newTestRouter(t, fakePinger{err: errors.New("connection refused")}, defaultHTTPConfig())
	assert.Equal(t, http.StatusServiceUnavailable, do(down, http.MethodGet, "/readyz").Code)
}

func TestRouting_RateLimit(t *testing.T) {
	cfg := defaultHTTPConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	_, h := newTestRouter(t, fakePinger{}, cfg)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodGet, "/healthz").Code)
}

func TestRouting_Metrics(t *testing.T) {
	_, h := newTestRouter(t, fakePinger{}, defaultHTTPConfig())

	do(h, http.MethodGet, "/healthz")
	w := do(h, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="GET /healthz"`)
}

func TestRouting_PanicIsCountedAsServerError(t *testing.T) {
	repo, h := newTestRouter(t, fakePinger{}, defaultHTTPConfig())
	repo.EXPECT().List(gomock.Any()).DoAndReturn(func(context.Context) ([]book.Book, error) {
		panic("driver exploded")
	})

	w := do(h, http.MethodGet, "/books/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, w.Body.String())

	metricsBody := do(h, http.MethodGet, "/metrics").Body.String()
	assert.Contains(t, metricsBody, `route="GET /books/{$}",status="500"} 1`)
}

func TestRouting_InvalidTrustedProxies(t *testing.T) {
	cfg := defaultHTTPConfig()
	cfg.TrustedProxies = []string{"proxy.local"}

	_, _, err := newRouter(cfg, zap.NewNop(), fakePinger{}, metrics.NewRegistry(), book.NewHTTPHandler(book.NewService(nil, nil)))
	assert.ErrorContains(t, err, "proxy.local")
}

func TestRouting_RateLimitHonoursTrustedProxy(t *testing.T) {
	cfg := defaultHTTPConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	cfg.TrustedProxies = []string{"192.0.2.0/24"}
	_, h := newTestRouter(t, fakePinger{}, cfg)

	request := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	// behind the proxy each forwarded client gets its own bucket
	assert.Equal(t, http.StatusOK, request("192.0.2.1:1000", "198.51.100.1"))
	assert.Equal(t, http.StatusOK, request("192.0.2.1:1000", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, request("192.0.2.1:1000", "198.51.100.2"))

	// a direct caller cannot pick a bucket by forging the header
	assert.Equal(t, http.StatusOK, request("203.0.113.9:1000", "198.51.100.3"))
	assert.Equal(t, http.StatusTooManyRequests, request("203.0.113.9:1000", "198.51.100.4"))
}

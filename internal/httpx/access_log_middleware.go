package httpx

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int64
	headerWritten bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.headerWritten {
		rw.statusCode = code
		rw.headerWritten = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.headerWritten {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) wroteHeader() bool {
	return rw.headerWritten
}

// AccessLogMiddleware attaches a request-scoped logger to the context and
// logs one line per request once the handler returns. It must run after
// RequestIDMiddleware.
func AccessLogMiddleware(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			reqLogger := logger.With(zap.String("request.id", RequestIDFrom(r)))
			r = r.WithContext(ContextWithLogger(r.Context(), reqLogger))

			next.ServeHTTP(rw, r)

			reqLogger.Info("request",
				zap.String("request.method", r.Method),
				zap.String("request.path", r.URL.Path),
				zap.String("request.ip", ClientIP(r)),
				zap.Int("response.status", rw.statusCode),
				zap.Int64("response.bytes", rw.bytesWritten),
				zap.Duration("request.duration", time.Since(start)),
			)
		})
	}
}

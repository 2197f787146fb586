package httpx

import (
	"net/http"

	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into a 500 response. It must sit
// inside AccessLogMiddleware so the panic is logged with the request id.
// Writers placed between the two are seen through their Unwrap method.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				LoggerFrom(r.Context()).Error("panic recovered",
					zap.Any("error", err),
					zap.Stack("stack"),
				)

				if !headerWritten(w) {
					w.Header().Set("Connection", "close")
					JSONInternalError(w)
				}
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// headerWritten follows Unwrap until it reaches the access log writer.
func headerWritten(w http.ResponseWriter) bool {
	for {
		switch v := w.(type) {
		case *responseWriter:
			return v.wroteHeader()
		case interface{ Unwrap() http.ResponseWriter }:
			w = v.Unwrap()
		default:
			return false
		}
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a request when no explicit timeout is configured
const DefaultRequestTimeout = 30 * time.Second

// Timeout puts a deadline on the request context. Handlers map context.DeadlineExceeded from
// the store or upstream APIs to their own response; if a handler returns after the deadline
// without writing anything, a 504 envelope is written here.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			if !rec.wrote() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				writeError(w, r, http.StatusGatewayTimeout, "Request timed out")
			}
		})
	}
}

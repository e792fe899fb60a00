// Package request holds the per-request values shared by middleware, handlers and
// the services they call.
package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/benvon/keyword-rotator/internal/models"
)

// HeaderRequestID is read from callers and echoed on every response.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLength caps caller supplied IDs so they cannot bloat logs.
const maxRequestIDLength = 64

type contextKey int

const (
	adminKey contextKey = iota
	requestIDKey
)

// AdminContextKey returns the context key used for admin claims. Exposed for tests that inject other values.
func AdminContextKey() any { return adminKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
// The port is stripped from RemoteAddr so rate limit keys do not change per connection.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithAdmin returns a context with the verified admin claims attached.
func WithAdmin(ctx context.Context, claims *models.AdminClaims) context.Context {
	return context.WithValue(ctx, adminKey, claims)
}

// AdminFromContext returns the admin claims from the request context, or nil if missing or wrong type.
func AdminFromContext(r *http.Request) *models.AdminClaims {
	c, _ := r.Context().Value(adminKey).(*models.AdminClaims)
	return c
}

// WithID attaches a request ID to ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ID returns the request ID carried by ctx, or "".
func ID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// IncomingID returns the caller's X-Request-ID when it is short and printable, else "".
func IncomingID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
	if id == "" || len(id) > maxRequestIDLength {
		return ""
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return ""
		}
	}
	return id
}

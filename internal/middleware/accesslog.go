package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/benvon/keyword-rotator/internal/logger"
	"github.com/benvon/keyword-rotator/internal/request"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AccessLog assigns every request an ID, echoes it in X-Request-ID and writes one
// structured line per request once the handler returns. Auth failures and rate limit
// rejections are logged at warn level under their own event names so they can be alerted on.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := request.IncomingID(r)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(request.HeaderRequestID, id)
			r = r.WithContext(request.WithID(r.Context(), id))

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.Int("status_code", rec.Status()),
				zap.Int64("bytes", rec.bytes),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
				fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
			}

			switch rec.Status() {
			case http.StatusUnauthorized, http.StatusForbidden:
				logger.Warn("security_event", fields...)
			case http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation", fields...)
			default:
				logger.Info("http_request", fields...)
			}
		})
	}
}

// statusRecorder captures the status code and body size written by the wrapped handler.
// status stays 0 until the handler writes anything.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += int64(n)
	return n, err
}

// Status reports what the client saw; a handler that wrote nothing produced an implicit 200.
func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

func (s *statusRecorder) wrote() bool { return s.status != 0 }

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

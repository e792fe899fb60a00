package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/keyword-rotator/internal/request"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAccessLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantEvent string
		wantLevel zapcore.Level
	}{
		{name: "ok", status: http.StatusOK, body: "ok", wantEvent: "http_request", wantLevel: zapcore.InfoLevel},
		{name: "implicit 200", wantEvent: "http_request", wantLevel: zapcore.InfoLevel},
		{name: "unauthorized", status: http.StatusUnauthorized, wantEvent: "security_event", wantLevel: zapcore.WarnLevel},
		{name: "forbidden", status: http.StatusForbidden, wantEvent: "security_event", wantLevel: zapcore.WarnLevel},
		{name: "rate limited", status: http.StatusTooManyRequests, wantEvent: "rate_limit_violation", wantLevel: zapcore.WarnLevel},
		{name: "server error", status: http.StatusInternalServerError, wantEvent: "http_request", wantLevel: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			handler := AccessLog(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/keywords/active", nil))

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("got %d log entries, want 1", len(entries))
			}
			entry := entries[0]
			if entry.Message != tt.wantEvent {
				t.Errorf("event = %q, want %q", entry.Message, tt.wantEvent)
			}
			if entry.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", entry.Level, tt.wantLevel)
			}

			fields := entry.ContextMap()
			wantStatus := tt.status
			if wantStatus == 0 {
				wantStatus = http.StatusOK
			}
			if got := fields["status_code"]; got != int64(wantStatus) {
				t.Errorf("status_code = %v, want %d", got, wantStatus)
			}
			if got := fields["bytes"]; got != int64(len(tt.body)) {
				t.Errorf("bytes = %v, want %d", got, len(tt.body))
			}
			if got := fields["request_id"]; got != rec.Header().Get(request.HeaderRequestID) {
				t.Errorf("request_id = %v, want the echoed header %q", got, rec.Header().Get(request.HeaderRequestID))
			}
		})
	}
}

func TestAccessLog_RequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{name: "generated when absent"},
		{name: "caller id kept", incoming: "trace-abc-123", wantSame: true},
		{name: "unprintable caller id replaced", incoming: "bad id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			handler := AccessLog(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = request.ID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			if tt.incoming != "" {
				req.Header.Set(request.HeaderRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			echoed := rec.Header().Get(request.HeaderRequestID)
			if echoed == "" || echoed != seen {
				t.Fatalf("echoed id %q does not match context id %q", echoed, seen)
			}
			if tt.wantSame {
				if echoed != tt.incoming {
					t.Errorf("request id = %q, want caller id %q", echoed, tt.incoming)
				}
				return
			}
			if _, err := uuid.Parse(echoed); err != nil {
				t.Errorf("generated request id %q is not a uuid: %v", echoed, err)
			}
		})
	}
}

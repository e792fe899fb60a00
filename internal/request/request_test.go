package request

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/keyword-rotator/internal/models"
)

func TestClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "", "1.2.3.4"},
		{"x-forwarded-for first", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8 "}, "", "1.2.3.4"},
		{"x-real-ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "", "9.9.9.9"},
		{"remote addr strips port", nil, "10.0.0.1:12345", "10.0.0.1"},
		{"remote addr without port", nil, "10.0.0.1", "10.0.0.1"},
		{"empty xff falls through", map[string]string{"X-Forwarded-For": " , 5.6.7.8"}, "10.0.0.2:80", "10.0.0.2"},
		{"xff over xri", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"}, "", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			got := ClientIP(r)
			if got != tt.wantIP {
				t.Errorf("ClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestAdminFromContext(t *testing.T) {
	t.Parallel()
	c := &models.AdminClaims{Subject: "ops", Scopes: []string{"keywords:admin"}}
	ctx := WithAdmin(context.Background(), c)
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	got := AdminFromContext(r)
	if got != c {
		t.Errorf("AdminFromContext() = %p, want %p", got, c)
	}
	if got != nil && got.Subject != "ops" {
		t.Errorf("AdminFromContext().Subject = %q, want ops", got.Subject)
	}
}

func TestAdminFromContext_NoClaims(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest("GET", "/", nil)
	got := AdminFromContext(r)
	if got != nil {
		t.Errorf("AdminFromContext() = %+v, want nil", got)
	}
}

func TestAdminFromContext_WrongType(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), AdminContextKey(), "not claims")
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	got := AdminFromContext(r)
	if got != nil {
		t.Errorf("AdminFromContext() = %+v, want nil when wrong type", got)
	}
}

func TestID(t *testing.T) {
	t.Parallel()
	if got := ID(context.Background()); got != "" {
		t.Errorf("ID() on empty context = %q, want empty", got)
	}
	ctx := WithID(context.Background(), "req-1")
	if got := ID(ctx); got != "req-1" {
		t.Errorf("ID() = %q, want req-1", got)
	}
}

func TestIncomingID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"absent", "", ""},
		{"plain", "abc-123", "abc-123"},
		{"trimmed", "  abc-123 ", "abc-123"},
		{"control characters", "abc\x01def", ""},
		{"inner space", "abc def", ""},
		{"too long", strings.Repeat("a", 65), ""},
		{"max length", strings.Repeat("a", 64), strings.Repeat("a", 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set(HeaderRequestID, tt.header)
			}
			if got := IncomingID(r); got != tt.want {
				t.Errorf("IncomingID() = %q, want %q", got, tt.want)
			}
		})
	}
}

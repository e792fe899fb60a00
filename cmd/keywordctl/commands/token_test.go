package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/benvon/keyword-rotator/internal/services/admintoken"
)

func TestTokenCmd(t *testing.T) {
	secret := strings.Repeat("s", 32)
	t.Setenv("ADMIN_JWT_SECRET", secret)

	cmd := NewTokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--subject", "ops", "--ttl", "1h"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	verifier, err := admintoken.NewVerifier(secret)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	claims, err := verifier.Verify(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "ops" {
		t.Errorf("subject = %q, want ops", claims.Subject)
	}
	if d := claims.ExpiresAt.Sub(claims.IssuedAt); d != time.Hour {
		t.Errorf("lifetime = %v, want 1h", d)
	}
}

func TestTokenCmd_MissingSecret(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "")

	cmd := NewTokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err == nil {
		t.Error("expected error without a secret")
	}
}

func TestDiversifyCmd(t *testing.T) {
	t.Parallel()

	cmd := NewDiversifyCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"artificial", "intelligence", "--count", "5"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5: %q", len(lines), lines)
	}
	if lines[0] != "artificial intelligence tutorial" {
		t.Errorf("first query = %q", lines[0])
	}
}

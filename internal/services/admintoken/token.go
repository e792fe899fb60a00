package admintoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// Issuer is the iss claim of every admin token
	Issuer = "keyword-rotator"
	// AdminScope grants access to the mutating keyword routes
	AdminScope = "keywords:admin"
	// DefaultTTL is the lifetime of a minted token
	DefaultTTL = 24 * time.Hour

	scopeClaim = "scope"
	// minSecretLength is the HS256 key size in bytes
	minSecretLength = 32
)

var (
	// ErrNoSecret is returned when admin auth is not configured
	ErrNoSecret = errors.New("admin token secret is not configured")
	// ErrMissingScope is returned for a valid token without the admin scope
	ErrMissingScope = errors.New("token is missing the " + AdminScope + " scope")
)

// Verifier verifies HS256 admin tokens
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier for tokens signed with secret
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("admin token secret must be at least %d bytes", minSecretLength)
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Verify parses and validates tokenString and returns its claims. The token must carry
// the admin scope.
func (v *Verifier) Verify(tokenString string) (*models.AdminClaims, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(Issuer),
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	claims := &models.AdminClaims{
		Subject:   token.Subject(),
		Scopes:    scopesOf(token),
		IssuedAt:  token.IssuedAt(),
		ExpiresAt: token.Expiration(),
	}
	if !claims.HasScope(AdminScope) {
		return nil, ErrMissingScope
	}
	return claims, nil
}

// scopesOf reads the scope claim, accepting the OAuth space-separated string or a list
func scopesOf(token jwt.Token) []string {
	raw, ok := token.Get(scopeClaim)
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		return strings.Fields(v)
	case []any:
		scopes := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				scopes = append(scopes, str)
			}
		}
		return scopes
	case []string:
		return v
	}
	return nil
}

// Issue mints an admin token for subject valid for ttl (DefaultTTL when zero)
func Issue(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	token, err := jwt.NewBuilder().
		Issuer(Issuer).
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim(scopeClaim, AdminScope).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

package models

import (
	"slices"
	"time"
)

// AdminClaims represents the verified claims of an admin bearer token
type AdminClaims struct {
	Subject   string    `json:"sub"`
	Scopes    []string  `json:"scopes"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// HasScope reports whether the token grants scope
func (c *AdminClaims) HasScope(scope string) bool {
	return c != nil && slices.Contains(c.Scopes, scope)
}

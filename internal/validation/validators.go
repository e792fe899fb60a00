package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"github.com/go-playground/validator/v10"
)

// MaxKeywordLength bounds a single keyword or topic
const MaxKeywordLength = 200

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators
	// These should never fail in normal operation
	if err := Validate.RegisterValidation("rotation_date", validateRotationDate); err != nil {
		panic(fmt.Sprintf("failed to register rotation_date validator: %v", err))
	}
	if err := Validate.RegisterValidation("keyword", validateKeyword); err != nil {
		panic(fmt.Sprintf("failed to register keyword validator: %v", err))
	}
}

// validateRotationDate accepts a date key or a timestamp rotation.ParseDate understands
func validateRotationDate(fl validator.FieldLevel) bool {
	return ValidateRotationDate(fl.Field().String()) == nil
}

// validateKeyword requires text that is still non-empty after sanitization
func validateKeyword(fl validator.FieldLevel) bool {
	value := SanitizeText(fl.Field().String())
	return value != "" && len(value) <= MaxKeywordLength
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// SanitizeKeywords sanitizes each keyword and drops the ones left empty
func SanitizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if s := SanitizeText(kw); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ValidateRotationDate validates a date query or body value
func ValidateRotationDate(value string) error {
	if _, err := rotation.ParseDate(value, time.UTC); err != nil {
		return fmt.Errorf("invalid date: %s (must be YYYY-MM-DD or an RFC 3339 timestamp)", value)
	}
	return nil
}

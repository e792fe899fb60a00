package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxKeywordLength is the maximum length for a single keyword in logs
	MaxKeywordLength = 200
	// MaxKeywordsLogged caps how many keywords of a list are logged
	MaxKeywordsLogged = 20
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the maximum length for general strings in logs
	MaxGeneralStringLength = 2000
)

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeString removes control characters, truncates to maxLength and repairs UTF-8
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = sanitizeFilterRunes(s)
	if len(s) <= maxLength {
		return s
	}
	// Cut on a rune boundary so truncation never produces invalid UTF-8
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// sanitizeFilterRunes validates UTF-8 and removes control characters (keeps printable, space, tab, newline, CR).
func sanitizeFilterRunes(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// SanitizeError sanitizes an error message for safe logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeKeyword sanitizes user supplied keyword text before it is logged
func SanitizeKeyword(keyword string) string {
	return SanitizeString(strings.TrimSpace(keyword), MaxKeywordLength)
}

// SanitizeKeywords sanitizes a keyword list, keeping at most MaxKeywordsLogged entries
func SanitizeKeywords(keywords []string) []string {
	n := len(keywords)
	if n > MaxKeywordsLogged {
		n = MaxKeywordsLogged
	}
	out := make([]string, 0, n)
	for _, kw := range keywords[:n] {
		out = append(out, SanitizeKeyword(kw))
	}
	return out
}

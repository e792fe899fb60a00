package rotation

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxIDLength = 64

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9_]+`)
	// keywordIDNamespace scopes the name-based UUIDs used for collision suffixes
	keywordIDNamespace = uuid.MustParse("6f1c3b0e-8a51-4d0c-9a5e-2b7f4e9d1c42")
)

// NormalizeKeyword lowercases kw and collapses whitespace runs to single spaces
func NormalizeKeyword(kw string) string {
	return strings.ToLower(strings.Join(strings.Fields(kw), " "))
}

// KeywordID derives the pool id of a keyword: lowercase, whitespace runs to "_",
// everything outside [a-z0-9_] dropped, truncated to 64 bytes. It is empty for
// input with no ASCII letters or digits.
func KeywordID(kw string) string {
	slug := strings.ReplaceAll(NormalizeKeyword(kw), " ", "_")
	slug = nonSlugChars.ReplaceAllString(slug, "")
	if len(slug) > maxIDLength {
		slug = slug[:maxIDLength]
	}
	return slug
}

// CollisionID is the fallback id used when KeywordID is empty or already belongs to a
// different keyword. The suffix is a stable hash of the normalized text.
func CollisionID(kw string) string {
	sum := uuid.NewSHA1(keywordIDNamespace, []byte(NormalizeKeyword(kw)))
	suffix := strings.ReplaceAll(sum.String(), "-", "")[:8]

	slug := KeywordID(kw)
	if slug == "" {
		return "kw_" + suffix
	}
	if limit := maxIDLength - len(suffix) - 1; len(slug) > limit {
		slug = slug[:limit]
	}
	return slug + "_" + suffix
}

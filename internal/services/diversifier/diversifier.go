package diversifier

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultTargetCount is used when the caller does not ask for a specific number of queries
const DefaultTargetCount = 20

// variantTemplateCount is how many of the leading templates are applied to semantic variants
const variantTemplateCount = 3

var templates = []string{
	"%s tutorial",
	"how to %s",
	"%s tips",
	"%s for beginners",
	"best %s",
	"%s explained",
	"%s guide",
}

// semanticVariants maps a lowercase seed to closely related search terms
var semanticVariants = map[string][]string{
	"artificial intelligence": {"ai", "machine learning", "ai tools"},
	"machine learning":        {"ml", "deep learning", "ai models"},
	"ai":                      {"artificial intelligence", "ai tools", "chatgpt"},
	"cooking":                 {"recipes", "home cooking", "meal prep"},
	"fitness":                 {"workout", "exercise", "gym routine"},
	"productivity":            {"time management", "focus tips", "work efficiency"},
	"personal finance":        {"budgeting", "investing", "saving money"},
	"marketing":               {"social media marketing", "content marketing", "branding"},
	"photography":             {"photo editing", "camera settings", "mobile photography"},
	"travel":                  {"travel tips", "budget travel", "travel vlog"},
	"skincare":                {"skin care routine", "skincare products", "glowing skin"},
	"coding":                  {"programming", "software development", "learn to code"},
}

var seasonalTemplates = map[string][]string{
	"winter": {"winter %s", "%s for winter", "holiday %s"},
	"spring": {"spring %s", "%s for spring", "spring refresh %s"},
	"summer": {"summer %s", "%s for summer", "summer vacation %s"},
	"fall":   {"fall %s", "%s for fall", "back to school %s"},
}

// Diversifier expands a seed keyword into search query variations
type Diversifier struct {
	now func() time.Time
}

// Option configures a Diversifier
type Option func(*Diversifier)

// WithClock replaces time.Now, which drives the temporal and seasonal modifiers
func WithClock(now func() time.Time) Option {
	return func(d *Diversifier) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a Diversifier
func New(opts ...Option) *Diversifier {
	d := &Diversifier{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GenerateDiverseQueries returns up to targetCount distinct queries built from keyword, in
// insertion order: templates, semantic variants, temporal modifiers, then seasonal ones.
// A non-positive targetCount means DefaultTargetCount. Blank input yields an empty slice.
func (d *Diversifier) GenerateDiverseQueries(keyword string, targetCount int) []string {
	kw := strings.Join(strings.Fields(keyword), " ")
	if kw == "" {
		return []string{}
	}
	if targetCount <= 0 {
		targetCount = DefaultTargetCount
	}

	out := make([]string, 0, targetCount)
	seen := make(map[string]bool)
	add := func(q string) bool {
		if len(out) >= targetCount {
			return false
		}
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
		return len(out) < targetCount
	}

	for _, tpl := range templates {
		if !add(fill(tpl, kw)) {
			return out
		}
	}

	for _, variant := range Variants(kw) {
		for _, tpl := range templates[:variantTemplateCount] {
			if !add(fill(tpl, variant)) {
				return out
			}
		}
	}

	now := d.now()
	for _, mod := range TemporalModifiers(now) {
		if !add(mod+" "+kw) || !add(kw+" "+mod) {
			return out
		}
	}

	for _, tpl := range seasonalTemplates[Season(now.Month())] {
		if !add(fill(tpl, kw)) {
			return out
		}
	}

	return out
}

// Variants returns related terms for kw from the curated table, or heuristic rewrites
// (hyphen removal and title case) when kw is not in it. kw itself is never included.
func Variants(kw string) []string {
	lower := strings.ToLower(kw)
	if v, ok := semanticVariants[lower]; ok {
		return append([]string(nil), v...)
	}

	var out []string
	addVariant := func(v string) {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" || v == kw {
			return
		}
		for _, existing := range out {
			if existing == v {
				return
			}
		}
		out = append(out, v)
	}
	if strings.Contains(kw, "-") {
		addVariant(strings.ReplaceAll(kw, "-", " "))
	}
	addVariant(titleCase(kw))
	return out
}

// TemporalModifiers returns the year and freshness words combined with the seed
func TemporalModifiers(now time.Time) []string {
	year := now.Year()
	return []string{
		strconv.Itoa(year),
		strconv.Itoa(year + 1),
		"latest",
		"trending",
	}
}

// Season maps a month to its northern hemisphere season
func Season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}

func fill(tpl, kw string) string {
	return strings.Replace(tpl, "%s", kw, 1)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

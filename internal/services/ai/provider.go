package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// KeywordSuggester proposes new search keywords for the rotation pool
type KeywordSuggester interface {
	// SuggestKeywords returns up to n short keywords related to topic. Keywords in exclude
	// are already pooled and should not be repeated.
	SuggestKeywords(ctx context.Context, topic string, n int, exclude []string) ([]string, error)
}

// ProviderConfig carries the AI_* settings a provider is built from
type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Logger   *zap.Logger
	Debug    bool
}

// ErrNotConfigured means the selected provider lacks the settings it needs
var ErrNotConfigured = errors.New("ai provider not configured")

// ProviderFactory builds a suggester from cfg
type ProviderFactory func(cfg ProviderConfig) (KeywordSuggester, error)

// ProviderRegistry maps AI_PROVIDER names to factories
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates an empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]ProviderFactory)}
}

// Register adds or replaces a provider. Names are case-insensitive.
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[strings.ToLower(name)] = factory
}

// Names lists the registered providers in sorted order
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the suggester cfg.Provider names
func (r *ProviderRegistry) Build(cfg ProviderConfig) (KeywordSuggester, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: cfg.Provider, Available: r.Names()}
	}
	return factory(cfg)
}

// ErrProviderNotFound is returned for an unknown AI_PROVIDER
type ErrProviderNotFound struct {
	Name      string
	Available []string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("AI provider %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// DefaultRegistry returns a registry with the built-in providers
func DefaultRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	RegisterOpenAI(r)
	return r
}

// NewSuggester builds the configured suggester from the default registry. An empty
// provider name selects openai.
func NewSuggester(cfg ProviderConfig) (KeywordSuggester, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	return DefaultRegistry().Build(cfg)
}

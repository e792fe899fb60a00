package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// MaxSuggestions caps a single suggestion request
	MaxSuggestions = 25
	// MaxKeywordWords drops suggestions that read like sentences
	MaxKeywordWords = 5
	// maxExcludedInPrompt bounds the already-pooled list sent with a request
	maxExcludedInPrompt = 100

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements KeywordSuggester using OpenAI's chat completions API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

var _ KeywordSuggester = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// SuggestKeywords asks the model for n keywords related to topic
func (p *OpenAIProvider) SuggestKeywords(ctx context.Context, topic string, n int, exclude []string) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	if n <= 0 {
		n = 10
	}
	if n > MaxSuggestions {
		n = MaxSuggestions
	}

	prompt := buildSuggestionPrompt(topic, n, exclude)
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You suggest short-form video search keywords for content creators. Respond with valid JSON only."),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := ExtractRequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "suggest_keywords"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		p.logger.Warn("llm_api_error",
			zap.String("operation", "suggest_keywords"),
			zap.String("model", p.model),
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to suggest keywords: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to suggest keywords: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "suggest_keywords"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return parseSuggestionResponse(content, n, exclude)
}

func buildSuggestionPrompt(topic string, n int, exclude []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d distinct TikTok search keywords about %q.\n", n, topic)
	b.WriteString("Each keyword must be 1 to 5 words, lowercase, with no hashtags, emojis or punctuation.\n")
	b.WriteString("Avoid news, politics and current events.\n")
	if len(exclude) > 0 {
		if len(exclude) > maxExcludedInPrompt {
			exclude = exclude[:maxExcludedInPrompt]
		}
		b.WriteString("Do not repeat any of these existing keywords: ")
		b.WriteString(strings.Join(exclude, ", "))
		b.WriteString("\n")
	}
	b.WriteString(`Respond as {"keywords": ["keyword one", "keyword two"]}.`)
	return b.String()
}

// parseSuggestionResponse decodes {"keywords": [...]}, tolerating prose around the JSON.
// Entries are trimmed, stripped of leading '#', deduplicated and capped at n.
func parseSuggestionResponse(content string, n int, exclude []string) ([]string, error) {
	var out struct {
		Keywords []string `json:"keywords"`
	}
	raw := content
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
			return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
		}
	}

	skip := make(map[string]bool, len(exclude))
	for _, kw := range exclude {
		skip[strings.ToLower(strings.TrimSpace(kw))] = true
	}

	keywords := make([]string, 0, n)
	for _, kw := range out.Keywords {
		kw = strings.Join(strings.Fields(strings.TrimLeft(strings.TrimSpace(kw), "#")), " ")
		key := strings.ToLower(kw)
		if kw == "" || skip[key] || len(strings.Fields(kw)) > MaxKeywordWords {
			continue
		}
		skip[key] = true
		keywords = append(keywords, kw)
		if len(keywords) == n {
			break
		}
	}
	return keywords, nil
}

// Provider names served by OpenAIProvider
const (
	ProviderOpenAI = "openai"
	// ProviderOpenAICompatible targets self-hosted servers speaking the OpenAI API.
	// AI_BASE_URL is required and the API key may be empty.
	ProviderOpenAICompatible = "openai-compatible"
)

// placeholderAPIKey is sent to compatible servers that ignore authentication
const placeholderAPIKey = "unused"

// RegisterOpenAI registers the OpenAI backed providers with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register(ProviderOpenAI, func(cfg ProviderConfig) (KeywordSuggester, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required", ErrNotConfigured)
		}
		return NewOpenAIProviderWithLogger(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Logger, cfg.Debug), nil
	})
	registry.Register(ProviderOpenAICompatible, func(cfg ProviderConfig) (KeywordSuggester, error) {
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: AI_BASE_URL is required for %s", ErrNotConfigured, ProviderOpenAICompatible)
		}
		key := cfg.APIKey
		if key == "" {
			key = placeholderAPIKey
		}
		return NewOpenAIProviderWithLogger(key, cfg.BaseURL, cfg.Model, cfg.Logger, cfg.Debug), nil
	})
}

package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const providerRequestTimeout = 120 * time.Second

// NewProvider builds the backend for a provider kind. Generation calls run
// far longer than scraping, so the HTTP client carries its own timeout
// instead of the scraping one.
func NewProvider(ctx context.Context, kind string, apiKey string, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %s", kind)
	}
	if model == "" {
		return nil, fmt.Errorf("no model configured for provider %s", kind)
	}

	httpClient := &http.Client{Timeout: providerRequestTimeout}

	switch kind {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, httpClient), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, httpClient), nil
	case ProviderOpenRouter:
		return NewOpenRouterProvider(apiKey, model, httpClient), nil
	case ProviderGemini:
		return NewGeminiProvider(ctx, apiKey, model)
	default:
		return nil, fmt.Errorf("unknown provider kind: %s", kind)
	}
}

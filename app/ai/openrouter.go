package ai

import (
	"context"
	"net/http"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider proxies many upstream models behind the OpenAI chat
// completions protocol, so it reuses the shared chat client.
type OpenRouterProvider struct {
	client chatClient
}

var _ Provider = (*OpenRouterProvider)(nil)

func NewOpenRouterProvider(apiKey string, model string, httpClient *http.Client) *OpenRouterProvider {
	return &OpenRouterProvider{
		client: chatClient{
			baseURL:    openRouterBaseURL,
			apiKey:     apiKey,
			model:      model,
			httpClient: httpClient,
			headers: map[string]string{
				"X-Title": "Opportunity Harvester",
			},
		},
	}
}

func (p *OpenRouterProvider) Kind() string {
	return ProviderOpenRouter
}

func (p *OpenRouterProvider) GenerateContent(ctx context.Context, prompt string, systemMessage string, opts Options) (*Result, error) {
	return p.client.generate(ctx, prompt, systemMessage, opts)
}

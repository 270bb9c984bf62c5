package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider wraps the official genai SDK instead of hand-rolled HTTP;
// the SDK owns transport, retries, and the content part model.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

var _ Provider = (*GeminiProvider)(nil)

func NewGeminiProvider(ctx context.Context, apiKey string, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Kind() string {
	return ProviderGemini
}

func (p *GeminiProvider) GenerateContent(ctx context.Context, prompt string, systemMessage string, opts Options) (*Result, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if systemMessage != "" {
		config.SystemInstruction = genai.NewContentFromText(systemMessage, genai.RoleUser)
	}
	if opts.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("generation response contains no text")
	}

	out := &Result{Text: text}
	if result.UsageMetadata != nil {
		out.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}

	return out, nil
}

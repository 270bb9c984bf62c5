package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Settings is the slice of the settings store the orchestrator reads per
// call, so provider switches and key rotations apply without a restart.
type Settings interface {
	ActiveProvider() string
	ProviderAPIKey(kind string) string
	ProviderModel(kind string) string
	MaxTokens() int
	Temperature() float64
}

// Override carries a feed's provider pin. Empty fields fall back to the
// settings store values for the pinned kind.
type Override struct {
	Provider string
	Model    string
	APIKey   string
}

// Orchestrator resolves which provider serves a generation call, runs it,
// and validates the output into a Generated value.
type Orchestrator struct {
	settings    Settings
	newProvider func(ctx context.Context, kind string, apiKey string, model string) (Provider, error)
}

func NewOrchestrator(settings Settings) *Orchestrator {
	return &Orchestrator{
		settings:    settings,
		newProvider: NewProvider,
	}
}

// Generate runs one generation attempt end to end. Any failure, from
// provider resolution through output validation, surfaces as an error; the
// caller decides how a failed item affects the run.
func (o *Orchestrator) Generate(ctx context.Context, prompt string, systemMessage string, override *Override) (Generated, error) {
	kind, apiKey, model := o.resolve(override)
	if kind == "" {
		return nil, fmt.Errorf("no active AI provider configured")
	}

	provider, err := o.newProvider(ctx, kind, apiKey, model)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider %s: %w", kind, err)
	}

	opts := Options{
		MaxTokens:   o.settings.MaxTokens(),
		Temperature: o.settings.Temperature(),
		JSONMode:    true,
	}

	start := time.Now()
	result, err := provider.GenerateContent(ctx, prompt, systemMessage, opts)
	if err != nil {
		return nil, fmt.Errorf("generation failed on provider %s: %w", kind, err)
	}

	slog.Debug("Generation completed",
		"provider", kind,
		"model", model,
		"duration", time.Since(start).Round(time.Millisecond),
		"prompt_tokens", result.PromptTokens,
		"completion_tokens", result.CompletionTokens)

	generated, err := ParseGenerated(result.Text)
	if err != nil {
		return nil, fmt.Errorf("invalid output from provider %s: %w", kind, err)
	}

	return generated, nil
}

// resolve picks the provider kind and its credentials. A feed override wins
// when it names a provider with a usable key; a pinned provider that has no
// key anywhere falls back to the globally active provider.
func (o *Orchestrator) resolve(override *Override) (kind, apiKey, model string) {
	if override != nil && override.Provider != "" {
		kind = override.Provider
		apiKey = override.APIKey
		if apiKey == "" {
			apiKey = o.settings.ProviderAPIKey(kind)
		}
		if apiKey != "" {
			model = override.Model
			if model == "" {
				model = o.settings.ProviderModel(kind)
			}
			return kind, apiKey, model
		}
		slog.Warn("Pinned provider has no API key, using active provider", "pinned", kind)
	}

	kind = o.settings.ActiveProvider()
	if kind == "" {
		return "", "", ""
	}

	return kind, o.settings.ProviderAPIKey(kind), o.settings.ProviderModel(kind)
}

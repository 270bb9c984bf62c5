package ai

import (
	"context"
)

// Provider kinds. Adding a backend means adding a variant to the factory.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Options control a single generation call.
type Options struct {
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// Result is the uniform provider response. No backend-specific shape leaks
// past this struct.
type Result struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Provider is the single contract all generation backends implement.
type Provider interface {
	Kind() string
	GenerateContent(ctx context.Context, prompt string, systemMessage string, opts Options) (*Result, error)
}

// Generated is the validated output of a generation attempt: either Accepted
// or Rejected, enforced by the parser rather than optional-field discipline.
type Generated interface {
	isGenerated()
}

// Rejected means the model judged the content unusable.
type Rejected struct {
	Reason string
}

// Accepted carries the structured article fields. Title and Content are
// always present; the parser fails hard otherwise.
type Accepted struct {
	Title           string
	Excerpt         string
	Content         string
	Deadline        string
	PrizeValue      string
	Requirements    string
	Location        string
	ConfidenceScore float64
}

func (Rejected) isGenerated() {}
func (Accepted) isGenerated() {}

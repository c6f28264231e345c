package translator

import (
	"context"
	"strings"
)

// Prompt is a provider-agnostic prompt pair. Providers that have no system
// role concatenate the two parts.
type Prompt struct {
	System string
	User   string
}

// GenerateParams are the sampling controls passed to a provider.
type GenerateParams struct {
	Temperature float64
	Seed        *int
	MaxTokens   int
}

// Response is the raw provider output plus call metadata. It is transient:
// only the parsed Result is persisted.
type Response struct {
	Text        string
	Model       string
	LatencyMs   int64
	TotalTokens int
}

// Provider generates raw text for a prompt. Implementations surface failures
// as ErrProviderUnavailable, ErrProviderTimeout or ErrProviderAuth.
type Provider interface {
	Generate(ctx context.Context, prompt Prompt, params GenerateParams) (*Response, error)
	Name() string
}

type modelNameProvider interface {
	ModelName() string
}

func modelNameFromProvider(provider Provider) string {
	named, ok := provider.(modelNameProvider)
	if !ok {
		return ""
	}
	return strings.TrimSpace(named.ModelName())
}

// Package llm adapts hosted generative text models to a single prompt-in,
// text-out interface.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Generator sends a natural-language prompt and returns the model's raw text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Options selects and configures a provider.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// New builds the Generator for opts.Provider.
func New(ctx context.Context, opts Options) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderGemini, "":
		return NewGemini(ctx, opts.APIKey, opts.Model)
	case ProviderOpenAI:
		return NewOpenAI(opts.APIKey, opts.Model, opts.BaseURL)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

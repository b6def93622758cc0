package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// Gemini generates text with Google's Gemini models.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Generate sends prompt as a single user turn.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	m := g.client.GenerativeModel(g.model)

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	return textFromResponse(resp)
}

// Close releases the underlying gRPC connection.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// textFromResponse concatenates the text parts of the first candidate.
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", errors.New("gemini: empty content")
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: no text parts")
	}
	return b.String(), nil
}

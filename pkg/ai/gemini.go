// Package ai drafts follow-up messages with a hosted language model.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiDefaultModel = "gemini-1.5-flash"

// Generator defines the interface for text generation
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Close() error
}

// GeminiClient wraps the Gemini API client
type GeminiClient struct {
	genaiClient *genai.Client
	model       *genai.GenerativeModel
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a new Gemini client. An empty model selects the default.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = geminiDefaultModel
	}

	m := client.GenerativeModel(model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}
	m.SetTemperature(0.4)

	return &GeminiClient{
		genaiClient: client,
		model:       m,
	}, nil
}

// Close closes the client
func (c *GeminiClient) Close() error {
	return c.genaiClient.Close()
}

// GenerateText generates text from a prompt
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	return sb.String(), nil
}

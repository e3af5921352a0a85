package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type geminiProvider struct{}

func (geminiProvider) Name() string         { return ProviderGemini }
func (geminiProvider) DefaultModel() string { return defaultGeminiModel }

func (geminiProvider) NewCompleter(apiKey string) (Completer, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &geminiCompleter{client: client}, nil
}

type geminiCompleter struct {
	client *genai.Client
}

func (g *geminiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		req.Model,
		genai.Text(req.UserContent),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
			MaxOutputTokens:   int32(req.MaxOutputTokens),
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

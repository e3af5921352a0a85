package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

type anthropicProvider struct{}

func (anthropicProvider) Name() string         { return ProviderAnthropic }
func (anthropicProvider) DefaultModel() string { return defaultAnthropicModel }

func (anthropicProvider) NewCompleter(apiKey string) (Completer, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	return &anthropicCompleter{client: anthropic.NewClient(option.WithAPIKey(apiKey))}, nil
}

type anthropicCompleter struct {
	client anthropic.Client
}

func (a *anthropicCompleter) Complete(ctx context.Context, req Request) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxOutputTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemInstruction},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserContent)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}
	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", ErrEmptyCompletion
}

// Package llm is the narrow contract to external text-completion services.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Request is one completion call: a fixed system instruction plus the user message.
type Request struct {
	SystemInstruction string
	UserContent       string
	Model             string
	MaxOutputTokens   int
}

// Completer produces text for a request or fails with a transport, auth or quota error.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Provider builds completers bound to one credential.
type Provider interface {
	Name() string
	DefaultModel() string
	NewCompleter(apiKey string) (Completer, error)
}

// ErrNoCredential is returned when a provider is asked for a completer without a key.
var ErrNoCredential = errors.New("no API key")

// ErrEmptyCompletion is returned when the service answered with no text.
var ErrEmptyCompletion = errors.New("empty completion")

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Settings selects and tunes a provider.
type Settings struct {
	Provider string
	// GatewayURL overrides the OpenAI-compatible chat completions endpoint.
	GatewayURL string
	// MaxRetryTime bounds backoff retries inside one Complete call.
	MaxRetryTime time.Duration
	HTTPTimeout  time.Duration
}

// NewProvider returns the provider named in s.
func NewProvider(s Settings) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case ProviderOpenAI, "", "gateway":
		return newGatewayProvider(s), nil
	case ProviderAnthropic:
		return anthropicProvider{}, nil
	case ProviderGemini:
		return geminiProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want openai, anthropic or gemini)", s.Provider)
	}
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"hr-insights-go/internal/logger"
)

const (
	defaultGatewayURL   = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel  = "gpt-4o"
	defaultHTTPTimeout  = 25 * time.Second
	defaultMaxRetryTime = 20 * time.Second
	maxResponseBytes    = 4 << 20
)

// gatewayProvider talks to any OpenAI-compatible chat completions endpoint.
type gatewayProvider struct {
	url          string
	client       *http.Client
	maxRetryTime time.Duration
}

func newGatewayProvider(s Settings) gatewayProvider {
	p := gatewayProvider{
		url:          s.GatewayURL,
		maxRetryTime: s.MaxRetryTime,
	}
	if p.url == "" {
		p.url = defaultGatewayURL
	}
	if p.maxRetryTime <= 0 {
		p.maxRetryTime = defaultMaxRetryTime
	}
	timeout := s.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	p.client = &http.Client{Timeout: timeout}
	return p
}

func (p gatewayProvider) Name() string         { return ProviderOpenAI }
func (p gatewayProvider) DefaultModel() string { return defaultOpenAIModel }

func (p gatewayProvider) NewCompleter(apiKey string) (Completer, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	return &gatewayCompleter{provider: p, apiKey: apiKey}, nil
}

type gatewayCompleter struct {
	provider gatewayProvider
	apiKey   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// Complete posts the chat request, retrying with exponential backoff.
// 4xx responses other than 429 are permanent.
func (g *gatewayCompleter) Complete(ctx context.Context, req Request) (string, error) {
	log := logger.New().Component("llm-gateway")

	data, err := json.Marshal(chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemInstruction},
			{Role: "user", Content: req.UserContent},
		},
		MaxTokens: req.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	log.WithField("payload_len", len(data)).Debug("llm request payload")

	var out string
	var lastErr error
	op := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.provider.url, bytes.NewReader(data))
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := g.provider.client.Do(httpReq)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("llm request failed")
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			lastErr = fmt.Errorf("reading response: %w", err)
			return lastErr
		}
		log.WithField("http_status", resp.StatusCode).Debug("llm raw response received")

		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("llm gateway returned %d: %s", resp.StatusCode, apiErrorMessage(body))
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(lastErr)
			}
			return lastErr
		}

		text, err := contentFromChoices(body)
		if err != nil {
			lastErr = err
			return err
		}
		out = text
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = g.provider.maxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return "", fmt.Errorf("llm completion failed: %w", lastErr)
	}
	return out, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// contentFromChoices reads choices[0].message.content.
func contentFromChoices(body []byte) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing llm response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in llm response")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func apiErrorMessage(body []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

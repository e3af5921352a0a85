// Package app wires configuration into a ready engine and negotiator.
package app

import (
	"context"
	"fmt"

	"hr-insights-go/internal/cache"
	"hr-insights-go/internal/config"
	"hr-insights-go/internal/llm"
	"hr-insights-go/internal/logger"
	"hr-insights-go/internal/pipeline"
	"hr-insights-go/internal/processor"
)

type App struct {
	Config     config.Config
	Engine     *pipeline.Engine
	Negotiator *processor.Negotiator

	closers []func() error
}

// Sources lists the record files named in cfg.
func Sources(cfg config.Config) []pipeline.Source {
	return []pipeline.Source{
		{Name: pipeline.Entry, Label: "Employment entry", Path: cfg.EntryDataPath},
		{Name: pipeline.Exit, Label: "Employment exit", Path: cfg.ExitDataPath},
	}
}

// completionSettings bounds each provider HTTP call by the answer timeout.
func completionSettings(cfg config.Config) llm.Settings {
	return llm.Settings{
		Provider:     cfg.LLMProvider,
		GatewayURL:   cfg.LLMGatewayURL,
		MaxRetryTime: cfg.LLMMaxRetry(),
		HTTPTimeout:  cfg.LLMTimeout(),
	}
}

// New loads the datasets and builds the negotiator. A configured but
// unreachable Redis disables caching instead of failing startup.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	engine, err := pipeline.Build(ctx, Sources(cfg), cfg.TopN, log)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(completionSettings(cfg))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	a := &App{Config: cfg, Engine: engine}

	var answers cache.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(cfg.RedisAddr, cfg.CacheTTL())
		if err != nil {
			log.WithError(err).WithField("redis_addr", cfg.RedisAddr).Warn("answer cache disabled")
		} else {
			answers = rc
			a.closers = append(a.closers, rc.Close)
		}
	}

	a.Negotiator = processor.New(provider, cfg.APIKey(), answers, processor.Options{
		Model:           cfg.LLMModel,
		MaxOutputTokens: cfg.LLMMaxOutputTokens,
		Timeout:         cfg.LLMTimeout(),
	}, log)

	log.WithField("provider", provider.Name()).
		WithField("default_credential", cfg.APIKey() != "").
		WithField("cache", answers != nil).
		WithField("datasets", engine.Names()).
		Info("engine ready")
	return a, nil
}

func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Package processor answers questions: deterministic intents first, the
// completion service only when no intent is confident.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hr-insights-go/internal/cache"
	"hr-insights-go/internal/intent"
	"hr-insights-go/internal/llm"
	"hr-insights-go/internal/logger"
	"hr-insights-go/internal/metrics"
	"hr-insights-go/internal/pipeline"
	"hr-insights-go/internal/types"
)

// ErrEmptyQuestion is returned for blank questions; callers map it to a 400.
var ErrEmptyQuestion = errors.New("question is required")

const (
	DefaultTimeout         = 30 * time.Second
	DefaultMaxOutputTokens = 800

	noCredentialDetail = "no completion credential configured; set LLM_API_KEY or send an api key with the request"
)

// SystemInstruction constrains the completion service to the supplied summary.
const SystemInstruction = "You are an analytics assistant for HR automation logs. " +
	"Answer only from the provided data summary. If the summary does not contain the answer, say so plainly. " +
	"Do not invent numbers. Keep answers short."

type Options struct {
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
}

// Negotiator owns the resolve-then-fallback flow. It is safe for concurrent use.
type Negotiator struct {
	resolver *intent.Resolver
	provider llm.Provider
	// defaultCompleter is resolved once at construction; nil when no default key works.
	defaultCompleter llm.Completer
	defaultDetail    string
	cache            cache.Cache
	opts             Options
	log              *logger.Logger
}

// New builds a negotiator. provider may be nil, in which case every
// unresolved question reports a fallback error. c may be nil to disable caching.
func New(provider llm.Provider, defaultKey string, c cache.Cache, opts Options, log *logger.Logger) *Negotiator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if opts.Model == "" && provider != nil {
		opts.Model = provider.DefaultModel()
	}
	n := &Negotiator{
		resolver:      intent.New(),
		provider:      provider,
		cache:         c,
		opts:          opts,
		log:           log.Component("negotiator"),
		defaultDetail: noCredentialDetail,
	}
	if provider != nil && defaultKey != "" {
		comp, err := provider.NewCompleter(defaultKey)
		if err != nil {
			n.log.WithError(err).Warn("default completion credential unusable")
			n.defaultDetail = fmt.Sprintf("default completion credential unusable: %v", err)
		} else {
			n.defaultCompleter = comp
		}
	}
	return n
}

// WithCompleter replaces the default completer. Used by tests and the CLI.
func (n *Negotiator) WithCompleter(c llm.Completer) *Negotiator {
	cp := *n
	cp.defaultCompleter = c
	return &cp
}

// Answer resolves question against ds. A non-nil error is returned only for
// an empty question; completion failures are reported in the response.
func (n *Negotiator) Answer(ctx context.Context, ds *pipeline.Dataset, question, credential string) (types.QueryResponse, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return types.QueryResponse{}, ErrEmptyQuestion
	}
	log := n.log.WithField("dataset", ds.Name)

	res := n.resolver.Resolve(ds.Input(q))
	if r, ok := res.(intent.Resolved); ok {
		metrics.RecordAnswer(ds.Name, metrics.OutcomeResolved)
		metrics.RecordIntent(r.Intent)
		log.WithField("intent", r.Intent).Debug("answered deterministically")
		return types.QueryResponse{Answer: r.Answer, Intent: r.Intent}, nil
	}

	fail := func(detail string) types.QueryResponse {
		metrics.RecordAnswer(ds.Name, metrics.OutcomeFallbackError)
		log.WithField("detail", detail).Warn("fallback unavailable")
		return types.QueryResponse{Answer: res.Text(), FallbackError: &detail}
	}

	completer, detail := n.completerFor(credential)
	if completer == nil {
		return fail(detail), nil
	}

	summary := ds.Context()
	key := cache.Key(ds.Name, intent.Fold(q), summary)
	if n.cache != nil {
		if hit, ok, err := n.cache.Get(ctx, key); err != nil {
			log.WithError(err).Warn("answer cache read failed")
		} else if ok {
			metrics.RecordAnswer(ds.Name, metrics.OutcomeCached)
			return types.QueryResponse{Answer: hit, UsedFallback: true}, nil
		}
	}

	text, err := n.complete(ctx, completer, llm.Request{
		SystemInstruction: SystemInstruction,
		UserContent:       fmt.Sprintf("Context:\n%s\n\nQuestion: %s", summary, q),
		Model:             n.opts.Model,
		MaxOutputTokens:   n.opts.MaxOutputTokens,
	})
	if err != nil {
		return fail(err.Error()), nil
	}

	if n.cache != nil {
		if err := n.cache.Set(ctx, key, text); err != nil {
			log.WithError(err).Warn("answer cache write failed")
		}
	}
	metrics.RecordAnswer(ds.Name, metrics.OutcomeFallback)
	return types.QueryResponse{Answer: text, UsedFallback: true}, nil
}

// completerFor prefers a per-request credential over the default one.
func (n *Negotiator) completerFor(credential string) (llm.Completer, string) {
	credential = strings.TrimSpace(credential)
	if credential != "" && n.provider != nil {
		comp, err := n.provider.NewCompleter(credential)
		if err != nil {
			return nil, fmt.Sprintf("request credential unusable: %v", err)
		}
		return comp, ""
	}
	if n.defaultCompleter != nil {
		return n.defaultCompleter, ""
	}
	return nil, n.defaultDetail
}

type completion struct {
	text string
	err  error
}

// complete bounds the call by the configured timeout even if the completer ignores ctx.
func (n *Negotiator) complete(ctx context.Context, c llm.Completer, req llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
	defer cancel()

	provider := "custom"
	if n.provider != nil {
		provider = n.provider.Name()
	}
	start := time.Now()

	ch := make(chan completion, 1)
	go func() {
		text, err := c.Complete(ctx, req)
		ch <- completion{text: text, err: err}
	}()

	var out completion
	select {
	case <-ctx.Done():
		out.err = fmt.Errorf("completion timed out after %s: %w", n.opts.Timeout, ctx.Err())
	case out = <-ch:
		out.text = strings.TrimSpace(out.text)
		if out.err == nil && out.text == "" {
			out.err = llm.ErrEmptyCompletion
		}
	}
	metrics.RecordCompletion(provider, out.err, time.Since(start))
	return out.text, out.err
}

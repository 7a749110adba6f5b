package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fieldops-ai/fieldops/internal/config"
	"github.com/fieldops-ai/fieldops/internal/domain"
	"github.com/fieldops-ai/fieldops/internal/metrics"
	transport "github.com/fieldops-ai/fieldops/internal/transport/openai"
)

// ChatCompleter is the chat backend handle the chain hands out.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	Provider() string
}

// Selection is the outcome of walking the chain: the first configured,
// constructible backend plus fallback bookkeeping.
type Selection struct {
	Client         ChatCompleter
	Model          Model
	FallbackUsed   bool
	FallbackReason string
}

// factory builds a backend handle for one candidate. Injectable for tests.
type factory func(apiKey, baseURL, provider string) (ChatCompleter, error)

// Chain selects the first usable backend from the static fallback order.
type Chain struct {
	providers map[string]config.LLMProviderConfig
	build     factory
	logger    *zap.Logger
}

// NewChain creates a provider chain over the configured credentials.
func NewChain(providers map[string]config.LLMProviderConfig, logger *zap.Logger) *Chain {
	return &Chain{
		providers: providers,
		build: func(apiKey, baseURL, provider string) (ChatCompleter, error) {
			return transport.NewChatClient(apiKey, baseURL, provider), nil
		},
		logger: logger,
	}
}

// Select walks the fallback order: unconfigured providers are skipped (the
// primary's skip reason is recorded), construction failures are skipped with
// the error as reason. The first usable candidate wins; FallbackUsed is true
// iff it was not the primary. All candidates exhausted yields
// domain.ErrProviderExhausted.
func (c *Chain) Select() (Selection, error) {
	var fallbackReason, metricReason string

	for i, model := range FallbackOrder {
		providerCfg, configured := c.lookupProvider(model.Provider)
		if !configured {
			if i == 0 {
				fallbackReason = model.DisplayName + " not configured"
			}
			metricReason = "not_configured"
			c.logger.Warn("skipping LLM provider: API key not configured",
				zap.String("model", model.DisplayName))
			continue
		}

		client, err := c.build(providerCfg.APIKey, c.baseURL(model.Provider, providerCfg), model.Provider)
		if err != nil {
			fallbackReason = fmt.Sprintf("%s error: %v", model.DisplayName, err)
			metricReason = transport.FailureReason(err)
			c.logger.Warn("failed to construct LLM backend",
				zap.String("model", model.DisplayName), zap.Error(err))
			continue
		}

		fallbackUsed := i > 0
		if fallbackUsed {
			reason := fallbackReason
			if reason == "" {
				reason = "primary unavailable"
			}
			if metricReason == "" {
				metricReason = "not_configured"
			}
			metrics.ProviderFallbacksTotal.WithLabelValues(
				FallbackOrder[0].Provider, model.Provider, metricReason,
			).Inc()
			c.logger.Info("using fallback LLM",
				zap.String("model", model.DisplayName), zap.String("reason", reason))
		} else {
			fallbackReason = ""
			c.logger.Info("using primary LLM", zap.String("model", model.DisplayName))
		}

		return Selection{
			Client:         client,
			Model:          model,
			FallbackUsed:   fallbackUsed,
			FallbackReason: fallbackReason,
		}, nil
	}

	return Selection{}, fmt.Errorf("%w: configure at least one provider API key", domain.ErrProviderExhausted)
}

func (c *Chain) lookupProvider(provider string) (config.LLMProviderConfig, bool) {
	cfg, ok := c.providers[provider]
	if !ok || cfg.APIKey == "" {
		return config.LLMProviderConfig{}, false
	}
	return cfg, true
}

func (c *Chain) baseURL(provider string, cfg config.LLMProviderConfig) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return defaultBaseURLs[provider]
}

package llms

import (
	"context"
	"strings"

	"github.com/routa-ai/routa/pkg/coordination"
)

// NewExecutor builds an executor for a named model config. A handler
// registered for the provider tag wins; otherwise the tag dispatches to a
// built-in builder.
func NewExecutor(ctx context.Context, cfg NamedModelConfig) (Executor, error) {
	tag := Provider(strings.ToUpper(strings.TrimSpace(cfg.Provider)))
	if tag == "" {
		return nil, coordination.NewError(coordination.KindBadInput, "model config %q has no provider", cfg.Name)
	}

	if handler, ok := GetProvider(tag); ok {
		if !handler.IsAvailable() {
			return nil, coordination.NewError(coordination.KindProviderUnavailable,
				"provider %s is registered but unavailable; check its local credentials", tag)
		}
		executor, err := handler.CreateExecutor(ctx, cfg)
		if err != nil {
			return nil, coordination.WrapError(coordination.KindProviderUnavailable, err, "provider %s failed to build an executor", tag)
		}
		if executor == nil {
			return nil, coordination.NewError(coordination.KindProviderUnavailable, "provider %s returned no executor", tag)
		}
		return executor, nil
	}

	baseURL := NormalizeBaseURL(cfg.BaseURL)

	switch tag {
	case ProviderAnthropic:
		return NewAnthropicExecutor(baseURL, cfg.APIKey, cfg.Model), nil

	case ProviderOpenAI, ProviderGoogle, ProviderDeepSeek, ProviderOllama,
		ProviderOpenRouter, ProviderGLM, ProviderQwen, ProviderKimi, ProviderMiniMax:
		if baseURL == "" {
			baseURL = GetDefaultBaseURL(tag)
		}
		return NewOpenAIExecutor(baseURL, cfg.APIKey, cfg.Model), nil

	case ProviderCustomOpenAIBase:
		if baseURL == "" {
			return nil, coordination.NewError(coordination.KindBadInput,
				"provider CUSTOM_OPENAI_BASE requires an explicit baseUrl")
		}
		return NewOpenAIExecutor(baseURL, cfg.APIKey, cfg.Model), nil

	default:
		return nil, coordination.NewError(coordination.KindBadInput, "unknown provider %q", cfg.Provider)
	}
}

package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/config"
	"github.com/zhouzirui/educhat/backend/internal/logging"
	"github.com/zhouzirui/educhat/backend/internal/model/chat"
	"github.com/zhouzirui/educhat/backend/internal/model/profile"
)

// Provider is a named response provider.
type Provider interface {
	Name() string
	Respond(ctx context.Context, query string) (string, error)
}

// SummarizingProvider is a Provider that can also condense transcripts.
type SummarizingProvider interface {
	Provider
	Summarize(ctx context.Context, messages []chat.Message) (string, error)
}

// NewProvider builds the provider selected by cfg.
func NewProvider(ctx context.Context, cfg config.AIConfig, assistant profile.Profile) (Provider, error) {
	name := cfg.ProviderName()
	system := SystemPrompt(assistant)

	var (
		provider Provider
		err      error
	)
	switch name {
	case config.ProviderArk:
		provider, err = NewArkService(ctx, cfg.Ark, system)
	case config.ProviderGemini:
		provider = NewGeminiProvider(cfg.Gemini, system)
	case config.ProviderOpenAI:
		provider = NewOpenAIProvider(cfg.OpenAI, system)
	case config.ProviderAnthropic:
		provider = NewAnthropicProvider(cfg.Anthropic, system)
	case config.ProviderEcho:
		provider = NewEchoProvider()
	default:
		return nil, fmt.Errorf("unknown AI provider %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", name, err)
	}

	logging.With(zap.String("provider", provider.Name())).Info("response provider ready")
	return provider, nil
}

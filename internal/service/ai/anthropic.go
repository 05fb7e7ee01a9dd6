package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zhouzirui/educhat/backend/internal/config"
	"github.com/zhouzirui/educhat/backend/internal/model/chat"
)

// AnthropicProvider answers queries with the Anthropic messages API.
type AnthropicProvider struct {
	cfg     config.AnthropicConfig
	system  string
	options []option.RequestOption

	mu     sync.Mutex
	client *anthropic.Client
}

// NewAnthropicProvider returns a lazily initialised Anthropic provider.
func NewAnthropicProvider(cfg config.AnthropicConfig, system string, opts ...option.RequestOption) *AnthropicProvider {
	return &AnthropicProvider{cfg: cfg, system: system, options: opts}
}

func (p *AnthropicProvider) Name() string { return config.ProviderAnthropic }

func (p *AnthropicProvider) getClient() (*anthropic.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if !p.cfg.Enabled() {
		return nil, fmt.Errorf("anthropic API key not configured")
	}

	options := []option.RequestOption{option.WithAPIKey(p.cfg.APIKey)}
	if p.cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(p.cfg.BaseURL))
	}
	options = append(options, p.options...)

	client := anthropic.NewClient(options...)
	p.client = &client
	return p.client, nil
}

// Respond sends query with the system prompt and joins the text blocks.
func (p *AnthropicProvider) Respond(ctx context.Context, query string) (string, error) {
	return p.complete(ctx, p.system, query)
}

// Summarize condenses messages into a short summary.
func (p *AnthropicProvider) Summarize(ctx context.Context, messages []chat.Message) (string, error) {
	return p.complete(ctx, SummaryPrompt, SummaryRequest(messages))
}

func (p *AnthropicProvider) complete(ctx context.Context, system, text string) (string, error) {
	client, err := p.getClient()
	if err != nil {
		return "", err
	}

	maxTokens := p.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		b.WriteString(block.Text)
	}
	return b.String(), nil
}

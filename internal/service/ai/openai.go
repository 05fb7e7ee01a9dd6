package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zhouzirui/educhat/backend/internal/config"
	"github.com/zhouzirui/educhat/backend/internal/model/chat"
)

// OpenAIProvider answers queries with the OpenAI chat completions API.
type OpenAIProvider struct {
	cfg     config.OpenAIConfig
	system  string
	options []option.RequestOption

	mu     sync.Mutex
	client *openai.Client
}

// NewOpenAIProvider returns a lazily initialised OpenAI provider. Extra
// request options are appended after the configured ones.
func NewOpenAIProvider(cfg config.OpenAIConfig, system string, opts ...option.RequestOption) *OpenAIProvider {
	return &OpenAIProvider{cfg: cfg, system: system, options: opts}
}

func (p *OpenAIProvider) Name() string { return config.ProviderOpenAI }

func (p *OpenAIProvider) getClient() (*openai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if !p.cfg.Enabled() {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	options := []option.RequestOption{option.WithAPIKey(p.cfg.APIKey)}
	if p.cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(p.cfg.BaseURL))
	}
	options = append(options, p.options...)

	client := openai.NewClient(options...)
	p.client = &client
	return p.client, nil
}

// Respond sends query with the system prompt and returns the first choice.
func (p *OpenAIProvider) Respond(ctx context.Context, query string) (string, error) {
	return p.complete(ctx, p.system, query)
}

// Summarize condenses messages into a short summary.
func (p *OpenAIProvider) Summarize(ctx context.Context, messages []chat.Message) (string, error) {
	return p.complete(ctx, SummaryPrompt, SummaryRequest(messages))
}

func (p *OpenAIProvider) complete(ctx context.Context, system, text string) (string, error) {
	client, err := p.getClient()
	if err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(text))

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.cfg.Model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

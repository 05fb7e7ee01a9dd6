package ai

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/zhouzirui/educhat/backend/internal/config"
	"github.com/zhouzirui/educhat/backend/internal/logging"
	"github.com/zhouzirui/educhat/backend/internal/model/chat"
)

// GeminiProvider answers queries with Google Gemini. The genai client is
// created on first use.
type GeminiProvider struct {
	cfg    config.GeminiConfig
	system string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiProvider returns a lazily initialised Gemini provider.
func NewGeminiProvider(cfg config.GeminiConfig, system string) *GeminiProvider {
	return &GeminiProvider{cfg: cfg, system: system}
}

func (p *GeminiProvider) Name() string { return config.ProviderGemini }

// IsConfigured reports whether an API key is present.
func (p *GeminiProvider) IsConfigured() bool {
	return p.cfg.Enabled()
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if !p.cfg.Enabled() {
		return nil, fmt.Errorf("google API key not configured")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  p.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: p.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	p.client = client
	return client, nil
}

// Respond sends query with the system instruction and returns the text reply.
func (p *GeminiProvider) Respond(ctx context.Context, query string) (string, error) {
	return p.generate(ctx, p.system, query)
}

// Summarize condenses messages into a short summary.
func (p *GeminiProvider) Summarize(ctx context.Context, messages []chat.Message) (string, error) {
	return p.generate(ctx, SummaryPrompt, SummaryRequest(messages))
}

func (p *GeminiProvider) generate(ctx context.Context, system, text string) (string, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}

	var contentConfig *genai.GenerateContentConfig
	if system != "" {
		contentConfig = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	resp, err := client.Models.GenerateContent(ctx, p.cfg.Model, genai.Text(text), contentConfig)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	content := resp.Text()
	if content == "" {
		logging.WithCtx(ctx).Debug("gemini response contains no text", zap.String("model", p.cfg.Model))
	}
	return content, nil
}

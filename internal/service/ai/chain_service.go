package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/config"
	"github.com/zhouzirui/educhat/backend/internal/logging"
	"github.com/zhouzirui/educhat/backend/internal/model/chat"
)

// ChainService answers queries through eino chains over a chat model.
type ChainService struct {
	name      string
	chatModel model.ChatModel
	system    string
	respond   compose.Runnable[map[string]any, *schema.Message]
	summarize compose.Runnable[map[string]any, *schema.Message]
}

// NewArkService creates a ChainService backed by a Volcengine Ark model.
func NewArkService(ctx context.Context, cfg config.ArkConfig, system string) (*ChainService, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	svc, err := NewChainService(ctx, chatModel, system)
	if err != nil {
		return nil, err
	}
	svc.name = config.ProviderArk
	return svc, nil
}

// NewChainService compiles the response and summary chains around chatModel.
func NewChainService(ctx context.Context, chatModel model.ChatModel, system string) (*ChainService, error) {
	respond, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to compile response chain: %w", err)
	}

	summarize, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{transcript}"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}

	return &ChainService{
		name:      "chain",
		chatModel: chatModel,
		system:    system,
		respond:   respond,
		summarize: summarize,
	}, nil
}

func compileChain(ctx context.Context, chatModel model.ChatModel, template prompt.ChatTemplate) (compose.Runnable[map[string]any, *schema.Message], error) {
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

func (s *ChainService) Name() string { return s.name }

// GetChatModel 返回底层的聊天模型
func (s *ChainService) GetChatModel() model.ChatModel {
	return s.chatModel
}

// Respond runs the response chain for a single query.
func (s *ChainService) Respond(ctx context.Context, query string) (string, error) {
	response, err := s.respond.Invoke(ctx, map[string]any{
		"system": s.system,
		"query":  query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", nil
	}

	logging.WithCtx(ctx).Debug("generated response",
		zap.String("provider", s.name), zap.Int("length", len(response.Content)))
	return response.Content, nil
}

// Summarize runs the summary chain over messages.
func (s *ChainService) Summarize(ctx context.Context, messages []chat.Message) (string, error) {
	response, err := s.summarize.Invoke(ctx, map[string]any{
		"system":     SummaryPrompt,
		"transcript": SummaryRequest(messages),
	})
	if err != nil {
		return "", fmt.Errorf("failed to run summary chain: %w", err)
	}
	if response == nil {
		return "", nil
	}
	return response.Content, nil
}

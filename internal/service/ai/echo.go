package ai

import (
	"context"
	"fmt"

	"github.com/zhouzirui/educhat/backend/internal/config"
	"github.com/zhouzirui/educhat/backend/internal/model/chat"
)

// EchoProvider answers without any model. Useful offline and in development.
type EchoProvider struct{}

// NewEchoProvider returns the offline provider.
func NewEchoProvider() *EchoProvider {
	return &EchoProvider{}
}

func (p *EchoProvider) Name() string { return config.ProviderEcho }

// Respond echoes the query back.
func (p *EchoProvider) Respond(_ context.Context, query string) (string, error) {
	return "This is a response to: " + query, nil
}

// Summarize reports the size of the conversation and its opening question.
func (p *EchoProvider) Summarize(_ context.Context, messages []chat.Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}
	return fmt.Sprintf("Conversation of %d messages starting with %q.", len(messages), messages[0].Content), nil
}

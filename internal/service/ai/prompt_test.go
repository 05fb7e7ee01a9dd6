package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/educhat/backend/internal/model/chat"
	"github.com/zhouzirui/educhat/backend/internal/model/profile"
)

func TestSystemPromptUsesProfile(t *testing.T) {
	got := SystemPrompt(profile.Profile{Name: "Tutor", SystemPrompt: "Explain simply."})
	assert.Equal(t, "Your name is Tutor.\n\nExplain simply.", got)

	fallback := SystemPrompt(profile.Profile{})
	assert.Equal(t, profile.DefaultSystemPrompt, fallback)
}

func TestSummaryRequestFormatsTranscript(t *testing.T) {
	got := SummaryRequest([]chat.Message{
		{Sender: chat.SenderUser, Content: "What is Go?"},
		{Sender: chat.SenderAI, Content: "A programming language."},
	})
	assert.Equal(t, "Chat History:\nuser: What is Go?\nassistant: A programming language.\n\nSummary:", got)
}

func TestEchoProvider(t *testing.T) {
	p := NewEchoProvider()
	ctx := context.Background()

	got, err := p.Respond(ctx, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "This is a response to: Hello", got)

	summary, err := p.Summarize(ctx, []chat.Message{{Content: "Hello"}, {Content: "Hi"}})
	require.NoError(t, err)
	assert.Equal(t, `Conversation of 2 messages starting with "Hello".`, summary)

	empty, err := p.Summarize(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

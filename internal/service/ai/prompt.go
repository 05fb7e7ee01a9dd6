package ai

import (
	"strings"

	"github.com/zhouzirui/educhat/backend/internal/model/chat"
	"github.com/zhouzirui/educhat/backend/internal/model/profile"
)

// SummaryPrompt instructs the model how to condense a chat history.
const SummaryPrompt = `You are an AI assistant designed to summarize chat histories. Please provide a concise summary of the following conversation. Focus on the key discussion points, decisions made, and any important information exchanged.`

// SystemPrompt returns the instruction sent ahead of every user query.
func SystemPrompt(p profile.Profile) string {
	prompt := strings.TrimSpace(p.SystemPrompt)
	if prompt == "" {
		prompt = profile.DefaultSystemPrompt
	}
	if p.Name == "" {
		return prompt
	}
	return "Your name is " + p.Name + ".\n\n" + prompt
}

// FormatTranscript renders messages as "role: content" lines.
func FormatTranscript(messages []chat.Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(msg.Role())
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return b.String()
}

// SummaryRequest wraps a transcript the way the summary prompt expects it.
func SummaryRequest(messages []chat.Message) string {
	return "Chat History:\n" + FormatTranscript(messages) + "\n\nSummary:"
}

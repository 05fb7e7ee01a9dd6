package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewUserMessageIsMarkedSent(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 7, 30, 0, time.UTC)
	msg := NewUserMessage("id-1", "Hello", at)

	assert.Equal(t, SenderUser, msg.Sender)
	assert.Equal(t, StatusSent, msg.Status)
	assert.Equal(t, "09:07", msg.Timestamp)
	assert.Equal(t, at, msg.CreatedAt)
	assert.Equal(t, "user", msg.Role())
}

func TestNewAIMessageHasNoStatus(t *testing.T) {
	at := time.Date(2024, 5, 1, 21, 45, 0, 0, time.UTC)
	msg := NewAIMessage("id-2", "Hi there", at)

	assert.Equal(t, SenderAI, msg.Sender)
	assert.Empty(t, msg.Status)
	assert.Equal(t, "21:45", msg.Timestamp)
	assert.Equal(t, "assistant", msg.Role())
}

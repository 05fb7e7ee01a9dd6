package chat

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "User"
	SenderAI   Sender = "AI"
)

// Status is the advisory delivery state shown next to user bubbles.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// TimestampLayout formats message times for display (HH:MM).
const TimestampLayout = "15:04"

// Message is one immutable entry of a session log.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	Status    Status    `json:"status,omitempty"`
}

// NewUserMessage builds a user message marked as sent.
func NewUserMessage(id, content string, at time.Time) Message {
	return Message{
		ID:        id,
		Sender:    SenderUser,
		Content:   content,
		Timestamp: FormatTimestamp(at),
		CreatedAt: at,
		Status:    StatusSent,
	}
}

// NewAIMessage builds an assistant reply. AI messages carry no status.
func NewAIMessage(id, content string, at time.Time) Message {
	return Message{
		ID:        id,
		Sender:    SenderAI,
		Content:   content,
		Timestamp: FormatTimestamp(at),
		CreatedAt: at,
	}
}

// FormatTimestamp renders t as shown in the chat bubbles.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Role maps the sender onto the conventional LLM role name.
func (m Message) Role() string {
	if m.Sender == SenderAI {
		return "assistant"
	}
	return "user"
}

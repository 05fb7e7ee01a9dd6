package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/logging"
	"github.com/zhouzirui/educhat/backend/internal/model/chat"
)

// EventType names a state transition pushed to subscribers.
type EventType string

const (
	EventMessage      EventType = "message"
	EventPending      EventType = "pending"
	EventInput        EventType = "input"
	EventNotification EventType = "notification"
)

// Event describes one transition of a session.
type Event struct {
	Type           EventType     `json:"type"`
	SessionID      string        `json:"sessionId"`
	Message        *chat.Message `json:"message,omitempty"`
	Pending        bool          `json:"pending"`
	CharacterCount int           `json:"characterCount,omitempty"`
	Notification   *Notification `json:"notification,omitempty"`
	At             time.Time     `json:"at"`
}

// Subscribe registers a listener for session events. Events are dropped for
// subscribers whose buffer is full. The returned func unsubscribes.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// publish must be called with s.mu held.
func (s *Session) publish(events []Event) {
	for _, ev := range events {
		for _, ch := range s.subs {
			select {
			case ch <- ev:
			default:
				logging.With(zap.String("session_id", s.id)).Debug("dropping session event for slow subscriber",
					zap.String("type", string(ev.Type)))
			}
		}
	}
}

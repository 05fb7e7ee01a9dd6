package session

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/zhouzirui/educhat/backend/internal/model/chat"
)

// maxNotifications bounds the notification history kept in State.
const maxNotifications = 32

// State is an immutable view of a chat session. Transitions return a new
// State and never write into the backing arrays of the old one.
type State struct {
	Messages      []chat.Message `json:"messages"`
	Pending       bool           `json:"pending"`
	Input         string         `json:"input"`
	Notifications []Notification `json:"notifications"`
}

// CharacterCount is the rune length of the accepted input.
func (s State) CharacterCount() int {
	return utf8.RuneCountInString(s.Input)
}

// LastNotification returns the newest notification, if any.
func (s State) LastNotification() (Notification, bool) {
	if len(s.Notifications) == 0 {
		return Notification{}, false
	}
	return s.Notifications[len(s.Notifications)-1], true
}

func (s State) clone() State {
	s.Messages = slices.Clone(s.Messages)
	s.Notifications = slices.Clone(s.Notifications)
	return s
}

func (s State) withMessage(m chat.Message) State {
	s.Messages = append(slices.Clip(s.Messages), m)
	return s
}

func (s State) withNotification(n Notification) State {
	list := s.Notifications
	if len(list) >= maxNotifications {
		list = list[len(list)-maxNotifications+1:]
	}
	s.Notifications = append(slices.Clip(list), n)
	return s
}

// beginSubmit checks the submit preconditions and records the user message.
// The text must fit within max runes, the same bound SetInput applies.
func beginSubmit(s State, msg chat.Message, max int) (State, error) {
	if strings.TrimSpace(msg.Content) == "" {
		return s, ErrEmptyInput
	}
	if max > 0 && utf8.RuneCountInString(msg.Content) > max {
		return s, fmt.Errorf("%w: limit is %d characters", ErrInputTooLong, max)
	}
	if s.Pending {
		return s, ErrPending
	}

	next := s.withMessage(msg)
	next.Pending = true
	next.Input = ""
	return next, nil
}

// settle folds a provider result into s and clears pending.
func settle(s State, reply *chat.Message, notice *Notification) State {
	if reply != nil {
		s = s.withMessage(*reply)
	}
	if notice != nil {
		s = s.withNotification(*notice)
	}
	s.Pending = false
	return s
}

// applyInput stores text when it fits within max runes.
func applyInput(s State, text string, max int, reject Notification) (State, bool) {
	if max > 0 && utf8.RuneCountInString(text) > max {
		return s.withNotification(reject), false
	}
	s.Input = text
	return s, true
}

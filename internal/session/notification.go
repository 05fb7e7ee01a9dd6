package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyInput rejects a submission that is blank after trimming.
	ErrEmptyInput = errors.New("message text is empty")
	// ErrPending rejects a submission while a response is outstanding.
	ErrPending = errors.New("a response is already pending")
	// ErrClosed rejects operations on an ended session.
	ErrClosed = errors.New("session closed")

	// ErrInputTooLong marks a validation notification.
	ErrInputTooLong = errors.New("input exceeds maximum length")
	// ErrEmptyResponse marks a provider reply without usable content.
	ErrEmptyResponse = errors.New("provider returned no response")
	// ErrProviderFailure marks a provider call that failed.
	ErrProviderFailure = errors.New("provider request failed")
)

// NotificationKind classifies a recoverable, user-visible report.
type NotificationKind string

const (
	KindValidation      NotificationKind = "validation"
	KindEmptyResponse   NotificationKind = "empty_response"
	KindProviderFailure NotificationKind = "provider_failure"
)

// Notification is what the UI shows as a toast.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"createdAt"`
	Err         error            `json:"-"`
}

func inputTooLong(max int, at time.Time) Notification {
	return Notification{
		Kind:        KindValidation,
		Title:       "Character Limit Exceeded",
		Description: fmt.Sprintf("You have reached the maximum character limit of %d.", max),
		CreatedAt:   at,
		Err:         ErrInputTooLong,
	}
}

func emptyResponse(at time.Time) Notification {
	return Notification{
		Kind:        KindEmptyResponse,
		Title:       "AI Response Error",
		Description: "Failed to generate a response. Please try again.",
		CreatedAt:   at,
		Err:         ErrEmptyResponse,
	}
}

func providerFailure(cause error, at time.Time) Notification {
	return Notification{
		Kind:        KindProviderFailure,
		Title:       "AI Response Error",
		Description: "An unexpected error occurred. Please check your connection and try again.",
		CreatedAt:   at,
		Err:         fmt.Errorf("%w: %w", ErrProviderFailure, cause),
	}
}

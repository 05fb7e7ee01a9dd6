package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/logging"
	"github.com/zhouzirui/educhat/backend/internal/model/chat"
	"github.com/zhouzirui/educhat/backend/internal/session"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSummaryUnsupported = errors.New("summaries are not supported by the configured provider")
	ErrNothingToSummarize = errors.New("conversation is empty")
)

// Summarizer condenses a transcript. Providers implement it optionally.
type Summarizer interface {
	Summarize(ctx context.Context, messages []chat.Message) (string, error)
}

// Service keeps the live chat sessions of this process.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	provider session.ResponseProvider
	opts     []session.Option
}

// NewService bootstraps an in-memory registry whose sessions share provider.
func NewService(provider session.ResponseProvider, opts ...session.Option) *Service {
	return &Service{
		sessions: make(map[string]*session.Session),
		provider: provider,
		opts:     opts,
	}
}

// CreateSession starts an empty conversation.
func (s *Service) CreateSession(ctx context.Context) (*session.Session, error) {
	sess := session.New(s.provider, s.opts...)

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	logging.WithCtx(logging.ContextWithSession(ctx, sess.ID())).Info("chat session created")
	return sess, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// EndSession tears a session down and releases its subscribers.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	sess.Close()
	logging.WithCtx(logging.ContextWithSession(ctx, sessionID)).Info("chat session ended",
		zap.Int("messages", len(sess.Snapshot().Messages)))
	return nil
}

// LoadTranscript returns the messages of the provided session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot().Messages, nil
}

// Summarize asks the provider for a summary of the session transcript.
func (s *Service) Summarize(ctx context.Context, sessionID string) (string, error) {
	messages, err := s.LoadTranscript(ctx, sessionID)
	if err != nil {
		return "", err
	}

	summarizer, ok := s.provider.(Summarizer)
	if !ok {
		return "", ErrSummaryUnsupported
	}
	if len(messages) == 0 {
		return "", ErrNothingToSummarize
	}

	summary, err := summarizer.Summarize(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("summarize session %s: %w", sessionID, err)
	}
	return summary, nil
}

// Count reports the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close ends every live session.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session.Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/logging"
	"github.com/zhouzirui/educhat/backend/internal/model/chat"
)

// DefaultMaxInputLength is the input bound used when none is configured.
const DefaultMaxInputLength = 500

// ResponseProvider turns a user query into a reply. Implementations may fail
// with any error; an empty reply is not an error.
type ResponseProvider interface {
	Respond(ctx context.Context, query string) (string, error)
}

// ResponseProviderFunc adapts a function to ResponseProvider.
type ResponseProviderFunc func(ctx context.Context, query string) (string, error)

// Respond implements ResponseProvider.
func (f ResponseProviderFunc) Respond(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// Option configures a Session.
type Option func(*Session)

// WithMaxInputLength bounds SetInput. Values below 1 keep the default.
func WithMaxInputLength(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides uuid.NewString for message ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Outcome reports how a submission settled. Reply is set on success,
// Notification on an empty or failed response.
type Outcome struct {
	Message      chat.Message  `json:"message"`
	Reply        *chat.Message `json:"reply,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// Session owns one conversation: the append-only log, the pending flag and
// the input draft.
type Session struct {
	id        string
	createdAt time.Time
	provider  ResponseProvider
	maxInput  int
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	state   State
	subs    map[int]chan Event
	nextSub int
	closed  bool
}

// New creates an empty session bound to provider.
func New(provider ResponseProvider, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		provider: provider,
		maxInput: DefaultMaxInputLength,
		now:      time.Now,
		newID:    uuid.NewString,
		subs:     make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.createdAt = s.now().UTC()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) MaxInputLength() int { return s.maxInput }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Pending reports whether a response is outstanding.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Pending
}

// SetInput stores the draft text if it fits the length bound. A rejected
// draft leaves the previous input untouched and records a notification.
func (s *Session) SetInput(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	now := s.now()
	prev := s.state
	next, ok := applyInput(prev, text, s.maxInput, inputTooLong(s.maxInput, now))
	s.state = next

	if !ok {
		n, _ := next.LastNotification()
		s.publish([]Event{{Type: EventNotification, SessionID: s.id, Notification: &n, Pending: next.Pending, At: now}})
		logging.With(zap.String("session_id", s.id)).Debug("input rejected",
			zap.Int("max", s.maxInput))
		return false
	}
	if prev.Input != next.Input {
		s.publish([]Event{{Type: EventInput, SessionID: s.id, CharacterCount: next.CharacterCount(), Pending: next.Pending, At: now}})
	}
	return true
}

// Submit appends text as a user message and waits for the provider reply.
// ErrEmptyInput, ErrInputTooLong and ErrPending are returned without
// touching the log; provider outcomes are reported through Outcome and the
// notification list.
// Cancelling ctx does not abort a dispatched request.
func (s *Session) Submit(ctx context.Context, text string) (Outcome, error) {
	user, err := s.begin(text)
	if err != nil {
		return Outcome{}, err
	}
	return s.dispatch(context.WithoutCancel(ctx), user), nil
}

// SubmitAsync is Submit with the provider call run in its own goroutine. The
// channel receives exactly one Outcome and is then closed.
func (s *Session) SubmitAsync(ctx context.Context, text string) (<-chan Outcome, error) {
	user, err := s.begin(text)
	if err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		out <- s.dispatch(detached, user)
	}()
	return out, nil
}

// Close ends the session and releases every subscriber.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) begin(text string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return chat.Message{}, ErrClosed
	}

	now := s.now()
	msg := chat.NewUserMessage(s.newID(), text, now)
	next, err := beginSubmit(s.state, msg, s.maxInput)
	if err != nil {
		return chat.Message{}, err
	}

	inputChanged := s.state.Input != next.Input
	s.state = next

	events := []Event{{Type: EventMessage, SessionID: s.id, Message: &msg, Pending: true, At: now}}
	if inputChanged {
		events = append(events, Event{Type: EventInput, SessionID: s.id, Pending: true, At: now})
	}
	events = append(events, Event{Type: EventPending, SessionID: s.id, Pending: true, At: now})
	s.publish(events)

	return msg, nil
}

func (s *Session) dispatch(ctx context.Context, user chat.Message) (outcome Outcome) {
	outcome.Message = user
	log := logging.WithCtx(logging.ContextWithSession(ctx, s.id))

	defer func() {
		s.finish(outcome.Reply, outcome.Notification)
	}()

	started := time.Now()
	text, err := s.respond(ctx, user.Content)
	now := s.now()

	switch {
	case err != nil:
		n := providerFailure(err, now)
		outcome.Notification = &n
		log.Warn("response provider failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
	case strings.TrimSpace(text) == "":
		n := emptyResponse(now)
		outcome.Notification = &n
		log.Warn("response provider returned no content", zap.Duration("elapsed", time.Since(started)))
	default:
		reply := chat.NewAIMessage(s.newID(), text, now)
		outcome.Reply = &reply
		log.Debug("response received", zap.Int("length", len(text)), zap.Duration("elapsed", time.Since(started)))
	}

	return outcome
}

// respond shields the session from provider panics.
func (s *Session) respond(ctx context.Context, query string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	if s.provider == nil {
		return "", fmt.Errorf("no response provider configured")
	}
	return s.provider.Respond(ctx, query)
}

func (s *Session) finish(reply *chat.Message, notice *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.state = settle(s.state, reply, notice)

	events := make([]Event, 0, 2)
	if reply != nil {
		events = append(events, Event{Type: EventMessage, SessionID: s.id, Message: reply, At: now})
	}
	if notice != nil {
		events = append(events, Event{Type: EventNotification, SessionID: s.id, Notification: notice, At: now})
	}
	events = append(events, Event{Type: EventPending, SessionID: s.id, Pending: false, At: now})
	s.publish(events)
}

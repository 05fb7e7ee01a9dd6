package logging

import (
	"context"
	"os"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type sessionKey struct{}

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

func init() {
	Configure(os.Getenv("DEBUG") == "true")
}

// Configure swaps the process logger. Development output is used in debug mode.
func Configure(debug bool) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		l = zap.NewNop()
	}

	mu.Lock()
	logger = l
	mu.Unlock()
}

// Replace installs l and returns a func restoring the previous logger. Used by tests.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	prev := logger
	logger = l
	mu.Unlock()

	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

// L returns the process logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns the process logger annotated with fields.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// ContextWithSession tags ctx with a chat session id for WithCtx.
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// WithCtx returns a logger carrying the request and session ids found in ctx.
func WithCtx(ctx context.Context) *zap.Logger {
	fields := make([]zap.Field, 0, 2)

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	if v, ok := ctx.Value(sessionKey{}).(string); ok && v != "" {
		fields = append(fields, zap.String("session_id", v))
	}

	return L().With(fields...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}

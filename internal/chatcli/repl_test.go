package chatcli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/educhat/backend/internal/model/profile"
	"github.com/zhouzirui/educhat/backend/internal/service/ai"
	chatService "github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/internal/service/preferences"
	"github.com/zhouzirui/educhat/backend/internal/session"
)

type scriptedReader struct {
	lines   []string
	prompts []string
	history []string
}

func (r *scriptedReader) Prompt(p string) (string, error) {
	r.prompts = append(r.prompts, p)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AppendHistory(item string) {
	r.history = append(r.history, item)
}

func newREPL(t *testing.T, provider session.ResponseProvider, prefs preferences.Store, lines ...string) (*REPL, *chatService.Service, *bytes.Buffer) {
	t.Helper()
	svc := chatService.NewService(provider, session.WithMaxInputLength(20))
	out := &bytes.Buffer{}
	repl, err := New(context.Background(), Options{
		ChatService: svc,
		Preferences: prefs,
		Assistant:   profile.Assistant(nil),
		In:          &scriptedReader{lines: lines},
		Out:         out,
	})
	require.NoError(t, err)
	return repl, svc, out
}

func TestRunSubmitsAndRendersReply(t *testing.T) {
	repl, svc, out := newREPL(t, session.ResponseProviderFunc(func(context.Context, string) (string, error) {
		return "Pong", nil
	}), nil, "Ping")

	require.NoError(t, repl.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "EduChat AI")
	assert.Contains(t, text, "AI is typing...")
	assert.Contains(t, text, "Pong")
	assert.Len(t, repl.Session().Snapshot().Messages, 2)
	assert.Zero(t, svc.Count(), "session ends with the REPL")
}

func TestRunPromptsPlainAndRecordsHistory(t *testing.T) {
	in := &scriptedReader{lines: []string{"hello", "   ", "", "/help"}}
	repl, err := New(context.Background(), Options{
		ChatService: chatService.NewService(ai.NewEchoProvider()),
		Assistant:   profile.Assistant(nil),
		In:          in,
		Out:         &bytes.Buffer{},
	})
	require.NoError(t, err)

	require.NoError(t, repl.Run(context.Background()))

	require.Len(t, in.prompts, 5)
	for _, p := range in.prompts {
		assert.Equal(t, "you> ", p)
	}
	assert.Equal(t, []string{"hello", "/help"}, in.history)
}

func TestRunReportsNotifications(t *testing.T) {
	repl, _, out := newREPL(t, session.ResponseProviderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("offline")
	}), nil, strings.Repeat("x", 21), "hello")

	require.NoError(t, repl.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Character Limit Exceeded")
	assert.Contains(t, text, "AI Response Error")
	assert.Len(t, repl.Session().Snapshot().Messages, 1)
}

func TestQuitStopsBeforeRemainingInput(t *testing.T) {
	repl, _, _ := newREPL(t, ai.NewEchoProvider(), nil, "/quit", "never sent")

	require.NoError(t, repl.Run(context.Background()))
	assert.Empty(t, repl.Session().Snapshot().Messages)
}

func TestThemeCommandPersists(t *testing.T) {
	store := preferences.NewFileStore(filepath.Join(t.TempDir(), "preferences.yaml"))
	repl, _, out := newREPL(t, ai.NewEchoProvider(), store, "/theme")

	require.NoError(t, repl.Run(context.Background()))

	prefs, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, prefs.Theme)
	assert.Equal(t, preferences.ThemeDark, repl.renderer.Theme())
	assert.Contains(t, out.String(), "theme: dark")
}

func TestSummaryCommand(t *testing.T) {
	repl, _, out := newREPL(t, ai.NewEchoProvider(), nil, "/summary", "hi", "/summary", "/history", "/bogus")

	require.NoError(t, repl.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "conversation is empty")
	assert.Contains(t, text, "Conversation of 2 messages")
	assert.Contains(t, text, "This is a response to: hi")
	assert.Contains(t, text, "unknown command: /bogus")
}

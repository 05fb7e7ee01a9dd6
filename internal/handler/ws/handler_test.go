package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatservice "github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/internal/session"
)

type frame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
}

func setup(t *testing.T) (*chatservice.Service, *httptest.Server) {
	t.Helper()
	chatSvc := chatservice.NewService(session.ResponseProviderFunc(func(_ context.Context, query string) (string, error) {
		return "reply to " + query, nil
	}), session.WithMaxInputLength(10))

	r := chi.NewRouter()
	New(chatSvc).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return chatSvc, srv
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil returns the first frame of the wanted type.
func readUntil(t *testing.T, conn *websocket.Conn, want string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == want {
			return f
		}
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	_, srv := setup(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketSubmitRelaysOutcome(t *testing.T) {
	chatSvc, srv := setup(t)
	sess, err := chatSvc.CreateSession(context.Background())
	require.NoError(t, err)

	conn := dial(t, srv, sess.ID())
	connected := readUntil(t, conn, TypeConnected)
	assert.Equal(t, sess.ID(), connected.SessionID)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: TypeSubmit, Text: "Hello"}))

	f := readUntil(t, conn, TypeOutcome)
	var outcome session.Outcome
	require.NoError(t, json.Unmarshal(f.Data, &outcome))
	require.NotNil(t, outcome.Reply)
	assert.Equal(t, "reply to Hello", outcome.Reply.Content)
	assert.Equal(t, "Hello", outcome.Message.Content)

	assert.Len(t, sess.Snapshot().Messages, 2)
}

func TestWebSocketRejectsInvalidFrames(t *testing.T) {
	chatSvc, srv := setup(t)
	sess, err := chatSvc.CreateSession(context.Background())
	require.NoError(t, err)

	conn := dial(t, srv, sess.ID())
	readUntil(t, conn, TypeConnected)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: TypeInput, Text: strings.Repeat("x", 11)}))
	f := readUntil(t, conn, TypeError)
	assert.Contains(t, f.Error, "10")

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: TypeSubmit, Text: "  "}))
	f = readUntil(t, conn, TypeError)
	assert.Equal(t, session.ErrEmptyInput.Error(), f.Error)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: TypeSubmit, Text: strings.Repeat("x", 11)}))
	f = readUntil(t, conn, TypeError)
	assert.Equal(t, session.ErrInputTooLong.Error()+": limit is 10 characters", f.Error)
	assert.Empty(t, sess.Snapshot().Messages)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: "dance"}))
	f = readUntil(t, conn, TypeError)
	assert.Contains(t, f.Error, "unsupported")
}

func TestWebSocketClosesWithSession(t *testing.T) {
	chatSvc, srv := setup(t)
	sess, err := chatSvc.CreateSession(context.Background())
	require.NoError(t, err)

	conn := dial(t, srv, sess.ID())
	readUntil(t, conn, TypeConnected)

	require.NoError(t, chatSvc.EndSession(context.Background(), sess.ID()))
	readUntil(t, conn, TypeClosed)
}

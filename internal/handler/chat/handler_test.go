package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/educhat/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/internal/session"
)

func setupRouter(provider session.ResponseProvider, opts ...session.Option) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService(provider, opts...)
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) SessionView {
	t.Helper()
	resp := doJSON(t, r, http.MethodPost, "/session", nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	var view SessionView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	return view
}

func TestCreateAndGetSession(t *testing.T) {
	r, _ := setupRouter(ai.NewEchoProvider())
	view := createSession(t, r)

	assert.NotEmpty(t, view.ID)
	assert.Empty(t, view.Messages)
	assert.False(t, view.Pending)
	assert.Equal(t, session.DefaultMaxInputLength, view.MaxLength)

	resp := doJSON(t, r, http.MethodGet, "/session/"+view.ID, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := setupRouter(ai.NewEchoProvider())

	resp := doJSON(t, r, http.MethodGet, "/session/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSubmitMessage(t *testing.T) {
	r, _ := setupRouter(session.ResponseProviderFunc(func(context.Context, string) (string, error) {
		return "Hi there", nil
	}))
	view := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+view.ID+"/messages", map[string]string{"text": "Hello"})
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Outcome session.Outcome `json:"outcome"`
		Session SessionView     `json:"session"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	require.NotNil(t, body.Outcome.Reply)
	assert.Equal(t, "Hi there", body.Outcome.Reply.Content)
	require.Len(t, body.Session.Messages, 2)
	assert.Equal(t, "Hello", body.Session.Messages[0].Content)
	assert.False(t, body.Session.Pending)
}

func TestSubmitProviderFailureIsNotAnHTTPError(t *testing.T) {
	r, _ := setupRouter(session.ResponseProviderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("backend down")
	}))
	view := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+view.ID+"/messages", map[string]string{"text": "Hello"})
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Outcome session.Outcome `json:"outcome"`
		Session SessionView     `json:"session"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	require.NotNil(t, body.Outcome.Notification)
	assert.Equal(t, session.KindProviderFailure, body.Outcome.Notification.Kind)
	assert.Len(t, body.Session.Messages, 1)
	assert.Len(t, body.Session.Notifications, 1)
}

func TestSubmitEmptyText(t *testing.T) {
	r, _ := setupRouter(ai.NewEchoProvider())
	view := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+view.ID+"/messages", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(t, r, http.MethodPost, "/session/"+view.ID+"/messages", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitTooLong(t *testing.T) {
	r, svc := setupRouter(ai.NewEchoProvider(), session.WithMaxInputLength(5))
	view := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+view.ID+"/messages", map[string]string{"text": strings.Repeat("x", 50)})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "limit is 5 characters")

	sess, err := svc.GetSession(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Empty(t, sess.Snapshot().Messages)
	assert.False(t, sess.Pending())
}

func TestSubmitWhilePendingConflicts(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r, svc := setupRouter(session.ResponseProviderFunc(func(context.Context, string) (string, error) {
		close(started)
		<-release
		return "late", nil
	}))
	view := createSession(t, r)

	sess, err := svc.GetSession(context.Background(), view.ID)
	require.NoError(t, err)
	out, err := sess.SubmitAsync(context.Background(), "first")
	require.NoError(t, err)
	<-started

	resp := doJSON(t, r, http.MethodPost, "/session/"+view.ID+"/messages", map[string]string{"text": "second"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	close(release)
	<-out
}

func TestSetInput(t *testing.T) {
	r, _ := setupRouter(ai.NewEchoProvider(), session.WithMaxInputLength(5))
	view := createSession(t, r)
	path := "/session/" + view.ID + "/input"

	resp := doJSON(t, r, http.MethodPut, path, map[string]string{"text": "hey"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"accepted":true,"characterCount":3,"maxLength":5}`, resp.Body.String())

	resp = doJSON(t, r, http.MethodPut, path, map[string]string{"text": strings.Repeat("x", 6)})
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, false, body["accepted"])
	assert.EqualValues(t, 3, body["characterCount"])
	notification, ok := body["notification"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "validation", notification["kind"])
}

func TestEndSession(t *testing.T) {
	r, svc := setupRouter(ai.NewEchoProvider())
	view := createSession(t, r)

	resp := doJSON(t, r, http.MethodDelete, "/session/"+view.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Zero(t, svc.Count())

	resp = doJSON(t, r, http.MethodDelete, "/session/"+view.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSummary(t *testing.T) {
	r, _ := setupRouter(ai.NewEchoProvider())
	view := createSession(t, r)
	path := "/session/" + view.ID + "/summary"

	resp := doJSON(t, r, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(t, r, http.MethodPost, "/session/"+view.ID+"/messages", map[string]string{"text": "Hello"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, r, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"summary":"Conversation of 2 messages starting with \"Hello\"."}`, resp.Body.String())
}

func TestSummaryUnsupported(t *testing.T) {
	r, _ := setupRouter(session.ResponseProviderFunc(func(context.Context, string) (string, error) {
		return "ok", nil
	}))
	view := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+view.ID+"/summary", nil)
	assert.Equal(t, http.StatusNotImplemented, resp.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(chatservice.ErrSessionNotFound))
	assert.Equal(t, http.StatusNotFound, StatusFor(session.ErrClosed))
	assert.Equal(t, http.StatusConflict, StatusFor(session.ErrPending))
	assert.Equal(t, http.StatusBadRequest, StatusFor(session.ErrEmptyInput))
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("%w: limit is 5 characters", session.ErrInputTooLong)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("other")))
}

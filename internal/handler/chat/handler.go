package chat

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/logging"
	chatModel "github.com/zhouzirui/educhat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/internal/session"
	"github.com/zhouzirui/educhat/backend/pkg/utils"
)

// Handler 聊天会话的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleEndSession)
		r.Put("/input", h.handleSetInput)
		r.Post("/messages", h.handleSubmit)
		r.Post("/summary", h.handleSummary)
	})
}

// SessionView is the JSON shape of a session snapshot.
type SessionView struct {
	ID             string                 `json:"id"`
	CreatedAt      time.Time              `json:"createdAt"`
	Messages       []chatModel.Message    `json:"messages"`
	Pending        bool                   `json:"pending"`
	Input          string                 `json:"input"`
	CharacterCount int                    `json:"characterCount"`
	MaxLength      int                    `json:"maxLength"`
	Notifications  []session.Notification `json:"notifications"`
}

// NewSessionView renders the current state of sess.
func NewSessionView(sess *session.Session) SessionView {
	state := sess.Snapshot()

	messages := state.Messages
	if messages == nil {
		messages = []chatModel.Message{}
	}
	notifications := state.Notifications
	if notifications == nil {
		notifications = []session.Notification{}
	}

	return SessionView{
		ID:             sess.ID(),
		CreatedAt:      sess.CreatedAt(),
		Messages:       messages,
		Pending:        state.Pending,
		Input:          state.Input,
		CharacterCount: state.CharacterCount(),
		MaxLength:      sess.MaxInputLength(),
		Notifications:  notifications,
	}
}

type textPayload struct {
	Text string `json:"text"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, NewSessionView(sess))
}

// handleGetSession 返回会话快照
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, NewSessionView(sess))
}

// handleEndSession 结束会话
func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetInput 更新输入草稿并校验长度
func (h *Handler) handleSetInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload textPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	accepted := sess.SetInput(payload.Text)
	state := sess.Snapshot()

	resp := map[string]any{
		"accepted":       accepted,
		"characterCount": state.CharacterCount(),
		"maxLength":      sess.MaxInputLength(),
	}
	if !accepted {
		if n, ok := state.LastNotification(); ok {
			resp["notification"] = n
		}
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleSubmit 发送用户消息并等待AI回复
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload textPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := sess.Submit(r.Context(), payload.Text)
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"outcome": outcome,
		"session": NewSessionView(sess),
	})
}

// handleSummary 生成会话摘要
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.chatSvc.Summarize(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			logging.WithCtx(r.Context()).Warn("summary failed", zap.Error(err))
		}
		utils.RespondError(w, status, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return nil, false
	}
	return sess, true
}

// StatusFor maps chat errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound), errors.Is(err, session.ErrClosed):
		return http.StatusNotFound
	case errors.Is(err, session.ErrEmptyInput), errors.Is(err, session.ErrInputTooLong),
		errors.Is(err, chatService.ErrNothingToSummarize):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrPending):
		return http.StatusConflict
	case errors.Is(err, chatService.ErrSummaryUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

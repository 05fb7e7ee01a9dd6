package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatHandler "github.com/zhouzirui/educhat/backend/internal/handler/chat"
	"github.com/zhouzirui/educhat/backend/internal/logging"
	chatService "github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/pkg/utils"
)

const defaultHeartbeat = 15 * time.Second

// Handler pushes session events to the browser via Server-Sent Events
type Handler struct {
	chatSvc   *chatService.Service
	heartbeat time.Duration
	buffer    int
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		heartbeat: defaultHeartbeat,
		buffer:    32,
	}
}

// WithHeartbeat overrides the keep-alive comment interval.
func (h *Handler) WithHeartbeat(d time.Duration) *Handler {
	if d > 0 {
		h.heartbeat = d
	}
	return h
}

// RegisterRoutes 注册SSE路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/{sessionID}/events", h.handleEvents)
}

// handleEvents 建立事件流: 先发送快照, 然后转发会话事件直到连接或会话结束
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, chatHandler.StatusFor(err), err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, unsubscribe := sess.Subscribe(h.buffer)
	defer unsubscribe()

	ctx := logging.ContextWithSession(r.Context(), sessionID)
	logger := logging.WithCtx(ctx)

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, "snapshot", chatHandler.NewSessionView(sess)); err != nil {
		logger.Debug("sse snapshot write failed", zap.Error(err))
		return
	}
	logger.Debug("sse stream opened")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("sse client disconnected")
			return
		case ev, ok := <-events:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, "closed", map[string]string{"sessionId": sessionID})
				logger.Debug("sse stream closed with session")
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Type), ev); err != nil {
				logger.Debug("sse write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}

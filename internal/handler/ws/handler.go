package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	chatHandler "github.com/zhouzirui/educhat/backend/internal/handler/chat"
	"github.com/zhouzirui/educhat/backend/internal/logging"
	chatService "github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/internal/session"
	"github.com/zhouzirui/educhat/backend/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// 入站消息类型
const (
	TypeSubmit = "submit"
	TypeInput  = "input"
)

// 出站消息类型
const (
	TypeConnected = "connected"
	TypeEvent     = "event"
	TypeOutcome   = "outcome"
	TypeError     = "error"
	TypeClosed    = "closed"
)

// Handler WebSocket会话处理器
type Handler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// InboundMessage is a client frame.
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// OutgoingMessage is a server frame.
type OutgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// connection serialises writes; gorilla allows a single concurrent writer.
type connection struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *connection) send(msg OutgoingMessage) error {
	msg.SessionID = c.sessionID
	msg.Timestamp = time.Now().UnixMilli()

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *connection) sendError(message string) {
	_ = c.send(OutgoingMessage{Type: TypeError, Error: message})
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, chatHandler.StatusFor(err), err.Error())
		return
	}

	logger := logging.WithCtx(logging.ContextWithSession(r.Context(), sessionID))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &connection{conn: conn, sessionID: sessionID}

	ctx, cancel := context.WithCancel(logging.ContextWithSession(r.Context(), sessionID))
	defer cancel()

	events, unsubscribe := sess.Subscribe(64)
	defer unsubscribe()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	if err := c.send(OutgoingMessage{Type: TypeConnected, Data: chatHandler.NewSessionView(sess)}); err != nil {
		return
	}
	logger.Info("websocket connected")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.relayEvents(ctx, c, events)
	}()
	go func() {
		defer wg.Done()
		h.pingLoop(ctx, c)
	}()

	h.readLoop(ctx, c, sess, &wg, logger)

	cancel()
	unsubscribe()
	wg.Wait()
	logger.Info("websocket disconnected")
}

func (h *Handler) readLoop(ctx context.Context, c *connection, sess *session.Session, wg *sync.WaitGroup, logger *zap.Logger) {
	for {
		var msg InboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleMessage(ctx, c, sess, msg, wg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *connection, sess *session.Session, msg InboundMessage, wg *sync.WaitGroup) {
	switch msg.Type {
	case TypeInput:
		if !sess.SetInput(msg.Text) {
			if n, ok := sess.Snapshot().LastNotification(); ok && n.Kind == session.KindValidation {
				c.sendError(n.Description)
				return
			}
			c.sendError(session.ErrClosed.Error())
		}
	case TypeSubmit:
		out, err := sess.SubmitAsync(ctx, msg.Text)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
			case outcome, ok := <-out:
				if !ok {
					return
				}
				if err := c.send(OutgoingMessage{Type: TypeOutcome, Data: outcome}); err != nil {
					logging.WithCtx(ctx).Debug("dropping outcome for closed connection", zap.Error(err))
				}
			}
		}()
	default:
		c.sendError("unsupported message type: " + msg.Type)
	}
}

func (h *Handler) relayEvents(ctx context.Context, c *connection, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() == nil {
					_ = c.send(OutgoingMessage{Type: TypeClosed})
					_ = c.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
						time.Now().Add(writeTimeout))
				}
				return
			}
			if err := c.send(OutgoingMessage{Type: TypeEvent, Data: ev}); err != nil {
				return
			}
		}
	}
}

func (h *Handler) pingLoop(ctx context.Context, c *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

package preferences

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/logging"
	"github.com/zhouzirui/educhat/backend/internal/service/preferences"
	"github.com/zhouzirui/educhat/backend/pkg/utils"
)

// Handler 用户偏好设置的HTTP处理器
type Handler struct {
	store preferences.Store
}

// New 创建偏好设置处理器
func New(store preferences.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册偏好设置路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/preferences", h.handleGet)
	r.Put("/preferences", h.handleUpdate)
	r.Post("/preferences/toggle", h.handleToggle)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.store.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, prefs)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var prefs preferences.Preferences
	if err := utils.DecodeJSON(r, &prefs); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Save(r.Context(), prefs); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, prefs)
}

// handleToggle 切换明暗主题
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	prefs, err := preferences.Toggle(r.Context(), h.store)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, prefs)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, preferences.ErrInvalidTheme) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	logging.WithCtx(r.Context()).Error("preferences store failed", zap.Error(err))
	utils.RespondError(w, http.StatusInternalServerError, "preferences unavailable")
}

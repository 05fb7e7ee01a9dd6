package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/educhat/backend/internal/handler/chat"
	prefsHandler "github.com/zhouzirui/educhat/backend/internal/handler/preferences"
	profileHandler "github.com/zhouzirui/educhat/backend/internal/handler/profile"
	"github.com/zhouzirui/educhat/backend/internal/handler/stream"
	"github.com/zhouzirui/educhat/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/educhat/backend/internal/middleware"
	"github.com/zhouzirui/educhat/backend/internal/model/profile"
	chatService "github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/internal/service/preferences"
	"github.com/zhouzirui/educhat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(profiles profile.Store, chatSvc *chatService.Service, prefs preferences.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": chatSvc.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		profileHandler.New(profiles).RegisterRoutes(api)
		chat.New(chatSvc).RegisterRoutes(api)
		stream.New(chatSvc).RegisterRoutes(api)
		ws.New(chatSvc).RegisterRoutes(api)

		if prefs != nil {
			prefsHandler.New(prefs).RegisterRoutes(api)
		}
	})

	return r
}

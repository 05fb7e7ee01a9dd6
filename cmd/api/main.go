package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/config"
	"github.com/zhouzirui/educhat/backend/internal/handler"
	"github.com/zhouzirui/educhat/backend/internal/logging"
	"github.com/zhouzirui/educhat/backend/internal/model/profile"
	"github.com/zhouzirui/educhat/backend/internal/service/ai"
	"github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/internal/service/preferences"
	"github.com/zhouzirui/educhat/backend/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logging.L().Warn("failed to load .env file, continuing with system environment variables only", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logging.L().Fatal("failed to load configuration", zap.Error(err))
	}
	logging.Configure(cfg.Debug)
	defer logging.Sync()

	profileStore := profile.NewMemoryStore(profile.Seed())

	// 初始化回复提供者，失败时退回echo
	var provider ai.Provider
	provider, err = ai.NewProvider(ctx, cfg.AI, profile.Assistant(profileStore))
	if err != nil {
		logging.L().Warn("failed to initialize AI provider, falling back to echo - 请检查模型相关环境变量",
			zap.String("provider", cfg.AI.ProviderName()), zap.Error(err))
		provider = ai.NewEchoProvider()
	}

	chatService := chat.NewService(provider, session.WithMaxInputLength(cfg.Chat.MaxInputLength))
	defer chatService.Close()

	prefsStore := preferences.NewFileStore(cfg.Preferences.Path)

	router := handler.NewRouter(profileStore, chatService, prefsStore)

	// 关闭时结束所有会话, 释放SSE与WebSocket订阅
	startServer(ctx, cfg.Server, router, chatService.Close)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, onShutdown func()) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if onShutdown != nil {
		srv.RegisterOnShutdown(onShutdown)
	}

	logging.L().Info("EduChat backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logging.L().Error("server error", zap.Error(err))
		return
	}
	logging.L().Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/chatcli"
	"github.com/zhouzirui/educhat/backend/internal/config"
	"github.com/zhouzirui/educhat/backend/internal/logging"
	"github.com/zhouzirui/educhat/backend/internal/model/profile"
	"github.com/zhouzirui/educhat/backend/internal/service/ai"
	"github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/internal/service/preferences"
	"github.com/zhouzirui/educhat/backend/internal/session"
)

type flags struct {
	provider  string
	prefsFile string
	width     int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "chatcli",
		Short: "Terminal client for EduChat sessions",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				logging.L().Debug("no .env file loaded", zap.Error(err))
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&f.provider, "provider", "", "response provider (ark, gemini, openai, anthropic, echo)")
	root.PersistentFlags().StringVar(&f.prefsFile, "prefs-file", "", "preferences file (defaults to PREFERENCES_FILE or the user config dir)")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), f)
		},
	}
	chatCmd.Flags().IntVar(&f.width, "width", chatcli.DefaultWidth, "word-wrap column for replies")

	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect or change display preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			prefs, err := preferences.NewFileStore(cfg.Preferences.Path).Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "theme: %s\n", prefs.Theme)
			return nil
		},
	}
	prefsCmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			prefs, err := preferences.Toggle(cmd.Context(), preferences.NewFileStore(cfg.Preferences.Path))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "theme: %s\n", prefs.Theme)
			return nil
		},
	})

	root.AddCommand(chatCmd, prefsCmd)
	return root
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if f.provider != "" {
		cfg.AI.Provider = f.provider
	}
	if f.prefsFile != "" {
		cfg.Preferences.Path = f.prefsFile
	}
	logging.Configure(cfg.Debug)
	return cfg, nil
}

func runChat(ctx context.Context, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	defer logging.Sync()

	profiles := profile.NewMemoryStore(profile.Seed())
	assistant := profile.Assistant(profiles)

	provider, err := ai.NewProvider(ctx, cfg.AI, assistant)
	if err != nil {
		return err
	}

	chatSvc := chat.NewService(provider, session.WithMaxInputLength(cfg.Chat.MaxInputLength))
	defer chatSvc.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	repl, err := chatcli.New(ctx, chatcli.Options{
		ChatService: chatSvc,
		Preferences: preferences.NewFileStore(cfg.Preferences.Path),
		Assistant:   assistant,
		In:          line,
		Out:         os.Stdout,
		Width:       f.width,
	})
	if err != nil {
		return err
	}
	return repl.Run(ctx)
}

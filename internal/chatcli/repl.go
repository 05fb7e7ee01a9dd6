package chatcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/zhouzirui/educhat/backend/internal/logging"
	chatModel "github.com/zhouzirui/educhat/backend/internal/model/chat"
	"github.com/zhouzirui/educhat/backend/internal/model/profile"
	chatService "github.com/zhouzirui/educhat/backend/internal/service/chat"
	"github.com/zhouzirui/educhat/backend/internal/service/preferences"
	"github.com/zhouzirui/educhat/backend/internal/session"
)

// LineReader reads one line of user input. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// historyRecorder is implemented by readers with arrow-key history.
type historyRecorder interface {
	AppendHistory(item string)
}

const inputPrompt = "you> "

// REPL drives one chat session from a terminal.
type REPL struct {
	chatSvc   *chatService.Service
	sess      *session.Session
	prefs     preferences.Store
	assistant profile.Profile
	in        LineReader
	out       io.Writer
	width     int
	renderer  *Renderer
}

// Options configures a REPL.
type Options struct {
	ChatService *chatService.Service
	Preferences preferences.Store
	Assistant   profile.Profile
	In          LineReader
	Out         io.Writer
	Width       int
}

// New starts a session on opts.ChatService and prepares the renderer from
// the stored theme.
func New(ctx context.Context, opts Options) (*REPL, error) {
	if opts.ChatService == nil {
		return nil, errors.New("chat service is required")
	}
	if opts.In == nil || opts.Out == nil {
		return nil, errors.New("input and output are required")
	}
	if opts.Preferences == nil {
		opts.Preferences = preferences.NewMemoryStore()
	}

	prefs, err := opts.Preferences.Load(ctx)
	if err != nil {
		logging.WithCtx(ctx).Warn("failed to load preferences, using defaults", zap.Error(err))
		prefs = preferences.Default()
	}
	renderer, err := NewRenderer(prefs.Theme, opts.Width)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	sess, err := opts.ChatService.CreateSession(ctx)
	if err != nil {
		return nil, err
	}

	return &REPL{
		chatSvc:   opts.ChatService,
		sess:      sess,
		prefs:     opts.Preferences,
		assistant: opts.Assistant,
		in:        opts.In,
		out:       opts.Out,
		width:     opts.Width,
		renderer:  renderer,
	}, nil
}

// Session returns the session driven by the REPL.
func (r *REPL) Session() *session.Session { return r.sess }

// Run reads lines until EOF, an abort or /quit.
func (r *REPL) Run(ctx context.Context) error {
	defer func() {
		_ = r.chatSvc.EndSession(ctx, r.sess.ID())
	}()

	r.printWelcome()

	for {
		line, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		if strings.HasPrefix(strings.TrimSpace(line), "/") {
			if !r.handleCommand(ctx, strings.TrimSpace(line)) {
				return nil
			}
			continue
		}

		r.submit(ctx, line)
	}
}

// readLine prompts with plain text, since liner measures the prompt width
// itself and miscounts ANSI escapes.
func (r *REPL) readLine() (string, error) {
	line, err := r.in.Prompt(inputPrompt)
	if err != nil {
		return "", err
	}
	if h, ok := r.in.(historyRecorder); ok && strings.TrimSpace(line) != "" {
		h.AppendHistory(line)
	}
	return line, nil
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, welcomeStyle.Render(r.assistantName()))
	if r.assistant.OpeningLine != "" {
		fmt.Fprintln(r.out, infoStyle.Render(r.assistant.OpeningLine))
	}
	fmt.Fprintln(r.out, infoStyle.Render("Type /help for commands."))
}

func (r *REPL) submit(ctx context.Context, line string) {
	if !r.sess.SetInput(line) {
		if n, ok := r.sess.Snapshot().LastNotification(); ok {
			r.printNotification(n)
		}
		return
	}
	if strings.TrimSpace(line) == "" {
		return
	}

	fmt.Fprintln(r.out, infoStyle.Render("AI is typing..."))

	outcome, err := r.sess.Submit(ctx, line)
	if err != nil {
		fmt.Fprintln(r.out, toastBody.Render(err.Error()))
		return
	}

	switch {
	case outcome.Reply != nil:
		fmt.Fprintf(r.out, "%s %s\n", aiStyle.Render(r.assistantName()), infoStyle.Render(outcome.Reply.Timestamp))
		fmt.Fprint(r.out, r.renderer.Markdown(outcome.Reply.Content))
	case outcome.Notification != nil:
		r.printNotification(*outcome.Notification)
	}
}

func (r *REPL) assistantName() string {
	if r.assistant.Name != "" {
		return r.assistant.Name
	}
	return "AI"
}

func (r *REPL) printNotification(n session.Notification) {
	fmt.Fprintf(r.out, "%s %s\n", toastTitle.Render(n.Title), toastBody.Render(n.Description))
}

// handleCommand runs a slash command and reports whether to keep reading.
func (r *REPL) handleCommand(ctx context.Context, line string) bool {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return false
	case "/help":
		fmt.Fprintln(r.out, infoStyle.Render("/theme    toggle light and dark mode"))
		fmt.Fprintln(r.out, infoStyle.Render("/summary  summarize the conversation"))
		fmt.Fprintln(r.out, infoStyle.Render("/history  reprint the conversation"))
		fmt.Fprintln(r.out, infoStyle.Render("/quit     leave"))
	case "/theme":
		r.toggleTheme(ctx)
	case "/summary":
		summary, err := r.chatSvc.Summarize(ctx, r.sess.ID())
		if err != nil {
			fmt.Fprintln(r.out, toastBody.Render(err.Error()))
			break
		}
		fmt.Fprint(r.out, r.renderer.Markdown(summary))
	case "/history":
		for _, m := range r.sess.Snapshot().Messages {
			label := userStyle.Render("You")
			if m.Sender != chatModel.SenderUser {
				label = aiStyle.Render(r.assistantName())
			}
			fmt.Fprintf(r.out, "%s %s\n%s\n", label, infoStyle.Render(m.Timestamp), m.Content)
		}
	default:
		fmt.Fprintln(r.out, toastBody.Render("unknown command: "+line))
	}
	return true
}

func (r *REPL) toggleTheme(ctx context.Context) {
	prefs, err := preferences.Toggle(ctx, r.prefs)
	if err != nil {
		fmt.Fprintln(r.out, toastBody.Render(err.Error()))
		return
	}
	renderer, err := NewRenderer(prefs.Theme, r.width)
	if err != nil {
		fmt.Fprintln(r.out, toastBody.Render(err.Error()))
		return
	}
	r.renderer = renderer
	fmt.Fprintln(r.out, infoStyle.Render("theme: "+string(prefs.Theme)))
}

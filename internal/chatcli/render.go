package chatcli

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/educhat/backend/internal/service/preferences"
)

// DefaultWidth is the word-wrap column for rendered replies.
const DefaultWidth = 80

var (
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	aiStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#A855F7")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	toastTitle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	toastBody    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	welcomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A855F7")).Bold(true)
)

// Renderer turns assistant markdown into terminal output for a theme.
type Renderer struct {
	theme preferences.Theme
	md    *glamour.TermRenderer
}

// NewRenderer builds a glamour renderer using the standard style for theme.
func NewRenderer(theme preferences.Theme, width int) (*Renderer, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	style := "light"
	if theme == preferences.ThemeDark {
		style = "dark"
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{theme: theme, md: md}, nil
}

// Theme reports the theme the renderer was built for.
func (r *Renderer) Theme() preferences.Theme { return r.theme }

// Markdown renders text, returning it unchanged if glamour fails.
func (r *Renderer) Markdown(text string) string {
	if r == nil || r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n") + "\n"
}

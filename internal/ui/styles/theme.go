// Package styles provides the visual styling for the chat TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme holds the styled components of the chat view.
type Theme struct {
	Header    lipgloss.Style
	StatusBar lipgloss.Style

	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	UserText  lipgloss.Style
	BotText   lipgloss.Style
	ErrorText lipgloss.Style
	Pending   lipgloss.Style
	Timestamp lipgloss.Style

	Banner   lipgloss.Style
	JumpHint lipgloss.Style
	Spinner  lipgloss.Style
	Help     lipgloss.Style
}

// Palette, chosen for legibility on both dark and light terminals.
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "25", Dark: "39"}
	colorBot     = lipgloss.AdaptiveColor{Light: "28", Dark: "78"}
	colorError   = lipgloss.AdaptiveColor{Light: "124", Dark: "203"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "243", Dark: "245"}
	colorWarn    = lipgloss.AdaptiveColor{Light: "130", Dark: "214"}
)

// New creates the default theme.
func New() *Theme {
	return &Theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1),

		UserLabel: lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		BotLabel:  lipgloss.NewStyle().Bold(true).Foreground(colorBot),
		UserText:  lipgloss.NewStyle(),
		BotText:   lipgloss.NewStyle(),
		ErrorText: lipgloss.NewStyle().Foreground(colorError),
		Pending:   lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
		Timestamp: lipgloss.NewStyle().Foreground(colorMuted),

		Banner: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true).
			Padding(0, 1),
		JumpHint: lipgloss.NewStyle().Foreground(colorWarn).Padding(0, 1),
		Spinner:  lipgloss.NewStyle().Foreground(colorPrimary),
		Help:     lipgloss.NewStyle().Foreground(colorMuted),
	}
}

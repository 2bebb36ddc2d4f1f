// Package styles defines the color theme and lipgloss styles for the
// terminal chat client.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme
type Theme struct {
	Primary lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	TextDim lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
}

// DefaultTheme is the standard adaptive palette.
var DefaultTheme = Theme{
	Primary: lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7B68EE"},
	Text:    lipgloss.AdaptiveColor{Light: "#1E1E1E", Dark: "#E0E0E0"},
	TextDim: lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"},
	Border:  lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#404040"},
	Success: lipgloss.AdaptiveColor{Light: "#4CAF50", Dark: "#66BB6A"},
	Warning: lipgloss.AdaptiveColor{Light: "#FF9800", Dark: "#FFA726"},
	Error:   lipgloss.AdaptiveColor{Light: "#F44336", Dark: "#EF5350"},
}

// Styles holds the styles the chat client renders with
type Styles struct {
	Theme Theme

	Header           lipgloss.Style
	Help             lipgloss.Style
	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	SystemMessage    lipgloss.Style
	ErrorMessage     lipgloss.Style
	Step             lipgloss.Style
	ToolName         lipgloss.Style
	Spinner          lipgloss.Style
}

// NewStyles creates a styles instance with the given theme
func NewStyles(theme Theme) *Styles {
	s := &Styles{Theme: theme}

	s.Header = lipgloss.NewStyle().
		Foreground(theme.Text).
		Bold(true)

	s.Help = lipgloss.NewStyle().
		Foreground(theme.TextDim)

	s.UserMessage = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	s.AssistantMessage = lipgloss.NewStyle().
		Foreground(theme.Text)

	s.SystemMessage = lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Italic(true)

	s.ErrorMessage = lipgloss.NewStyle().
		Foreground(theme.Error).
		Bold(true)

	s.Step = lipgloss.NewStyle().
		Foreground(theme.TextDim)

	s.ToolName = lipgloss.NewStyle().
		Foreground(theme.Success)

	s.Spinner = lipgloss.NewStyle().
		Foreground(theme.Primary)

	return s
}

package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color
	Warn    lipgloss.Color
	Error   lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is the default theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Warn:    lipgloss.Color("#ffcc66"),
	Error:   lipgloss.Color("#ff6b6b"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	// Model labels one model's streamed output in a multi-model turn.
	Model lipgloss.Style

	// Stage labels job workflow progress lines.
	Stage lipgloss.Style

	// Review highlights a pending human-review checkpoint.
	Review lipgloss.Style

	// Notice renders ephemeral informational lines.
	Notice lipgloss.Style

	// Err renders failure lines.
	Err lipgloss.Style

	// Dim renders secondary detail such as thinking traces.
	Dim lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Model:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Stage:  lipgloss.NewStyle().Foreground(t.Primary),
		Review: lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Notice: lipgloss.NewStyle().Foreground(t.Dim),
		Err:    lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Dim:    lipgloss.NewStyle().Foreground(t.Dim),
	}
}

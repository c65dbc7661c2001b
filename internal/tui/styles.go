package tui

import "github.com/charmbracelet/lipgloss"

// Color constants matching the dark editor theme
const (
	ColorBg     = "#0d1117"
	ColorCard   = "#161b22"
	ColorBorder = "#30363d"
	ColorBlue   = "#58a6ff"
	ColorGreen  = "#3fb950"
	ColorRed    = "#f85149"
	ColorYellow = "#d29922"
	ColorGray   = "#8b949e"
	ColorText   = "#c9d1d9"
	ColorBright = "#f0f6fc"
)

// Styles holds all lipgloss styles for the TUI
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Help     lipgloss.Style

	// Form rows
	Label       lipgloss.Style
	ActiveLabel lipgloss.Style
	Value       lipgloss.Style
	Checked     lipgloss.Style
	Unchecked   lipgloss.Style

	// Status line
	StatusSent  lipgloss.Style
	StatusError lipgloss.Style

	// Preview pane
	Preview  lipgloss.Style
	Fragment lipgloss.Style
	Muted    lipgloss.Style

	Border lipgloss.Style
}

// DefaultStyles creates the default style set
func DefaultStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorBright)).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)).
			MarginBottom(1),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray)).
			Italic(true),

		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)),

		ActiveLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorBlue)).
			Bold(true),

		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorBright)),

		Checked: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGreen)).
			Bold(true),

		Unchecked: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray)),

		StatusSent: lipgloss.NewStyle().
			Background(lipgloss.Color(ColorGreen)).
			Foreground(lipgloss.Color(ColorBg)).
			Padding(0, 1).
			Bold(true),

		StatusError: lipgloss.NewStyle().
			Background(lipgloss.Color(ColorRed)).
			Foreground(lipgloss.Color(ColorBg)).
			Padding(0, 1).
			Bold(true),

		Preview: lipgloss.NewStyle().
			Background(lipgloss.Color(ColorCard)).
			Foreground(lipgloss.Color(ColorText)).
			Padding(0, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)),

		Fragment: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorYellow)),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray)),

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(1, 2),
	}
}

// Checkbox renders a checkbox glyph.
func (s *Styles) Checkbox(on bool) string {
	if on {
		return s.Checked.Render("[x]")
	}
	return s.Unchecked.Render("[ ]")
}

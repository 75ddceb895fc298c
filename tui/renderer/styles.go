package renderer

import "github.com/charmbracelet/lipgloss"

// Styles used by the console.
type Styles struct {
	Heading    lipgloss.Style
	Diagnostic lipgloss.Style
	Error      lipgloss.Style
}

func DefaultStyles() *Styles {
	return &Styles{
		Heading: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bb9af7")). // purple
			Bold(true),
		Diagnostic: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89")). // gray
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")),
	}
}

// PlainStyles leaves text untouched. Used when output is not a terminal.
func PlainStyles() *Styles {
	return &Styles{
		Heading:    lipgloss.NewStyle(),
		Diagnostic: lipgloss.NewStyle(),
		Error:      lipgloss.NewStyle(),
	}
}

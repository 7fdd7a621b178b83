package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the terminal styles used for status lines. With NoColor set
// every style renders its input unchanged.
type Styles struct {
	Title   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles returns the default palette
func NewStyles(noColor bool) *Styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return &Styles{
			Title:   plain,
			Key:     plain,
			Value:   plain,
			Success: plain,
			Warning: plain,
			Error:   plain,
			Muted:   plain,
		}
	}

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

// Status prints a one-line status message to w
func (s *Styles) Status(w io.Writer, ok bool, format string, args ...any) {
	mark, style := "✓", s.Success
	if !ok {
		mark, style = "✗", s.Error
	}
	fmt.Fprintf(w, "%s %s\n", style.Render(mark), fmt.Sprintf(format, args...))
}

// Field prints an aligned key/value line
func (s *Styles) Field(w io.Writer, key, value string) {
	fmt.Fprintf(w, "  %s %s\n", s.Key.Render(fmt.Sprintf("%-12s", key+":")), s.Value.Render(value))
}

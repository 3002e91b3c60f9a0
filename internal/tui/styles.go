package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/prosewrites/draftline/internal/suggest"
)

const (
	ColorCyan   = lipgloss.Color("12") // Title, header
	ColorYellow = lipgloss.Color("11") // Busy, update notice
	ColorGreen  = lipgloss.Color("10") // Ready
	ColorRed    = lipgloss.Color("9")  // Failed, access dialog
	ColorGray   = lipgloss.Color("8")  // Ghost text, help, stats
)

// Styles holds the lipgloss styles used by the editor view.
type Styles struct {
	Header      lipgloss.Style
	Update      lipgloss.Style
	TitleLabel  lipgloss.Style
	Divider     lipgloss.Style
	Ghost       lipgloss.Style
	GhostPanel  lipgloss.Style
	GhostLabel  lipgloss.Style
	Help        lipgloss.Style
	Stats       lipgloss.Style
	Notice      lipgloss.Style
	Dialog      lipgloss.Style
	DialogTitle lipgloss.Style
	Status      map[suggest.StatusKind]lipgloss.Style
}

// DefaultStyles returns the editor's default styling.
func DefaultStyles() Styles {
	return Styles{
		Header:     lipgloss.NewStyle().Foreground(ColorCyan).Bold(true),
		Update:     lipgloss.NewStyle().Foreground(ColorYellow),
		TitleLabel: lipgloss.NewStyle().Foreground(ColorCyan),
		Divider:    lipgloss.NewStyle().Foreground(ColorGray),
		Ghost:      lipgloss.NewStyle().Foreground(ColorGray).Italic(true),
		GhostPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1),
		GhostLabel: lipgloss.NewStyle().Foreground(ColorCyan),
		Help:       lipgloss.NewStyle().Foreground(ColorGray),
		Stats:      lipgloss.NewStyle().Foreground(ColorGray),
		Notice:     lipgloss.NewStyle().Foreground(ColorYellow),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorRed).
			Padding(1, 2),
		DialogTitle: lipgloss.NewStyle().Foreground(ColorRed).Bold(true),
		Status: map[suggest.StatusKind]lipgloss.Style{
			suggest.StatusReady:  lipgloss.NewStyle().Foreground(ColorGreen),
			suggest.StatusBusy:   lipgloss.NewStyle().Foreground(ColorYellow),
			suggest.StatusFailed: lipgloss.NewStyle().Foreground(ColorRed),
			suggest.StatusInfo:   lipgloss.NewStyle().Foreground(ColorGray),
		},
	}
}

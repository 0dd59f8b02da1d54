// Package tui is the terminal player: it walks one assessment session
// through the questionnaire and the four timed tasks with real timers.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	Slate   = lipgloss.Color("#0f172a")
	Muted   = lipgloss.Color("#64748b")
	Border  = lipgloss.Color("#cbd5e1")
	Accent  = lipgloss.Color("#0ea5e9")
	Danger  = lipgloss.Color("#ef4444")
	Success = lipgloss.Color("#22c55e")
	Warning = lipgloss.Color("#f59e0b")
)

// Styles holds every style the screens use.
type Styles struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Muted      lipgloss.Style
	Bold       lipgloss.Style
	Arena      lipgloss.Style
	Target     lipgloss.Style
	Cell       lipgloss.Style
	CellActive lipgloss.Style
	CellError  lipgloss.Style
	Marker     lipgloss.Style
	Cleared    lipgloss.Style
	Score      lipgloss.Style
	Risk       lipgloss.Style
	Good       lipgloss.Style
	Error      lipgloss.Style
}

func DefaultStyles() Styles {
	cell := lipgloss.NewStyle().
		Width(7).
		Height(3).
		Align(lipgloss.Center, lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)

	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Subtitle:   lipgloss.NewStyle().Foreground(Slate).Bold(true),
		Muted:      lipgloss.NewStyle().Foreground(Muted),
		Bold:       lipgloss.NewStyle().Bold(true),
		Arena:      lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(Border),
		Target:     lipgloss.NewStyle().Foreground(Accent).Bold(true),
		Cell:       cell,
		CellActive: cell.BorderForeground(Accent).Foreground(Accent).Bold(true),
		CellError:  cell.BorderForeground(Danger).Foreground(Danger).Bold(true),
		Marker:     lipgloss.NewStyle().Foreground(Slate).Background(Border).Bold(true),
		Cleared:    lipgloss.NewStyle().Foreground(Muted).Strikethrough(true),
		Score:      lipgloss.NewStyle().Bold(true).Foreground(Accent).Padding(0, 2).Border(lipgloss.DoubleBorder()).BorderForeground(Accent),
		Risk:       lipgloss.NewStyle().Foreground(Warning),
		Good:       lipgloss.NewStyle().Foreground(Success),
		Error:      lipgloss.NewStyle().Foreground(Danger).Bold(true),
	}
}

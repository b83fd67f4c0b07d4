package tui

import "github.com/charmbracelet/lipgloss"

// Color palette based on TUI design
var (
	// Prayer state colors
	Answered = lipgloss.Color("#95E1A3") // Green
	Unread   = lipgloss.Color("#FFE66D") // Yellow
	Warning  = lipgloss.Color("#FF6B6B") // Red

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Highlight = lipgloss.Color("#F38181")
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	// Sidebar
	SidebarStyle = lipgloss.NewStyle().
			Width(20).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	// Prayer list
	PrayerListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Source item (my prayers or a group)
	SourceItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	SourceItemSelectedStyle = lipgloss.NewStyle().
					Padding(0, 1).
					Background(Surface).
					Bold(true)

	// Prayer item
	PrayerItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	PrayerItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	PrayerAnsweredStyle = lipgloss.NewStyle().
				Foreground(Answered).
				Padding(0, 1)

	UnreadStyle  = lipgloss.NewStyle().Foreground(Unread).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// answeredMark renders the status column of a prayer row.
func answeredMark(answered bool) string {
	if answered {
		return lipgloss.NewStyle().Foreground(Answered).Render("✓")
	}
	return HelpStyle.Render("○")
}

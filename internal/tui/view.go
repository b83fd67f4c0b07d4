package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/prayerlist/internal/store"
)

const sidebarWidth = 24

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sidebar := m.renderSidebar()
	prayerList := m.renderPrayerList()
	statusBar := m.renderStatusBar()

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, prayerList)

	switch m.mode {
	case ModeAddPrayer:
		mainContent = m.overlay(m.renderModal())
	case ModeInbox:
		mainContent = m.overlay(m.renderInbox())
	case ModeHelp:
		mainContent = m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, statusBar)
}

func (m Model) overlay(modal string) string {
	return lipgloss.Place(
		m.width, m.height-2,
		lipgloss.Center, lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
	)
}

func (m Model) renderSidebar() string {
	var s string

	s += HeaderStyle.Render("PrayerList") + "\n"
	s += HelpStyle.Render(time.Now().Format("15:04:05")) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(rule(sidebarWidth-5)) + "\n\n"

	names := []string{"My prayers"}
	for _, g := range m.groups() {
		name := g.GroupName
		if !g.IsActive {
			name += " (off)"
		}
		names = append(names, name)
	}
	for i, name := range names {
		cursor := "  "
		style := SourceItemStyle
		if i == m.sourceCursor {
			cursor = "❯ "
			if m.pane == PaneSidebar {
				style = SourceItemSelectedStyle
			}
		}
		s += style.Render(cursor+truncate(name, sidebarWidth-6)) + "\n"
	}
	if m.snap.Groups.Status == store.StatusLoading && len(m.snap.Groups.Data) == 0 {
		s += HelpStyle.Render("  loading groups...") + "\n"
	}

	s += "\n" + lipgloss.NewStyle().Foreground(Border).Render(rule(sidebarWidth-5)) + "\n"
	if n := m.store.UnreadCount(); n > 0 {
		s += UnreadStyle.Render(fmt.Sprintf("● %d unread", n)) + "\n"
	}
	s += HelpStyle.Render("i inbox  ? help")

	return SidebarStyle.Width(sidebarWidth).Height(m.height - 2).Render(s)
}

func (m Model) renderPrayerList() string {
	width := m.width - sidebarWidth - 2
	var s string

	title := "My prayers"
	if g := m.currentGroup(); g != nil {
		title = g.GroupName
	}
	list := m.prayers()
	src := m.sourceSlice()

	open := 0
	for _, p := range list {
		if !p.IsAnswered {
			open++
		}
	}
	header := fmt.Sprintf("%s (%d open)", title, open)
	if m.filtered() {
		header += lipgloss.NewStyle().Foreground(Highlight).Render(fmt.Sprintf("  [%s]", m.filterLabel()))
	}
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(rule(width-4)) + "\n\n"

	switch {
	case src.Status == store.StatusLoading && !src.Loaded():
		s += HelpStyle.Render("  Loading...")
	case src.Status == store.StatusFailed && !src.Loaded():
		s += WarningStyle.Render("  " + src.Error)
	case len(list) == 0 && m.filtered():
		s += HelpStyle.Render("  Nothing matches. Press esc to clear filters.")
	case len(list) == 0:
		s += HelpStyle.Render("  No prayers yet. Press 'a' to add one.")
	}

	textWidth := max(width-12, 10)
	for i, p := range list {
		cursor := "  "
		style := PrayerItemStyle
		if i == m.prayerCursor && m.pane == PanePrayerList {
			cursor = "❯ "
			style = PrayerItemSelectedStyle
		} else if p.IsAnswered {
			style = PrayerAnsweredStyle
		}

		line := style.Render(fmt.Sprintf("%s %-*s", cursor, textWidth, truncate(p.Title, textWidth)))
		s += answeredMark(p.IsAnswered) + line + "\n"
		if p.PrayerDescription != "" && i == m.prayerCursor && m.pane == PanePrayerList {
			s += HelpStyle.Render("     "+truncate(p.PrayerDescription, textWidth)) + "\n"
		}
	}

	return PrayerListStyle.Width(width).Height(m.height - 2).Render(s)
}

func (m Model) filterLabel() string {
	var parts []string
	if m.search != "" {
		parts = append(parts, "/"+m.search)
	}
	if m.rangeIdx != 0 {
		parts = append(parts, string(ranges[m.rangeIdx]))
	}
	if m.answered != showAll {
		parts = append(parts, m.answered.String())
	}
	return strings.Join(parts, " ")
}

func (m Model) renderStatusBar() string {
	if m.mode == ModeFilter {
		return StatusBarStyle.Width(m.width).Render(fmt.Sprintf("/%s [%d]", m.input.View(), len(m.prayers())))
	}

	help := "/:search  t:range  o:open  a:add  x:answered  J/K:move  d:del  i:inbox  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	}

	busy := ""
	if m.sourceSlice().Status.Busy() {
		busy = "Working..."
	}
	if busy != "" {
		avail := m.width - lipgloss.Width(help) - len(busy) - 2
		if avail > 0 {
			help += strings.Repeat(" ", avail) + busy
		} else {
			help += " " + busy
		}
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderModal() string {
	title := "Add prayer"
	if g := m.currentGroup(); g != nil {
		title = "Add prayer to: " + g.GroupName
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderInbox() string {
	modalWidth := 60
	maxRows := 10
	list := m.notifications()

	content := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Notifications") + "\n"
	content += lipgloss.NewStyle().Foreground(Border).Render(rule(modalWidth-6)) + "\n\n"

	if len(list) == 0 {
		content += HelpStyle.Render("Nothing here") + "\n"
	}
	start := 0
	if m.inboxCursor >= maxRows {
		start = m.inboxCursor - maxRows + 1
	}
	for i := start; i < len(list) && i < start+maxRows; i++ {
		n := list[i]
		marker := "  "
		style := lipgloss.NewStyle()
		if i == m.inboxCursor {
			marker = "❯ "
			style = lipgloss.NewStyle().Bold(true).Foreground(Primary)
		}
		dot := " "
		if n.IsUnread() {
			dot = UnreadStyle.Render("●")
		}
		content += dot + style.Render(marker+truncate(n.NotificationMessage, modalWidth-12)) + "\n"
	}

	content += "\n" + HelpStyle.Render("↑↓:nav  Enter:read/unread  d:delete  A:all read  Esc:close")

	return ModalStyle.Width(modalWidth).Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ─────╮
│                            │
│  Navigation                │
│  ──────────                │
│  j/↓      Move down        │
│  k/↑      Move up          │
│  h/l      Switch pane      │
│  Tab      Switch pane      │
│  r        Refresh          │
│                            │
│  Prayers                   │
│  ───────                   │
│  a        Add prayer       │
│  x/Enter  Toggle answered  │
│  d        Delete           │
│  J/K      Move down/up     │
│                            │
│  Filters                   │
│  ───────                   │
│  /        Search           │
│  t        Date range       │
│  o        Open/answered    │
│  Esc      Clear filters    │
│                            │
│  Other                     │
│  ─────                     │
│  i        Notifications    │
│  L        Logout           │
│  ?        Toggle help      │
│  q        Quit             │
│                            │
╰────────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
)

const opTimeout = 30 * time.Second

// tickMsg is sent every second for the clock
type tickMsg time.Time

// opMsg reports a finished store operation
type opMsg struct {
	action string
	err    error
}

// Init loads every list the browser shows
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.run("Loaded prayers", m.store.FetchUserPrayers),
		m.run("", m.store.FetchGroups),
		m.run("", m.store.FetchNotifications),
	)
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// run executes a store operation off the UI goroutine.
func (m Model) run(action string, op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return opMsg{action: action, err: op(ctx)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.snap = m.store.Snapshot()
		return m, tickCmd()

	case opMsg:
		m.snap = m.store.Snapshot()
		m.clampCursors()
		if msg.err != nil {
			logger.Warn("TUI operation failed", logger.F("error", msg.err))
			m.message = WarningStyle.Render(api.MessageOf(msg.err))
		} else if msg.action != "" {
			m.message = msg.action
		}
		if !m.snap.Auth.Session.IsAuthenticated && !m.loggedOut {
			m.loggedOut = true
			m.message = WarningStyle.Render("Session ended. Run 'prayerlist auth login' to sign in again.")
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddPrayer:
			return m.updateInput(msg)
		case ModeFilter:
			return m.updateFilter(msg)
		case ModeInbox:
			return m.handleInboxKeys(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		if m.pane == PaneSidebar {
			m.pane = PanePrayerList
		} else {
			m.pane = PaneSidebar
		}

	case key.Matches(msg, keys.Left):
		m.pane = PaneSidebar

	case key.Matches(msg, keys.Right):
		m.pane = PanePrayerList

	case key.Matches(msg, keys.Up):
		if m.pane == PaneSidebar {
			if m.sourceCursor > 0 {
				m.sourceCursor--
				return m.openSource()
			}
		} else if m.prayerCursor > 0 {
			m.prayerCursor--
		}

	case key.Matches(msg, keys.Down):
		if m.pane == PaneSidebar {
			if m.sourceCursor < len(m.groups()) {
				m.sourceCursor++
				return m.openSource()
			}
		} else if m.prayerCursor < len(m.prayers())-1 {
			m.prayerCursor++
		}

	case key.Matches(msg, keys.Enter):
		if m.pane == PaneSidebar {
			m.pane = PanePrayerList
			return m.openSource()
		}
		return m.toggleAnswered()

	case key.Matches(msg, keys.Answer):
		if m.pane == PanePrayerList {
			return m.toggleAnswered()
		}

	case key.Matches(msg, keys.Add):
		m.mode = ModeAddPrayer
		m.input.Reset()
		m.input.Placeholder = "Prayer title..."
		m.input.Focus()
		return m, nil

	case key.Matches(msg, keys.Delete):
		if m.pane == PanePrayerList {
			return m.deletePrayer()
		}

	case key.Matches(msg, keys.MoveUp):
		if m.pane == PanePrayerList {
			return m.move(-1)
		}

	case key.Matches(msg, keys.MoveDown):
		if m.pane == PanePrayerList {
			return m.move(1)
		}

	case key.Matches(msg, keys.Search):
		m.mode = ModeFilter
		m.input.Reset()
		m.input.Placeholder = "Search prayers..."
		m.input.SetValue(m.search)
		m.input.Focus()
		return m, nil

	case key.Matches(msg, keys.Range):
		m.rangeIdx = (m.rangeIdx + 1) % len(ranges)
		m.prayerCursor = 0
		m.message = fmt.Sprintf("Range: %s", ranges[m.rangeIdx])

	case key.Matches(msg, keys.Open):
		m.answered = m.answered.next()
		m.prayerCursor = 0
		m.message = fmt.Sprintf("Showing: %s", m.answered)

	case key.Matches(msg, keys.Escape):
		if m.filtered() {
			m.search = ""
			m.rangeIdx = 0
			m.answered = showAll
			m.message = "Filters cleared"
		}

	case key.Matches(msg, keys.Inbox):
		m.mode = ModeInbox
		m.inboxCursor = 0
		return m, m.run("", m.store.FetchNotifications)

	case key.Matches(msg, keys.Refresh):
		m.message = "Refreshing..."
		return m, tea.Batch(
			m.run("Refreshed", m.refreshSource),
			m.run("", m.store.FetchGroups),
			m.run("", m.store.FetchNotifications),
		)

	case key.Matches(msg, keys.Logout):
		m.loggedOut = true
		m.message = "Logging out..."
		return m, tea.Sequence(m.run("Logged out", m.store.Logout), tea.Quit)

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

// openSource loads the prayers of the selected sidebar entry.
func (m Model) openSource() (tea.Model, tea.Cmd) {
	m.prayerCursor = 0
	return m, m.run("", m.refreshSource)
}

func (m Model) refreshSource(ctx context.Context) error {
	if g := m.currentGroup(); g != nil {
		return m.store.FetchGroupPrayers(ctx, g.GroupID)
	}
	return m.store.FetchUserPrayers(ctx)
}

func (m Model) ownPrayer(p model.Prayer) bool {
	u := m.snap.Auth.Session.User
	return u != nil && p.CreatedBy == u.UserProfileID
}

func (m Model) toggleAnswered() (tea.Model, tea.Cmd) {
	p := m.currentPrayer()
	if p == nil {
		return m, nil
	}
	if !m.ownPrayer(*p) {
		m.message = WarningStyle.Render("Only the author can update this prayer")
		return m, nil
	}
	in := api.EditInput(*p)
	answered := !p.IsAnswered
	in.IsAnswered = &answered
	id := p.PrayerID
	action := "Marked answered"
	if !answered {
		action = "Marked open"
	}
	return m, m.run(action, func(ctx context.Context) error {
		return m.store.UpdatePrayer(ctx, id, in)
	})
}

func (m Model) deletePrayer() (tea.Model, tea.Cmd) {
	p := m.currentPrayer()
	if p == nil {
		return m, nil
	}
	if !m.ownPrayer(*p) {
		m.message = WarningStyle.Render("Only the author can delete this prayer")
		return m, nil
	}
	id, title := p.PrayerID, p.Title
	return m, m.run("Deleted: "+truncate(title, 30), func(ctx context.Context) error {
		return m.store.DeletePrayer(ctx, id)
	})
}

// move swaps the selected prayer with its neighbour and saves the new order.
// The store shows the new order at once and rolls back if the save fails.
func (m Model) move(delta int) (tea.Model, tea.Cmd) {
	if m.filtered() {
		m.message = WarningStyle.Render("Clear filters (esc) before reordering")
		return m, nil
	}
	list := m.sourceSlice().Data
	to := m.prayerCursor + delta
	if m.prayerCursor >= len(list) || to < 0 || to >= len(list) {
		return m, nil
	}
	ordered := swapped(list, m.prayerCursor, to)
	m.prayerCursor = to

	if g := m.currentGroup(); g != nil {
		gid := g.GroupID
		return m, m.run("Moved", func(ctx context.Context) error {
			return m.store.ReorderGroupPrayers(ctx, gid, ordered)
		})
	}
	return m, m.run("Moved", func(ctx context.Context) error {
		return m.store.ReorderUserPrayers(ctx, ordered)
	})
}

// updateInput handles the add prayer modal
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case msg.Type == tea.KeyEnter:
		title := strings.TrimSpace(m.input.Value())
		m.mode = ModeNormal
		m.input.Blur()
		if title == "" {
			return m, nil
		}
		in := api.PrayerInput{Title: title}
		if g := m.currentGroup(); g != nil {
			gid := g.GroupID
			return m, m.run("Added to "+truncate(g.GroupName, 20), func(ctx context.Context) error {
				_, err := m.store.CreateGroupPrayer(ctx, gid, in)
				return err
			})
		}
		return m, m.run("Added: "+truncate(title, 30), func(ctx context.Context) error {
			_, err := m.store.CreateUserPrayer(ctx, in)
			return err
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateFilter edits the search box; results update as the user types.
func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.search = ""
		m.input.Blur()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.search = m.input.Value()
	m.prayerCursor = 0
	return m, cmd
}

// handleInboxKeys handles the notification list
func (m Model) handleInboxKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.notifications()
	switch {
	case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Inbox), key.Matches(msg, keys.Quit):
		m.mode = ModeNormal

	case key.Matches(msg, keys.Up):
		if m.inboxCursor > 0 {
			m.inboxCursor--
		}

	case key.Matches(msg, keys.Down):
		if m.inboxCursor < len(list)-1 {
			m.inboxCursor++
		}

	case key.Matches(msg, keys.Enter):
		if m.inboxCursor < len(list) {
			id := list[m.inboxCursor].NotificationID
			return m, m.run("", func(ctx context.Context) error {
				return m.store.ToggleNotification(ctx, id)
			})
		}

	case key.Matches(msg, keys.Delete):
		if m.inboxCursor < len(list) {
			id := list[m.inboxCursor].NotificationID
			return m, m.run("Notification deleted", func(ctx context.Context) error {
				return m.store.DeleteNotification(ctx, id)
			})
		}

	case key.Matches(msg, keys.ReadAll):
		return m, m.run("All notifications read", func(ctx context.Context) error {
			_, err := m.store.MarkAllNotificationsRead(ctx)
			return err
		})
	}
	return m, nil
}

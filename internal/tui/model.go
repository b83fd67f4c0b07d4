package tui

import (
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/store"
)

// Pane represents which pane is focused
type Pane int

const (
	PaneSidebar Pane = iota
	PanePrayerList
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddPrayer
	ModeFilter
	ModeInbox
	ModeHelp
)

// answeredFilter cycles all, open, answered
type answeredFilter int

const (
	showAll answeredFilter = iota
	showOpen
	showAnswered
)

func (a answeredFilter) next() answeredFilter { return (a + 1) % 3 }

func (a answeredFilter) ptr() *bool {
	switch a {
	case showOpen:
		v := false
		return &v
	case showAnswered:
		v := true
		return &v
	}
	return nil
}

func (a answeredFilter) String() string {
	switch a {
	case showOpen:
		return "open"
	case showAnswered:
		return "answered"
	}
	return "all"
}

var ranges = []store.DateRange{store.RangeAll, store.RangeToday, store.RangeWeek, store.RangeMonth, store.RangeYear}

// Model is the main TUI model. It renders store snapshots and runs store
// operations as commands.
type Model struct {
	store *store.Store
	snap  store.State

	mine       *store.PrayerView
	groupList  *store.GroupView
	groupPrays *store.PrayerView
	inbox      *store.NotificationView

	// UI state
	width        int
	height       int
	pane         Pane
	mode         Mode
	sourceCursor int // 0 is the user's own list, then one per group
	prayerCursor int
	inboxCursor  int

	// Input
	input textinput.Model

	// Filters
	search    string
	rangeIdx  int
	answered  answeredFilter
	loggedOut bool

	message string
}

// NewModel creates a new TUI model
func NewModel(st *store.Store) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "Enter prayer..."
	ti.CharLimit = 256
	ti.Width = 50

	return Model{
		store:      st,
		snap:       st.Snapshot(),
		mine:       store.NewPrayerView(),
		groupList:  store.NewGroupView(),
		groupPrays: store.NewPrayerView(),
		inbox:      store.NewNotificationView(),
		pane:       PaneSidebar,
		mode:       ModeNormal,
		input:      ti,
	}
}

func (m *Model) filter() store.PrayerFilter {
	return store.PrayerFilter{
		Search:     m.search,
		DateRange:  ranges[m.rangeIdx],
		IsAnswered: m.answered.ptr(),
	}
}

func (m *Model) groups() []model.Group {
	return m.groupList.Select(m.snap.Groups, store.GroupFilter{})
}

// currentGroup returns the selected group, nil for the user's own list.
func (m *Model) currentGroup() *model.Group {
	gs := m.groups()
	if m.sourceCursor == 0 || m.sourceCursor > len(gs) {
		return nil
	}
	return &gs[m.sourceCursor-1]
}

// sourceSlice is the unfiltered slice behind the right pane.
func (m *Model) sourceSlice() store.Slice[model.Prayer] {
	if g := m.currentGroup(); g != nil {
		if m.snap.GroupPrayers.ParentID != g.GroupID {
			return store.NewSlice[model.Prayer]()
		}
		return m.snap.GroupPrayers.Slice
	}
	return m.snap.UserPrayers
}

// prayers is the filtered list shown in the right pane.
func (m *Model) prayers() []model.Prayer {
	if m.currentGroup() != nil {
		return m.groupPrays.Select(m.sourceSlice(), m.filter())
	}
	return m.mine.Select(m.sourceSlice(), m.filter())
}

func (m *Model) currentPrayer() *model.Prayer {
	list := m.prayers()
	if m.prayerCursor < len(list) {
		return &list[m.prayerCursor]
	}
	return nil
}

func (m *Model) notifications() []model.Notification {
	return m.inbox.Select(m.snap.Notifications, store.NotificationFilter{})
}

func (m *Model) filtered() bool {
	return m.search != "" || m.rangeIdx != 0 || m.answered != showAll
}

func (m *Model) clampCursors() {
	if n := len(m.groups()) + 1; m.sourceCursor >= n {
		m.sourceCursor = n - 1
	}
	if n := len(m.prayers()); m.prayerCursor >= n {
		m.prayerCursor = max(n-1, 0)
	}
	if n := len(m.notifications()); m.inboxCursor >= n {
		m.inboxCursor = max(n-1, 0)
	}
}

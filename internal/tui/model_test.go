package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/store"
)

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo world", 8); got != "héllo..." {
		t.Fatalf("truncate = %q, want %q", got, "héllo...")
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q, want short", got)
	}
}

func TestSwapped_LeavesInputAlone(t *testing.T) {
	in := []int{1, 2, 3}
	out := swapped(in, 0, 2)
	if out[0] != 3 || out[2] != 1 {
		t.Fatalf("swapped = %v, want [3 2 1]", out)
	}
	if in[0] != 1 {
		t.Fatalf("input modified: %v", in)
	}
}

func TestFilters_CycleAndClear(t *testing.T) {
	m := NewModel(store.New(nil, nil))
	if m.filtered() {
		t.Fatal("new model is filtered")
	}

	m = press(t, m, "t")
	if ranges[m.rangeIdx] != store.RangeToday {
		t.Fatalf("range = %s, want today", ranges[m.rangeIdx])
	}
	m = press(t, m, "o")
	if f := m.filter(); f.IsAnswered == nil || *f.IsAnswered {
		t.Fatalf("IsAnswered = %v, want false", f.IsAnswered)
	}
	if got := m.filterLabel(); got != "today open" {
		t.Fatalf("filterLabel = %q, want %q", got, "today open")
	}

	m = press(t, m, "esc")
	if m.filtered() {
		t.Fatalf("filters after esc: %q", m.filterLabel())
	}
}

func TestSearch_UpdatesWhileTyping(t *testing.T) {
	m := NewModel(store.New(nil, nil))
	m = press(t, m, "/")
	if m.mode != ModeFilter {
		t.Fatalf("mode = %v, want filter", m.mode)
	}
	m = press(t, m, "he")
	if m.search != "he" {
		t.Fatalf("search = %q, want he", m.search)
	}
	m = press(t, m, "enter")
	if m.mode != ModeNormal || m.search != "he" {
		t.Fatalf("after enter mode = %v search = %q", m.mode, m.search)
	}
}

func TestMove_BlockedWhileFiltered(t *testing.T) {
	m := NewModel(store.New(nil, nil))
	m.pane = PanePrayerList
	m.search = "x"
	next, cmd := m.move(1)
	if cmd != nil {
		t.Fatal("move returned a command while filtered")
	}
	if next.(Model).message == "" {
		t.Fatal("move did not explain why it was blocked")
	}
}

func TestOwnPrayer(t *testing.T) {
	m := NewModel(store.New(nil, nil))
	p := model.Prayer{PrayerID: 1}
	p.CreatedBy = 7
	if m.ownPrayer(p) {
		t.Fatal("ownPrayer true without a session user")
	}
	m.snap.Auth.Session.User = &model.User{UserProfileID: 7}
	if !m.ownPrayer(p) {
		t.Fatal("ownPrayer false for the author")
	}
}

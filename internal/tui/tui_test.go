package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/safehook/internal/db"
	"github.com/Dicklesworthstone/safehook/internal/eventlog"
)

func sampleEvents() []*db.Event {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*db.Event{
		{ID: "a", OccurredAt: at, EventType: eventlog.EventBlocked, Command: "rm -rf /", Action: "recursive-force-delete"},
		{ID: "b", OccurredAt: at, EventType: eventlog.EventWarned, Command: "chmod 777 x", Action: "world-writable-chmod"},
		{ID: "c", OccurredAt: at, EventType: eventlog.EventBlocked, Command: "sudo rm y", Action: "privileged-delete"},
	}
}

// fakeLoader filters sampleEvents and records the requested types.
func fakeLoader(calls *[]string) Loader {
	return func(eventType string) ([]*db.Event, error) {
		*calls = append(*calls, eventType)
		var out []*db.Event
		for _, e := range sampleEvents() {
			if eventType == "" || e.EventType == eventType {
				out = append(out, e)
			}
		}
		return out, nil
	}
}

// send applies msg and runs any returned command once, feeding its result back.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd != nil {
		if next := cmd(); next != nil {
			if _, quit := next.(tea.QuitMsg); !quit {
				updated, _ = m.Update(next)
				m = updated.(Model)
			}
		}
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, calls *[]string) Model {
	t.Helper()
	m := New(fakeLoader(calls))
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return send(t, m, m.Init()())
}

func TestModel_LoadingView(t *testing.T) {
	if got := New(nil).View(); got != "Loading..." {
		t.Fatalf("View before size = %q", got)
	}
}

func TestModel_InitLoadsAllEvents(t *testing.T) {
	var calls []string
	m := loaded(t, &calls)

	if len(m.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(m.events))
	}
	if len(calls) != 1 || calls[0] != "" {
		t.Fatalf("expected one unfiltered load, got %q", calls)
	}
	view := m.View()
	for _, want := range []string{"filter: ALL", "rm -rf /", "chmod 777 x"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_Navigation(t *testing.T) {
	var calls []string
	m := loaded(t, &calls)

	m = send(t, m, key("down"))
	m = send(t, m, key("j"))
	m = send(t, m, key("j"))
	if m.cursor != 2 {
		t.Fatalf("cursor=%d want 2 (clamped)", m.cursor)
	}
	m = send(t, m, key("k"))
	if got := m.Selected(); got == nil || got.ID != "b" {
		t.Fatalf("selected=%v want b", got)
	}
	m = send(t, m, key("g"))
	if m.cursor != 0 {
		t.Fatalf("cursor=%d after g", m.cursor)
	}
	m = send(t, m, key("G"))
	if m.cursor != 2 {
		t.Fatalf("cursor=%d after G", m.cursor)
	}
}

func TestModel_DetailToggle(t *testing.T) {
	var calls []string
	m := loaded(t, &calls)

	m = send(t, m, key("enter"))
	if !m.detail || !strings.Contains(m.View(), "recursive-force-delete") {
		t.Fatalf("detail panel not shown:\n%s", m.View())
	}
	m = send(t, m, key("esc"))
	if m.detail {
		t.Fatalf("esc must close the detail panel")
	}
}

func TestModel_FilterCycles(t *testing.T) {
	var calls []string
	m := loaded(t, &calls)

	m = send(t, m, key("f"))
	if m.Filter() != eventlog.EventBlocked {
		t.Fatalf("filter=%q want BLOCKED", m.Filter())
	}
	if len(m.events) != 2 {
		t.Fatalf("expected 2 blocked events, got %d", len(m.events))
	}
	for i := 0; i < len(filters)-1; i++ {
		m = send(t, m, key("f"))
	}
	if m.Filter() != "" {
		t.Fatalf("filter did not wrap around: %q", m.Filter())
	}
	if calls[len(calls)-1] != "" {
		t.Fatalf("last load=%q want unfiltered", calls[len(calls)-1])
	}
}

func TestModel_LoadError(t *testing.T) {
	m := New(func(string) ([]*db.Event, error) { return nil, errors.New("disk on fire") })
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = send(t, m, m.Init()())
	if !strings.Contains(m.View(), "disk on fire") {
		t.Fatalf("error not rendered:\n%s", m.View())
	}
}

func TestModel_Quit(t *testing.T) {
	var calls []string
	m := loaded(t, &calls)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q must return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q must quit")
	}
}

func TestModel_VisibleRangeFollowsCursor(t *testing.T) {
	events := make([]*db.Event, 50)
	for i := range events {
		events[i] = &db.Event{ID: string(rune('a' + i%26)), EventType: eventlog.EventAllowed}
	}
	m := Model{events: events, height: 16, ready: true, cursor: 40}
	start, end := m.visibleRange()
	if m.cursor < start || m.cursor >= end {
		t.Fatalf("cursor %d outside visible range [%d,%d)", m.cursor, start, end)
	}
	if end-start != 10 {
		t.Fatalf("visible rows=%d want 10", end-start)
	}
}

func TestEventColor(t *testing.T) {
	if EventColor(eventlog.EventBlocked) != colorRed || EventColor(eventlog.EventWarned) != colorYellow {
		t.Fatal("unexpected event colors")
	}
	if EventColor("OTHER") != colorText {
		t.Fatal("unknown event types use the text color")
	}
}

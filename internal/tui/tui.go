// Package tui implements the Bubble Tea history browser for safehook.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/safehook/internal/db"
	"github.com/Dicklesworthstone/safehook/internal/eventlog"
)

// Catppuccin Mocha
var (
	colorMauve   = lipgloss.Color("#cba6f7")
	colorBlue    = lipgloss.Color("#89b4fa")
	colorGreen   = lipgloss.Color("#a6e3a1")
	colorYellow  = lipgloss.Color("#f9e2af")
	colorRed     = lipgloss.Color("#f38ba8")
	colorPeach   = lipgloss.Color("#fab387")
	colorText    = lipgloss.Color("#cdd6f4")
	colorOverlay = lipgloss.Color("#6c7086")
	colorSurface = lipgloss.Color("#313244")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorMauve)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorOverlay)
	selectedStyle = lipgloss.NewStyle().Background(colorSurface).Foreground(colorText)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBlue).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// filters are cycled with "f"; the empty filter shows every event type.
var filters = []string{"", eventlog.EventBlocked, eventlog.EventWarned, eventlog.EventAllowed, eventlog.EventError}

// Loader fetches events of eventType, or of every type when it is empty.
type Loader func(eventType string) ([]*db.Event, error)

type eventsMsg struct {
	events []*db.Event
	err    error
}

// Model is the history browser.
type Model struct {
	load   Loader
	events []*db.Event
	err    error

	filter int
	cursor int
	detail bool

	ready  bool
	width  int
	height int
}

// New creates a browser reading events through load.
func New(load Loader) Model {
	return Model{load: load}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.reload()
}

func (m Model) reload() tea.Cmd {
	load := m.load
	eventType := filters[m.filter]
	return func() tea.Msg {
		if load == nil {
			return eventsMsg{}
		}
		events, err := load(eventType)
		return eventsMsg{events: events, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
	case eventsMsg:
		m.events = msg.events
		m.err = msg.err
		if m.cursor >= len(m.events) {
			m.cursor = max(len(m.events)-1, 0)
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.events)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.events)-1, 0)
		case "enter":
			m.detail = !m.detail && len(m.events) > 0
		case "esc":
			m.detail = false
		case "f":
			m.filter = (m.filter + 1) % len(filters)
			m.cursor = 0
			m.detail = false
			return m, m.reload()
		case "r":
			return m, m.reload()
		}
	}
	return m, nil
}

// Selected returns the event under the cursor, or nil.
func (m Model) Selected() *db.Event {
	if m.cursor < 0 || m.cursor >= len(m.events) {
		return nil
	}
	return m.events[m.cursor]
}

// Filter returns the active event type filter; "" means all.
func (m Model) Filter() string {
	return filters[m.filter]
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	filter := m.Filter()
	if filter == "" {
		filter = "ALL"
	}
	b.WriteString(titleStyle.Render("safehook history"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  filter: %s  events: %d", filter, len(m.events))))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if len(m.events) == 0 {
		b.WriteString(mutedStyle.Render("No events recorded."))
		b.WriteString("\n")
	}

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	if m.detail {
		if e := m.Selected(); e != nil {
			b.WriteString("\n")
			b.WriteString(renderDetail(e, m.width))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("↑/↓ move  enter details  f filter  r reload  q quit"))
	return b.String()
}

// visibleRange keeps the cursor on screen when the list is taller than the window.
func (m Model) visibleRange() (int, int) {
	rows := m.height - 6
	if m.detail {
		rows -= 8
	}
	if rows < 3 {
		rows = 3
	}
	if len(m.events) <= rows {
		return 0, len(m.events)
	}
	start := m.cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > len(m.events) {
		start = len(m.events) - rows
	}
	return start, start + rows
}

func (m Model) renderRow(i int) string {
	e := m.events[i]
	badge := lipgloss.NewStyle().Foreground(EventColor(e.EventType)).Width(8).Render(e.EventType)
	line := fmt.Sprintf("%s  %s  %s", e.OccurredAt.Local().Format(time.DateTime), badge, e.Command)
	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width - 2).Render(line)
	}
	if i == m.cursor {
		return selectedStyle.Render("> " + line)
	}
	return "  " + line
}

func renderDetail(e *db.Event, width int) string {
	body := strings.Join([]string{
		"ID:      " + e.ID,
		"Time:    " + e.OccurredAt.Local().Format(time.RFC3339),
		"Event:   " + e.EventType,
		"Command: " + e.Command,
		"Action:  " + e.Action,
	}, "\n")
	style := panelStyle
	if width > 4 {
		style = style.Width(width - 4)
	}
	return style.Render(body)
}

// EventColor returns the color used for an event type.
func EventColor(eventType string) lipgloss.Color {
	switch eventType {
	case eventlog.EventBlocked:
		return colorRed
	case eventlog.EventWarned:
		return colorYellow
	case eventlog.EventAllowed:
		return colorGreen
	case eventlog.EventError:
		return colorPeach
	default:
		return colorText
	}
}

// Run starts the browser.
func Run(load Loader) error {
	p := tea.NewProgram(New(load), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

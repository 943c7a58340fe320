package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Severity of a diagnostic block.
type Severity string

const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Catppuccin Mocha, as in the quick reference card.
var (
	colorRed     = lipgloss.Color("#f38ba8")
	colorYellow  = lipgloss.Color("#f9e2af")
	colorPeach   = lipgloss.Color("#fab387")
	colorOverlay = lipgloss.Color("#6c7086")
)

func borderColor(s Severity) lipgloss.Color {
	switch s {
	case SeverityBlock:
		return colorRed
	case SeverityWarn:
		return colorYellow
	case SeverityError:
		return colorPeach
	default:
		return colorOverlay
	}
}

// Diagnostic writes a hook message. Plain mode writes text unchanged; styled
// mode frames it in a rounded box coloured by severity.
type Diagnostic struct {
	out    io.Writer
	styled bool
	width  int
}

// NewDiagnostic returns a diagnostic writer for out.
func NewDiagnostic(out io.Writer, styled bool) *Diagnostic {
	return &Diagnostic{out: out, styled: styled, width: 80}
}

// WithWidth caps the width of styled boxes.
func (d *Diagnostic) WithWidth(width int) *Diagnostic {
	if width > 0 {
		d.width = width
	}
	return d
}

// Render returns the diagnostic text for message.
func (d *Diagnostic) Render(sev Severity, message string) string {
	message = strings.TrimRight(message, "\n")
	if message == "" {
		return ""
	}
	if !d.styled {
		return message + "\n"
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor(sev)).
		Padding(0, 1)
	// Width covers content and padding; the border adds two columns.
	if d.width > 6 && lipgloss.Width(message)+4 > d.width {
		box = box.Width(d.width - 2)
	}
	return box.Render(message) + "\n"
}

// Write renders message to the underlying writer. Empty messages are skipped.
func (d *Diagnostic) Write(sev Severity, message string) error {
	text := d.Render(sev, message)
	if text == "" {
		return nil
	}
	_, err := fmt.Fprint(d.out, text)
	return err
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, falling back to $COLUMNS and then 80.
func TerminalWidth(f *os.File) int {
	if f != nil {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

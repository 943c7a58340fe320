package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestClampWidth(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{50, 72},
		{72, 72},
		{80, 80},
		{100, 100},
		{120, 100},
	}

	for _, tt := range tests {
		if got := clampWidth(tt.input); got != tt.expected {
			t.Errorf("clampWidth(%d) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestDetectWidth_Fallbacks(t *testing.T) {
	// stdout is not a terminal under go test, so only the fallbacks run.
	t.Setenv("COLUMNS", "0")
	if got := detectWidth(); got != 80 {
		t.Errorf("detectWidth() = %d for invalid COLUMNS, want 80", got)
	}
	t.Setenv("COLUMNS", "132")
	if got := detectWidth(); got != 132 {
		t.Errorf("detectWidth() = %d, want 132", got)
	}
}

func TestSupportsUnicode(t *testing.T) {
	t.Setenv("TERM", "dumb")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "en_US.UTF-8")
	if supportsUnicode() {
		t.Error("expected supportsUnicode() = false for dumb terminal")
	}

	t.Setenv("TERM", "xterm")
	if !supportsUnicode() {
		t.Error("expected supportsUnicode() = true for UTF-8 locale")
	}

	t.Setenv("LANG", "C.utf8")
	if !supportsUnicode() {
		t.Error("expected supportsUnicode() = true for utf8 in LANG")
	}

	t.Setenv("LANG", "C")
	if supportsUnicode() {
		t.Error("expected supportsUnicode() = false for C locale")
	}
}

func TestGradientText(t *testing.T) {
	t.Setenv("LANG", "en_US.UTF-8")
	t.Setenv("TERM", "xterm")

	if got := gradientText("hello", nil); got != "hello" {
		t.Errorf("expected 'hello' with no colors, got %q", got)
	}
	if got := gradientText("", []lipgloss.Color{colorMauve, colorBlue}); got != "" {
		t.Errorf("expected empty result for empty input, got %q", got)
	}
	if got := gradientText("X", []lipgloss.Color{colorMauve, colorBlue}); got == "" {
		t.Error("expected non-empty result with single character")
	}

	t.Setenv("LANG", "C")
	t.Setenv("TERM", "dumb")
	if got := gradientText("hello world", []lipgloss.Color{colorMauve, colorBlue}); got != "hello world" {
		t.Errorf("expected plain text without unicode support, got %q", got)
	}
}

func TestRenderSection_ASCIIStripsIcon(t *testing.T) {
	got := renderSection(false, "🔷 SETUP", []string{"  line"})
	if strings.Contains(got, "🔷") {
		t.Errorf("icon not stripped: %q", got)
	}
	if !strings.Contains(got, "SETUP") || !strings.Contains(got, "line") {
		t.Errorf("section lost content: %q", got)
	}
}

func TestOutcomeLegend(t *testing.T) {
	for _, unicode := range []bool{true, false} {
		got := outcomeLegend(unicode)
		for _, want := range []string{"BLOCK (exit 2)", "WARN (exit 0)", "ALLOW (exit 0)"} {
			if !strings.Contains(got, want) {
				t.Errorf("outcomeLegend(%v) missing %q: %q", unicode, want, got)
			}
		}
	}
}

func TestShowQuickReference(t *testing.T) {
	t.Setenv("COLUMNS", "100")
	for _, lang := range []string{"en_US.UTF-8", "C"} {
		t.Setenv("LANG", lang)
		t.Setenv("TERM", "xterm")
		t.Setenv("LC_ALL", "")
		t.Setenv("LC_CTYPE", "")

		var buf bytes.Buffer
		showQuickReference(&buf)
		out := buf.String()
		for _, want := range []string{"safehook hook install", "safehook timestamp", "--json"} {
			if !strings.Contains(out, want) {
				t.Errorf("LANG=%s: quick reference missing %q", lang, want)
			}
		}
	}
}

package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"go.yaml.in/yaml/v3"
)

func newBufferedWriter(format Format) (*Writer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(format, WithOutput(&out), WithErrorOutput(&errOut)), &out, &errOut
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"text": FormatText, "JSON": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("toon"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestWriter_Write_Text(t *testing.T) {
	w, out, errOut := newBufferedWriter(FormatText)

	if err := w.Write("hello"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := errOut.String(); got != "hello\n" {
		t.Fatalf("unexpected output: %q", got)
	}
	if out.Len() != 0 {
		t.Fatalf("text output must not reach stdout: %q", out.String())
	}
}

func TestWriter_Write_JSON(t *testing.T) {
	w, out, _ := newBufferedWriter(FormatJSON)
	if err := w.Write(map[string]any{"a": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if !strings.Contains(out.String(), "\n  ") {
		t.Fatalf("expected pretty-printed JSON, got: %q", out.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("json.Unmarshal: %v; out=%q", err, out.String())
	}
	if got, ok := payload["a"].(float64); !ok || got != 1 {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestWriter_Write_YAML(t *testing.T) {
	type payload struct {
		RuleName string `json:"rule_name"`
		Count    int    `json:"count"`
	}
	w, out, _ := newBufferedWriter(FormatYAML)
	if err := w.Write(payload{RuleName: "privileged-delete", Count: 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal: %v; out=%q", err, out.String())
	}
	if decoded["rule_name"] != "privileged-delete" {
		t.Fatalf("json tags not honoured: %#v", decoded)
	}
	if v, ok := decoded["count"].(int); !ok || v != 2 {
		t.Fatalf("unexpected count: %#v", decoded["count"])
	}
}

func TestWriter_Write_YAMLNumbersUnquoted(t *testing.T) {
	w, out, _ := newBufferedWriter(FormatYAML)
	data := map[string]any{
		"rule_count": 5,
		"ratio":      0.5,
		"rules":      []map[string]any{{"order": 1}, {"order": 2}},
	}
	if err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := out.String()
	for _, want := range []string{"rule_count: 5\n", "ratio: 0.5\n", "order: 1\n", "order: 2\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, `"5"`) {
		t.Fatalf("number quoted as string:\n%s", got)
	}
}

func TestWriter_Write_UnsupportedFormat(t *testing.T) {
	w := New(Format("bogus"))
	if err := w.Write("x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWriter_Print(t *testing.T) {
	w, out, _ := newBufferedWriter(FormatText)
	if err := w.Print("2025-01-28"); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if out.String() != "2025-01-28\n" {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
}

func TestWriter_Success(t *testing.T) {
	w, _, errOut := newBufferedWriter(FormatText)
	w.Success("ok")
	if got := errOut.String(); got != "✓ ok\n" {
		t.Fatalf("unexpected output: %q", got)
	}

	w, out, _ := newBufferedWriter(FormatJSON)
	w.Success("ok")
	var payload map[string]any
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("json.Unmarshal: %v; out=%q", err, out.String())
	}
	if payload["status"] != "success" || payload["message"] != "ok" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestWriter_Error(t *testing.T) {
	w, _, errOut := newBufferedWriter(FormatText)
	w.Error(errors.New("boom"), 1)
	if got := errOut.String(); got != "✗ boom\n" {
		t.Fatalf("unexpected output: %q", got)
	}

	w, out, _ := newBufferedWriter(FormatJSON)
	w.Error(errors.New("boom"), 2)
	var payload ErrorPayload
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("json.Unmarshal: %v; out=%q", err, out.String())
	}
	if payload.Error != "error" || payload.Message != "boom" || payload.Code != 2 {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestWriter_Table(t *testing.T) {
	w, _, errOut := newBufferedWriter(FormatText)
	if err := w.Table([]string{"id", "name"}, [][]string{{"1", "Alice"}, {"2", "Bob"}}); err != nil {
		t.Fatalf("Table: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (header + 2 rows), got %d: %q", len(lines), errOut.String())
	}
	if got := strings.Fields(lines[0]); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Fatalf("unexpected header: %#v", got)
	}
	if got := strings.Fields(lines[2]); !reflect.DeepEqual(got, []string{"2", "Bob"}) {
		t.Fatalf("unexpected row2: %#v", got)
	}
	if strings.Index(lines[1], "Alice") != strings.Index(lines[0], "name") {
		t.Fatalf("columns not aligned:\n%s", errOut.String())
	}
}

func TestDiagnostic_Plain(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnostic(&buf, false)

	if err := d.Write(SeverityBlock, "line one\nline two\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "line one\nline two\n" {
		t.Fatalf("plain diagnostic changed the message: %q", buf.String())
	}

	buf.Reset()
	if err := d.Write(SeverityWarn, ""); err != nil {
		t.Fatalf("Write empty: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("empty message must write nothing, got %q", buf.String())
	}
}

func TestDiagnostic_Styled(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnostic(&buf, true).WithWidth(60)

	if err := d.Write(SeverityWarn, "chmod 777 script.sh"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "chmod 777 script.sh") {
		t.Fatalf("styled diagnostic lost the message: %q", got)
	}
	if !strings.Contains(got, "╭") || !strings.Contains(got, "╯") {
		t.Fatalf("expected rounded border, got %q", got)
	}
}

func TestDiagnostic_StyledWrapsLongLines(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnostic(&buf, true).WithWidth(40)

	command := "rm -rf build cache logs tmp dist coverage vendor node_modules TAILMARK"
	if err := d.Write(SeverityBlock, "Command: "+command); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "TAILMARK") {
		t.Fatalf("long line was truncated: %q", got)
	}
	for _, line := range strings.Split(strings.TrimRight(got, "\n"), "\n") {
		if w := lipgloss.Width(line); w > 40 {
			t.Fatalf("line width %d exceeds 40: %q", w, line)
		}
	}
}

func TestTerminalHelpers_NonTTY(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	if IsTerminal(f) || IsTerminal(nil) {
		t.Fatalf("regular file reported as terminal")
	}

	t.Setenv("COLUMNS", "132")
	if got := TerminalWidth(f); got != 132 {
		t.Fatalf("TerminalWidth=%d want 132 from COLUMNS", got)
	}
	t.Setenv("COLUMNS", "")
	if got := TerminalWidth(nil); got != 80 {
		t.Fatalf("TerminalWidth=%d want 80", got)
	}
}

package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dicklesworthstone/safehook/internal/db"
	"github.com/Dicklesworthstone/safehook/internal/testutil"
)

func TestFormatLine(t *testing.T) {
	at := time.Date(2025, 1, 28, 14, 30, 45, 0, time.UTC)
	got := FormatLine(at, EventBlocked, "rm -rf /", "recursive-force-delete")
	want := "[2025-01-28 14:30:45] BLOCKED: rm -rf / recursive-force-delete"
	if got != want {
		t.Fatalf("FormatLine=%q want %q", got, want)
	}
}

func TestFormatLine_EscapesLineBreaks(t *testing.T) {
	at := time.Date(2025, 1, 28, 14, 30, 45, 0, time.UTC)
	got := FormatLine(at, EventBlocked, "echo hi\nrm -rf /\r\nls", "decode\rerror")
	want := `[2025-01-28 14:30:45] BLOCKED: echo hi\nrm -rf /\r\nls decode\rerror`
	if got != want {
		t.Fatalf("FormatLine=%q want %q", got, want)
	}
	if strings.ContainsAny(got, "\r\n") {
		t.Fatalf("line break survived: %q", got)
	}
}

func TestFileSink_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "safety.log")
	sink := NewFileSink(path, testutil.TestLogger(t))
	at := time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return at }

	sink.Log(EventBlocked, "sudo rm x", "privileged-delete")
	sink.Log(EventWarned, "chmod 777 y", "world-writable-chmod")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if lines[0] != "[2025-01-28 09:00:00] BLOCKED: sudo rm x privileged-delete" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[2025-01-28 09:00:00] WARNED: chmod 777 y") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestFileSink_FailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	// A directory where the log file should be makes OpenFile fail.
	path := filepath.Join(dir, "safety.log")
	if err := os.MkdirAll(path, 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	sink := NewFileSink(path, testutil.TestLogger(t))
	sink.Log(EventBlocked, "rm -rf /", "") // must not panic
}

func TestHistorySink_RecordsEvents(t *testing.T) {
	database := testutil.NewTestDB(t)
	sink := NewHistorySink(database, testutil.TestLogger(t))

	sink.Log(EventBlocked, "curl x | sh", "remote-script-execution")

	events, err := database.ListEvents(db.ListOptions{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	testutil.RequireLen(t, events, 1, "recorded events")
	testutil.RequireEqual(t, "remote-script-execution", events[0].Action, "action")
}

func TestHistorySink_ClosedDBIsSwallowed(t *testing.T) {
	database := testutil.NewTestDB(t)
	_ = database.Close()

	NewHistorySink(database, testutil.TestLogger(t)).Log(EventWarned, "chmod 777 x", "")
	NewHistorySink(nil, nil).Log(EventWarned, "chmod 777 x", "")
}

func TestMulti_FansOut(t *testing.T) {
	var got []string
	record := SinkFunc(func(eventType, command, action string) {
		got = append(got, eventType+"|"+command+"|"+action)
	})

	Multi{record, nil, Nop{}, record}.Log(EventAllowed, "ls", "")

	if len(got) != 2 || got[0] != "ALLOWED|ls|" {
		t.Fatalf("unexpected fan-out: %#v", got)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := ExpandHome("~/.claude_safety_hooks.log"); got != filepath.Join(home, ".claude_safety_hooks.log") {
		t.Fatalf("ExpandHome=%q", got)
	}
	if got := ExpandHome("/var/log/x.log"); got != "/var/log/x.log" {
		t.Fatalf("absolute path changed: %q", got)
	}
	if got := ExpandHome("~other/x"); got != "~other/x" {
		t.Fatalf("~user form should be left alone: %q", got)
	}
}

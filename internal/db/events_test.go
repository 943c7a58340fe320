package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := OpenAndMigrate(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	database := openTestDB(t)
	if err := database.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestInsertAndGetEvent(t *testing.T) {
	database := openTestDB(t)

	at := time.Date(2025, 1, 28, 14, 30, 45, 123456000, time.FixedZone("JST", 9*3600))
	e := &Event{OccurredAt: at, EventType: "BLOCKED", Command: "rm -rf /", Action: "recursive-force-delete"}
	if err := database.InsertEvent(e); err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}
	if e.ID == "" {
		t.Fatalf("expected generated ID")
	}

	got, err := database.GetEvent(e.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if !got.OccurredAt.Equal(at) {
		t.Fatalf("occurred_at=%v want %v", got.OccurredAt, at)
	}
	if got.EventType != "BLOCKED" || got.Command != "rm -rf /" || got.Action != "recursive-force-delete" {
		t.Fatalf("unexpected event: %+v", got)
	}

	if _, err := database.GetEvent("missing"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestInsertEvent_RequiresType(t *testing.T) {
	database := openTestDB(t)
	if err := database.InsertEvent(&Event{Command: "ls"}); err == nil {
		t.Fatalf("expected error for missing event_type")
	}
}

func TestListEvents_FiltersAndOrder(t *testing.T) {
	database := openTestDB(t)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	fixtures := []*Event{
		{OccurredAt: base, EventType: "BLOCKED", Command: "rm -rf a"},
		{OccurredAt: base.Add(time.Hour), EventType: "WARNED", Command: "chmod 777 b"},
		{OccurredAt: base.Add(2 * time.Hour), EventType: "BLOCKED", Command: "sudo rm c"},
		{OccurredAt: base.Add(3 * time.Hour), EventType: "ALLOWED", Command: "ls"},
	}
	for _, e := range fixtures {
		if err := database.InsertEvent(e); err != nil {
			t.Fatalf("InsertEvent: %v", err)
		}
	}

	all, err := database.ListEvents(ListOptions{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(all) != 4 || all[0].Command != "ls" || all[3].Command != "rm -rf a" {
		t.Fatalf("expected newest first, got %d events starting %q", len(all), all[0].Command)
	}

	blocked, err := database.ListEvents(ListOptions{EventType: "BLOCKED"})
	if err != nil {
		t.Fatalf("ListEvents blocked: %v", err)
	}
	if len(blocked) != 2 || blocked[0].Command != "sudo rm c" {
		t.Fatalf("unexpected blocked events: %+v", blocked)
	}

	recent, err := database.ListEvents(ListOptions{Since: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("ListEvents since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("since filter returned %d events, want 2", len(recent))
	}

	limited, err := database.ListEvents(ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("ListEvents limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit returned %d events", len(limited))
	}

	n, err := database.CountEvents("BLOCKED")
	if err != nil || n != 2 {
		t.Fatalf("CountEvents(BLOCKED)=%d, %v", n, err)
	}
	n, err = database.CountEvents("")
	if err != nil || n != 4 {
		t.Fatalf("CountEvents()=%d, %v", n, err)
	}
}

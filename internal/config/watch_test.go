package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dicklesworthstone/safehook/internal/testutil"
)

func TestWatcher_DebouncedChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	other := filepath.Join(dir, "unrelated.txt")

	w, err := NewWatcher([]string{path, filepath.Join(t.TempDir(), "missing", "config.toml"), ""}, testutil.TestLogger(t))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changes <- struct{}{} })
	}()

	if err := os.WriteFile(other, []byte("x"), 0644); err != nil {
		t.Fatalf("write unrelated: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := WriteValue(path, "timestamp.zone_label", "UTC"); err != nil {
			t.Fatalf("WriteValue: %v", err)
		}
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatalf("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestWatcher_StopsWithoutEvents(t *testing.T) {
	w, err := NewWatcher(nil, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx, func() { t.Fatalf("unexpected change") }); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

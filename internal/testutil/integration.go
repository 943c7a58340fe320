package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Harness is a lightweight integration test environment.
//
// It points HOME at a temp directory (so user config, the line log and
// ~/.claude/settings.json never touch the real home) and provisions a temp
// project directory with a `.safehook/` config dir.
type Harness struct {
	T          *testing.T
	HomeDir    string
	ProjectDir string
	ConfigDir  string
	LogPath    string
	DBPath     string
}

// NewHarness creates the environment. It calls t.Setenv, so tests using it
// must not run in parallel.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	projectDir := t.TempDir()
	configDir := filepath.Join(projectDir, ".safehook")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("NewHarness: mkdir .safehook: %v", err)
	}

	return &Harness{
		T:          t,
		HomeDir:    home,
		ProjectDir: projectDir,
		ConfigDir:  configDir,
		LogPath:    filepath.Join(home, ".claude_safety_hooks.log"),
		DBPath:     filepath.Join(configDir, "history.db"),
	}
}

// MustPath joins ProjectDir with parts.
func (h *Harness) MustPath(parts ...string) string {
	h.T.Helper()
	if h == nil || h.ProjectDir == "" {
		h.T.Fatalf("Harness.MustPath: harness not initialized")
	}
	all := append([]string{h.ProjectDir}, parts...)
	return filepath.Join(all...)
}

// WriteFile writes a file relative to the project directory.
func (h *Harness) WriteFile(rel string, data []byte, perm os.FileMode) string {
	h.T.Helper()
	if strings.TrimSpace(rel) == "" {
		h.T.Fatalf("Harness.WriteFile: rel path is required")
	}
	abs := h.MustPath(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0750); err != nil {
		h.T.Fatalf("Harness.WriteFile: mkdir: %v", err)
	}
	if err := os.WriteFile(abs, data, perm); err != nil {
		h.T.Fatalf("Harness.WriteFile: write: %v", err)
	}
	return abs
}

// WriteConfig writes the project config file.
func (h *Harness) WriteConfig(toml string) string {
	h.T.Helper()
	return h.WriteFile(filepath.Join(".safehook", "config.toml"), []byte(toml), 0644)
}

// ReadLog returns the line log contents, or "" when it does not exist.
func (h *Harness) ReadLog() string {
	h.T.Helper()
	data, err := os.ReadFile(h.LogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		h.T.Fatalf("Harness.ReadLog: %v", err)
	}
	return string(data)
}

func (h *Harness) String() string {
	if h == nil {
		return "Harness<nil>"
	}
	return fmt.Sprintf("Harness(home=%s, project=%s)", h.HomeDir, h.ProjectDir)
}

package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
)

// BinaryName is the executable name recognised in settings.json entries.
const BinaryName = "safehook"

// SettingsPath returns the Claude Code settings file for the project, or the
// user-level file when global is set.
func SettingsPath(global bool, homeDir, projectDir string) string {
	if global {
		return filepath.Join(homeDir, ".claude", "settings.json")
	}
	return filepath.Join(projectDir, ".claude", "settings.json")
}

// HookCommand returns the settings.json command that runs the hook via binary.
func HookCommand(binary string) string {
	if strings.ContainsAny(binary, " \t'\"") {
		binary = "'" + strings.ReplaceAll(binary, "'", `'\''`) + "'"
	}
	return binary + " hook run"
}

// IsOwnCommand reports whether a settings.json command invokes this hook.
func IsOwnCommand(command string) bool {
	args, err := shellwords.Parse(command)
	if err != nil || len(args) < 3 {
		return false
	}
	name := strings.TrimSuffix(filepath.Base(args[0]), ".exe")
	return name == BinaryName && args[1] == "hook" && args[2] == "run"
}

// Settings is a Claude Code settings.json document. Unknown keys are kept.
type Settings struct {
	path string
	doc  map[string]any
}

// LoadSettings reads path. A missing file yields empty settings.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{path: path, doc: map[string]any{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if s.doc == nil {
		s.doc = map[string]any{}
	}
	return s, nil
}

// Path returns the settings file path.
func (s *Settings) Path() string {
	return s.path
}

// Save writes the settings back, creating the parent directory.
func (s *Settings) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

func (s *Settings) preToolUse() []any {
	hooks, _ := s.doc["hooks"].(map[string]any)
	if hooks == nil {
		return nil
	}
	entries, _ := hooks["PreToolUse"].([]any)
	return entries
}

func (s *Settings) setPreToolUse(entries []any) {
	hooks, _ := s.doc["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
	}
	if len(entries) == 0 {
		delete(hooks, "PreToolUse")
	} else {
		hooks["PreToolUse"] = entries
	}
	s.doc["hooks"] = hooks
}

// InstalledCommand returns the configured command of this hook, if any.
func (s *Settings) InstalledCommand() (string, bool) {
	for _, entry := range s.preToolUse() {
		for _, hk := range bashHooks(entry) {
			if cmd, _ := hk["command"].(string); IsOwnCommand(cmd) {
				return cmd, true
			}
		}
	}
	return "", false
}

// Install registers command as a Bash PreToolUse hook. An existing entry is
// left alone unless force is set, in which case its command is replaced.
// Install reports whether an entry already existed.
func (s *Settings) Install(command string, force bool) bool {
	entries := s.preToolUse()
	found := false
	for _, entry := range entries {
		for _, hk := range bashHooks(entry) {
			if cmd, _ := hk["command"].(string); IsOwnCommand(cmd) {
				found = true
				if force {
					hk["command"] = command
				}
			}
		}
	}
	if !found {
		entries = append(entries, map[string]any{
			"matcher": BashTool,
			"hooks": []any{
				map[string]any{"type": "command", "command": command},
			},
		})
	}
	s.setPreToolUse(entries)
	return found
}

// Uninstall removes every entry of this hook. Matchers left without hooks are
// dropped; other hooks are preserved. It reports whether anything was removed.
func (s *Settings) Uninstall() bool {
	removed := false
	var kept []any
	for _, entry := range s.preToolUse() {
		m, ok := entry.(map[string]any)
		list, _ := m["hooks"].([]any)
		if !ok || list == nil {
			kept = append(kept, entry)
			continue
		}
		var rest []any
		for _, hk := range list {
			if hm, ok := hk.(map[string]any); ok {
				if cmd, _ := hm["command"].(string); IsOwnCommand(cmd) {
					removed = true
					continue
				}
			}
			rest = append(rest, hk)
		}
		if len(rest) == 0 && len(list) > 0 {
			continue
		}
		if len(rest) != len(list) {
			m["hooks"] = rest
		}
		kept = append(kept, m)
	}
	if removed {
		s.setPreToolUse(kept)
	}
	return removed
}

// bashHooks returns the hook objects of a PreToolUse entry matching Bash.
func bashHooks(entry any) []map[string]any {
	m, ok := entry.(map[string]any)
	if !ok {
		return nil
	}
	if matcher, _ := m["matcher"].(string); matcher != BashTool {
		return nil
	}
	list, _ := m["hooks"].([]any)
	out := make([]map[string]any, 0, len(list))
	for _, hk := range list {
		if hm, ok := hk.(map[string]any); ok {
			out = append(out, hm)
		}
	}
	return out
}

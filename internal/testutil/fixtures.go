package testutil

import (
	"encoding/json"
	"strings"
	"testing"
)

// BashEnvelope returns a Claude Code PreToolUse request for a Bash command.
func BashEnvelope(t *testing.T, command string) *strings.Reader {
	t.Helper()
	return marshalEnvelope(t, map[string]any{
		"session_id":      "test-session",
		"hook_event_name": "PreToolUse",
		"tool_name":       "Bash",
		"tool_input": map[string]any{
			"command":     command,
			"description": "test command",
		},
	})
}

// LegacyEnvelope returns a request in the older {"params": {"command": ...}} shape.
func LegacyEnvelope(t *testing.T, command string) *strings.Reader {
	t.Helper()
	return marshalEnvelope(t, map[string]any{
		"params": map[string]any{"command": command},
	})
}

// ToolEnvelope returns a PreToolUse request for a non-Bash tool.
func ToolEnvelope(t *testing.T, tool string, input map[string]any) *strings.Reader {
	t.Helper()
	return marshalEnvelope(t, map[string]any{
		"hook_event_name": "PreToolUse",
		"tool_name":       tool,
		"tool_input":      input,
	})
}

func marshalEnvelope(t *testing.T, v map[string]any) *strings.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	RequireNoError(t, err, "marshal envelope")
	return strings.NewReader(string(data))
}

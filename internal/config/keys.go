package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type valueKind int

const (
	kindString valueKind = iota
	kindBool
)

// keyKinds lists every settable key.
var keyKinds = map[string]valueKind{
	"general.log_level": kindString,

	"hook.fail_open":       kindBool,
	"hook.log_path":        kindString,
	"hook.log_allowed":     kindBool,
	"hook.history_enabled": kindBool,
	"hook.history_db":      kindString,
	"hook.styled":          kindBool,

	"timestamp.timezone":   kindString,
	"timestamp.zone_label": kindString,
	"timestamp.prefix":     kindString,

	"mcp.name":         kindString,
	"mcp.watch_config": kindBool,
}

// Keys returns every settable key, sorted by section then name.
func Keys() []string {
	sections := []string{"general", "hook", "timestamp", "mcp"}
	var out []string
	for _, section := range sections {
		var keys []string
		for key := range keyKinds {
			if strings.HasPrefix(key, section+".") {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		out = append(out, keys...)
	}
	return out
}

// ParseValue converts a command-line string into the type key expects.
func ParseValue(key, raw string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", key)
	}
	return parseValueByKind(raw, kind)
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindString:
		return raw, nil
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q: %w", raw, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %d", kind)
	}
}

// GetValue returns the value of a key, or of a whole section.
func GetValue(cfg Config, key string) (any, bool) {
	section, field, hasField := strings.Cut(key, ".")
	switch section {
	case "general":
		if !hasField {
			return cfg.General, true
		}
		switch field {
		case "log_level":
			return cfg.General.LogLevel, true
		}
	case "hook":
		if !hasField {
			return cfg.Hook, true
		}
		switch field {
		case "fail_open":
			return cfg.Hook.FailOpen, true
		case "log_path":
			return cfg.Hook.LogPath, true
		case "log_allowed":
			return cfg.Hook.LogAllowed, true
		case "history_enabled":
			return cfg.Hook.HistoryEnabled, true
		case "history_db":
			return cfg.Hook.HistoryDB, true
		case "styled":
			return cfg.Hook.Styled, true
		}
	case "timestamp":
		if !hasField {
			return cfg.Timestamp, true
		}
		switch field {
		case "timezone":
			return cfg.Timestamp.Timezone, true
		case "zone_label":
			return cfg.Timestamp.ZoneLabel, true
		case "prefix":
			return cfg.Timestamp.Prefix, true
		}
	case "mcp":
		if !hasField {
			return cfg.MCP, true
		}
		switch field {
		case "name":
			return cfg.MCP.Name, true
		case "watch_config":
			return cfg.MCP.WatchConfig, true
		}
	}
	return nil, false
}

// WriteValue sets one dotted key in the TOML file at path, keeping the rest of
// the file's settings. The file and its directory are created if needed.
func WriteValue(path, key string, value any) error {
	if path == "" {
		return errors.New("config path is required")
	}
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid key %q", key)
		}
	}

	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}

	table := doc
	for _, p := range parts[:len(parts)-1] {
		next, exists := table[p]
		if !exists {
			child := map[string]any{}
			table[p] = child
			table = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%s in %s is not a table", p, path)
		}
		table = child
	}
	table[parts[len(parts)-1]] = value

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

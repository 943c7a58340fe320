// Package config loads safehook settings from defaults, TOML files, .env,
// environment variables and flag overrides, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DirName is the per-user and per-project configuration directory.
	DirName = ".safehook"
	// FileName is the configuration file inside DirName.
	FileName = "config.toml"
	// EnvPrefix prefixes environment overrides, e.g. SAFEHOOK_HOOK_FAIL_OPEN.
	EnvPrefix = "SAFEHOOK"
	// EnvFileName is the dotenv file read from the project directory.
	EnvFileName = ".env"
)

// Config is the full configuration.
type Config struct {
	General   GeneralConfig   `toml:"general" mapstructure:"general" json:"general"`
	Hook      HookConfig      `toml:"hook" mapstructure:"hook" json:"hook"`
	Timestamp TimestampConfig `toml:"timestamp" mapstructure:"timestamp" json:"timestamp"`
	MCP       MCPConfig       `toml:"mcp" mapstructure:"mcp" json:"mcp"`
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	LogLevel string `toml:"log_level" mapstructure:"log_level" json:"log_level"`
}

// HookConfig controls the PreToolUse hook.
type HookConfig struct {
	FailOpen       bool   `toml:"fail_open" mapstructure:"fail_open" json:"fail_open"`
	LogPath        string `toml:"log_path" mapstructure:"log_path" json:"log_path"`
	LogAllowed     bool   `toml:"log_allowed" mapstructure:"log_allowed" json:"log_allowed"`
	HistoryEnabled bool   `toml:"history_enabled" mapstructure:"history_enabled" json:"history_enabled"`
	HistoryDB      string `toml:"history_db" mapstructure:"history_db" json:"history_db"`
	Styled         bool   `toml:"styled" mapstructure:"styled" json:"styled"`
}

// TimestampConfig controls the timestamp formatter.
type TimestampConfig struct {
	Timezone  string `toml:"timezone" mapstructure:"timezone" json:"timezone"`
	ZoneLabel string `toml:"zone_label" mapstructure:"zone_label" json:"zone_label"`
	Prefix    string `toml:"prefix" mapstructure:"prefix" json:"prefix"`
}

// MCPConfig controls the MCP time server.
type MCPConfig struct {
	Name        string `toml:"name" mapstructure:"name" json:"name"`
	WatchConfig bool   `toml:"watch_config" mapstructure:"watch_config" json:"watch_config"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			LogLevel: "warn",
		},
		Hook: HookConfig{
			FailOpen:       true,
			LogPath:        "~/.claude_safety_hooks.log",
			LogAllowed:     false,
			HistoryEnabled: false,
			HistoryDB:      "~/" + DirName + "/history.db",
			Styled:         true,
		},
		Timestamp: TimestampConfig{
			Timezone:  "Asia/Tokyo",
			ZoneLabel: "JST",
			Prefix:    "Last updated:",
		},
		MCP: MCPConfig{
			Name:        "TimeServer",
			WatchConfig: true,
		},
	}
}

// LoadOptions controls Load.
type LoadOptions struct {
	// ProjectDir locates <project>/.safehook/config.toml and .env.
	// Empty means the working directory.
	ProjectDir string
	// ConfigPath replaces the project config file when set.
	ConfigPath string
	// FlagOverrides take precedence over every other source.
	FlagOverrides map[string]any
	// SkipValidation returns the decoded settings without running Validate.
	// Callers that read one section check it with the section validator.
	SkipValidation bool
}

// Load resolves the configuration and validates it.
func Load(opts LoadOptions) (Config, error) {
	projectDir := opts.ProjectDir
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("getwd: %w", err)
		}
		projectDir = wd
	}

	v := viper.New()
	setDefaults(v)

	userPath, projectPath := ConfigPaths(projectDir, opts.ConfigPath)
	if err := mergeConfigFile(v, userPath); err != nil {
		return Config{}, err
	}
	if err := mergeConfigFile(v, projectPath); err != nil {
		return Config{}, err
	}
	if err := mergeEnvFile(v, filepath.Join(projectDir, EnvFileName)); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if opts.SkipValidation {
		return cfg, nil
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("general.log_level", d.General.LogLevel)

	v.SetDefault("hook.fail_open", d.Hook.FailOpen)
	v.SetDefault("hook.log_path", d.Hook.LogPath)
	v.SetDefault("hook.log_allowed", d.Hook.LogAllowed)
	v.SetDefault("hook.history_enabled", d.Hook.HistoryEnabled)
	v.SetDefault("hook.history_db", d.Hook.HistoryDB)
	v.SetDefault("hook.styled", d.Hook.Styled)

	v.SetDefault("timestamp.timezone", d.Timestamp.Timezone)
	v.SetDefault("timestamp.zone_label", d.Timestamp.ZoneLabel)
	v.SetDefault("timestamp.prefix", d.Timestamp.Prefix)

	v.SetDefault("mcp.name", d.MCP.Name)
	v.SetDefault("mcp.watch_config", d.MCP.WatchConfig)
}

// mergeConfigFile merges a TOML file into v. Empty or missing paths are skipped.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	v.SetConfigType("toml")
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// mergeEnvFile merges SAFEHOOK_* entries of a dotenv file into v. They rank
// above config files and below the real environment.
func mergeEnvFile(v *viper.Viper, path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	settings := map[string]any{}
	for name, value := range vars {
		key, ok := envKey(name)
		if !ok {
			continue
		}
		section, field, _ := strings.Cut(key, ".")
		table, _ := settings[section].(map[string]any)
		if table == nil {
			table = map[string]any{}
			settings[section] = table
		}
		table[field] = value
	}
	if len(settings) == 0 {
		return nil
	}
	return v.MergeConfigMap(settings)
}

// envKey maps SAFEHOOK_HOOK_FAIL_OPEN to hook.fail_open. Section names
// contain no underscores, so the first one separates section and field.
func envKey(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, EnvPrefix+"_")
	if !ok {
		return "", false
	}
	section, field, ok := strings.Cut(strings.ToLower(rest), "_")
	if !ok || section == "" || field == "" {
		return "", false
	}
	key := section + "." + field
	if _, known := keyKinds[key]; !known {
		return "", false
	}
	return key, true
}

// ConfigPaths returns the user and project config file paths. A non-empty
// override replaces the project path.
func ConfigPaths(projectDir, override string) (userPath, projectPath string) {
	if home, err := os.UserHomeDir(); err == nil {
		userPath = filepath.Join(home, DirName, FileName)
	}
	return userPath, projectConfigPath(projectDir, override)
}

func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(projectDir, DirName, FileName)
}

// Validate reports every invalid setting in one error.
func Validate(cfg Config) error {
	var problems []string
	problems = append(problems, generalProblems(cfg.General)...)
	problems = append(problems, hookProblems(cfg.Hook)...)
	problems = append(problems, timestampProblems(cfg.Timestamp)...)
	problems = append(problems, mcpProblems(cfg.MCP)...)
	return validationError(problems)
}

// ValidateHook checks only the [hook] section.
func ValidateHook(cfg Config) error {
	return validationError(hookProblems(cfg.Hook))
}

func validationError(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func generalProblems(c GeneralConfig) []string {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		return nil
	}
	return []string{fmt.Sprintf("general.log_level must be one of debug, info, warn, error (got %q)", c.LogLevel)}
}

func hookProblems(c HookConfig) []string {
	if c.HistoryEnabled && strings.TrimSpace(c.HistoryDB) == "" {
		return []string{"hook.history_db is required when hook.history_enabled is set"}
	}
	return nil
}

func timestampProblems(c TimestampConfig) []string {
	var problems []string
	if _, err := time.LoadLocation(c.Timezone); err != nil || c.Timezone == "" {
		problems = append(problems, fmt.Sprintf("timestamp.timezone %q is not a known time zone", c.Timezone))
	}
	if strings.TrimSpace(c.ZoneLabel) == "" {
		problems = append(problems, "timestamp.zone_label must not be empty")
	}
	return problems
}

func mcpProblems(c MCPConfig) []string {
	if strings.TrimSpace(c.Name) == "" {
		return []string{"mcp.name must not be empty"}
	}
	return nil
}

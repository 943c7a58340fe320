package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/Dicklesworthstone/safehook/internal/config"
	"github.com/Dicklesworthstone/safehook/internal/core"
	"github.com/Dicklesworthstone/safehook/internal/db"
	"github.com/Dicklesworthstone/safehook/internal/eventlog"
	"github.com/Dicklesworthstone/safehook/internal/hook"
	"github.com/Dicklesworthstone/safehook/internal/output"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagHookGlobal bool
	flagHookForce  bool
	flagHookBinary string
)

func init() {
	hookInstallCmd.Flags().BoolVarP(&flagHookGlobal, "global", "g", false, "install into ~/.claude/settings.json for all projects")
	hookInstallCmd.Flags().BoolVarP(&flagHookForce, "force", "f", false, "rewrite an existing safehook entry")
	hookInstallCmd.Flags().StringVar(&flagHookBinary, "binary", "", "path to the safehook binary (default: this executable)")
	hookUninstallCmd.Flags().BoolVarP(&flagHookGlobal, "global", "g", false, "remove from ~/.claude/settings.json")
	hookStatusCmd.Flags().BoolVarP(&flagHookGlobal, "global", "g", false, "inspect ~/.claude/settings.json")

	hookCmd.AddCommand(hookRunCmd)
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)
	hookCmd.AddCommand(hookTestCmd)

	rootCmd.AddCommand(hookCmd)
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run and manage the Claude Code PreToolUse hook",
	Long: `Run and manage the Claude Code PreToolUse hook.

The hook reads the pending tool call as JSON on stdin. Bash commands matching
a block rule exit with code 2 so the agent does not run them; warnings and
allowed commands exit 0.

Quick start:
  safehook hook install    # register in .claude/settings.json
  safehook hook status     # check installation
  safehook hook uninstall  # remove the entry`,
}

var hookRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate one hook request from stdin",
	Long: `Evaluate one hook request read from stdin.

Exit codes:
  0  proceed (allowed or warned)
  2  blocked

When the request cannot be evaluated the command proceeds unless
hook.fail_open is set to false.`,
	Args: cobra.NoArgs,
	RunE: runHookRun,
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the hook in Claude Code settings",
	Long: `Add a PreToolUse entry for Bash to .claude/settings.json.

Existing hooks and settings are preserved. Running install twice does not
duplicate the entry; use --force to rewrite its command.`,
	Args: cobra.NoArgs,
	RunE: runHookInstall,
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the hook from Claude Code settings",
	Args:  cobra.NoArgs,
	RunE:  runHookUninstall,
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show hook installation status",
	Args:  cobra.NoArgs,
	RunE:  runHookStatus,
}

var hookTestCmd = &cobra.Command{
	Use:   "test <command>",
	Short: "Show what the hook would do for a command",
	Long: `Show what the hook would do for a command without running it or
recording an event.

Examples:
  safehook hook test "rm -rf node_modules"
  safehook hook test "chmod 777 deploy.sh"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHookTest,
}

func runHookRun(cmd *cobra.Command, args []string) error {
	stderr := cmd.ErrOrStderr()

	cfg, err := loadHookConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Warning: using default hook settings: %v\n", err)
	}

	logger := newLogger(stderr, cfg)
	sink, closeSink := buildSink(cfg, logger)
	defer closeSink()

	h := hook.NewHandler(hook.Options{
		Sink:       sink,
		Logger:     logger,
		FailClosed: !cfg.Hook.FailOpen,
		LogAllowed: cfg.Hook.LogAllowed,
	})
	d := h.Handle(cmd.InOrStdin())

	diag := output.NewDiagnostic(stderr, cfg.Hook.Styled && stderrIsTerminal(cmd))
	if f, ok := stderr.(*os.File); ok {
		diag = diag.WithWidth(output.TerminalWidth(f))
	}
	if err := diag.Write(severityOf(d), d.Diagnostic()); err != nil {
		logger.Debug("writing diagnostic", "err", err)
	}

	if d.ExitCode != hook.ExitProceed {
		return &ExitError{Code: d.ExitCode}
	}
	return nil
}

// loadHookConfig resolves the settings hook run needs. Problems outside the
// [hook] section are ignored; an unreadable config or an invalid [hook]
// section yields the defaults together with the error. The command is
// classified either way.
func loadHookConfig() (config.Config, error) {
	project, err := projectPath()
	if err != nil {
		return config.DefaultConfig(), fmt.Errorf("resolving project path: %w", err)
	}
	cfg, err := config.Load(config.LoadOptions{ProjectDir: project, ConfigPath: flagConfig, SkipValidation: true})
	if err != nil {
		return config.DefaultConfig(), err
	}
	if err := config.ValidateHook(cfg); err != nil {
		cfg.Hook = config.DefaultConfig().Hook
		return cfg, err
	}
	return cfg, nil
}

// buildSink assembles the event sinks enabled by cfg. The returned func
// releases any resources the sinks hold.
func buildSink(cfg config.Config, logger *log.Logger) (eventlog.Sink, func()) {
	var sinks eventlog.Multi
	closeFn := func() {}

	if cfg.Hook.LogPath != "" {
		sinks = append(sinks, eventlog.NewFileSink(cfg.Hook.LogPath, logger))
	}
	if cfg.Hook.HistoryEnabled {
		database, err := db.OpenAndMigrate(eventlog.ExpandHome(cfg.Hook.HistoryDB))
		if err != nil {
			logger.Debug("opening history database", "path", cfg.Hook.HistoryDB, "err", err)
		} else {
			sinks = append(sinks, eventlog.NewHistorySink(database, logger))
			closeFn = func() { _ = database.Close() }
		}
	}
	if len(sinks) == 0 {
		return eventlog.Nop{}, closeFn
	}
	return sinks, closeFn
}

func severityOf(d hook.Decision) output.Severity {
	switch {
	case d.Err != nil:
		return output.SeverityError
	case d.Verdict.Outcome == core.OutcomeWarn:
		return output.SeverityWarn
	default:
		return output.SeverityBlock
	}
}

func stderrIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.ErrOrStderr().(*os.File)
	return ok && output.IsTerminal(f)
}

func settingsPath() (string, error) {
	project, err := projectPath()
	if err != nil {
		return "", fmt.Errorf("resolving project path: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return hook.SettingsPath(flagHookGlobal, home, project), nil
}

func runHookInstall(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	binary := flagHookBinary
	if binary == "" {
		binary, err = os.Executable()
		if err != nil {
			return fmt.Errorf("locating safehook binary: %w", err)
		}
	}
	command := hook.HookCommand(binary)

	settings, err := hook.LoadSettings(path)
	if err != nil {
		return err
	}
	existed := settings.Install(command, flagHookForce)
	if !existed || flagHookForce {
		if err := settings.Save(); err != nil {
			return err
		}
	}

	status := "installed"
	switch {
	case existed && flagHookForce:
		status = "updated"
	case existed:
		status = "already_installed"
	}

	out := newWriter(cmd)
	if out.IsStructured() {
		return out.Write(map[string]any{
			"status":        status,
			"settings_path": path,
			"command":       command,
		})
	}
	switch status {
	case "already_installed":
		out.Success(fmt.Sprintf("Hook already present in %s (use --force to rewrite)", path))
	default:
		out.Success(fmt.Sprintf("Hook %s in %s", status, path))
		fmt.Fprintf(cmd.ErrOrStderr(), "  command: %s\n", command)
	}
	return nil
}

func runHookUninstall(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	settings, err := hook.LoadSettings(path)
	if err != nil {
		return err
	}

	removed := settings.Uninstall()
	if removed {
		if err := settings.Save(); err != nil {
			return err
		}
	}

	out := newWriter(cmd)
	if out.IsStructured() {
		return out.Write(map[string]any{
			"removed":       removed,
			"settings_path": path,
		})
	}
	if removed {
		out.Success(fmt.Sprintf("Hook removed from %s", path))
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "No safehook entry in %s\n", path)
	}
	return nil
}

// HookStatus is the structured form of `hook status`.
type HookStatus struct {
	SettingsPath string `json:"settings_path"`
	Installed    bool   `json:"installed"`
	Command      string `json:"command,omitempty"`
	RuleCount    int    `json:"rule_count"`
	RuleHash     string `json:"rule_hash"`
	FailOpen     bool   `json:"fail_open"`
	LogPath      string `json:"log_path,omitempty"`
	HistoryDB    string `json:"history_db,omitempty"`
}

func runHookStatus(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	settings, err := hook.LoadSettings(path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	classifier := core.DefaultClassifier()
	status := HookStatus{
		SettingsPath: path,
		RuleCount:    len(classifier.Rules()),
		RuleHash:     classifier.ComputeHash(),
		FailOpen:     cfg.Hook.FailOpen,
		LogPath:      eventlog.ExpandHome(cfg.Hook.LogPath),
	}
	status.Command, status.Installed = settings.InstalledCommand()
	if cfg.Hook.HistoryEnabled {
		status.HistoryDB = eventlog.ExpandHome(cfg.Hook.HistoryDB)
	}

	out := newWriter(cmd)
	if out.IsStructured() {
		return out.Write(status)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "safehook hook status")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Settings:  %s\n", path)
	if status.Installed {
		fmt.Fprintf(w, "Installed: yes (%s)\n", status.Command)
	} else {
		fmt.Fprintln(w, "Installed: no (run 'safehook hook install')")
	}
	fmt.Fprintf(w, "Rules:     %d (sha256 %s)\n", status.RuleCount, shortHash(status.RuleHash))
	fmt.Fprintf(w, "Fail open: %t\n", status.FailOpen)
	if status.LogPath != "" {
		fmt.Fprintf(w, "Log:       %s\n", status.LogPath)
	}
	if status.HistoryDB != "" {
		fmt.Fprintf(w, "History:   %s\n", status.HistoryDB)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// HookTestResult is the structured form of `hook test`.
type HookTestResult struct {
	Command  string `json:"command"`
	Outcome  string `json:"outcome"`
	ExitCode int    `json:"exit_code"`
	Rule     string `json:"rule,omitempty"`
	Message  string `json:"message,omitempty"`
}

func runHookTest(cmd *cobra.Command, args []string) error {
	command := strings.Join(args, " ")

	h := hook.NewHandler(hook.Options{Sink: eventlog.Nop{}})
	d := h.Evaluate(command)

	result := HookTestResult{
		Command:  command,
		Outcome:  string(d.Verdict.Outcome),
		ExitCode: d.ExitCode,
		Rule:     d.Verdict.RuleName(),
		Message:  d.Verdict.Message,
	}

	out := newWriter(cmd)
	if out.IsStructured() {
		return out.Write(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Command:   %s\n", result.Command)
	fmt.Fprintf(w, "Outcome:   %s\n", strings.ToUpper(result.Outcome))
	fmt.Fprintf(w, "Exit code: %d\n", result.ExitCode)
	if result.Rule != "" {
		fmt.Fprintf(w, "Rule:      %s\n", result.Rule)
	}
	if result.Message != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, output.NewDiagnostic(w, false).Render(severityOf(d), result.Message))
	}
	return nil
}

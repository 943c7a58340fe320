// Package cli implements the Cobra command-line interface for safehook.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Dicklesworthstone/safehook/internal/config"
	"github.com/Dicklesworthstone/safehook/internal/output"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values
var (
	flagConfig  string
	flagOutput  string
	flagJSON    bool
	flagVerbose bool
	flagProject string
)

var rootCmd = &cobra.Command{
	Use:   "safehook",
	Short: "Pre-execution safety hook for agent shell commands",
	Long: `safehook inspects shell commands before a coding agent runs them.

Installed as a PreToolUse hook, it reads the pending tool call from stdin,
classifies the command and either lets it through, lets it through with a
warning, or blocks it with exit code 2:

  BLOCK  - recursive force deletes, sudo rm, curl | sh, system directories
  WARN   - chmod 777
  ALLOW  - everything else

It also prints timestamps in a fixed timezone and serves them over MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		showQuickReference(cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		goVersion := runtime.Version()
		project, _ := projectPath()
		userPath, projectConfig := config.ConfigPaths(project, flagConfig)

		payload := map[string]any{
			"version":      version,
			"commit":       commit,
			"build_date":   date,
			"go_version":   goVersion,
			"user_config":  userPath,
			"project_path": project,
		}
		if projectConfig != "" {
			payload["project_config"] = projectConfig
		}

		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(payload)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "safehook %s\n", version)
		fmt.Fprintf(w, "  commit:  %s\n", commit)
		fmt.Fprintf(w, "  built:   %s\n", date)
		fmt.Fprintf(w, "  go:      %s\n", goVersion)
		fmt.Fprintf(w, "  config:  %s\n", userPath)
		fmt.Fprintf(w, "  project: %s\n", project)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetOutput returns the configured output format.
// Precedence: CLI flags > SAFEHOOK_OUTPUT_FORMAT env > default
func GetOutput() string {
	if flagJSON {
		return "json"
	}
	if flagOutput != "" && flagOutput != "text" {
		return flagOutput
	}
	if envFormat := os.Getenv("SAFEHOOK_OUTPUT_FORMAT"); envFormat != "" {
		if f, err := output.ParseFormat(envFormat); err == nil {
			return string(f)
		}
	}
	return "text"
}

func newWriter(cmd *cobra.Command) *output.Writer {
	return output.New(output.Format(strings.ToLower(GetOutput())),
		output.WithOutput(cmd.OutOrStdout()),
		output.WithErrorOutput(cmd.ErrOrStderr()),
	)
}

// projectPath returns the absolute project directory: --project when set,
// the working directory otherwise.
func projectPath() (string, error) {
	if flagProject != "" {
		return filepath.Abs(flagProject)
	}
	return os.Getwd()
}

func loadConfig() (config.Config, error) {
	project, err := projectPath()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving project path: %w", err)
	}
	return config.Load(config.LoadOptions{ProjectDir: project, ConfigPath: flagConfig})
}

// newLogger returns the diagnostic logger for a command. It always writes to
// stderr so that stdout stays reserved for results.
func newLogger(w io.Writer, cfg config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.General.LogLevel)
	if err != nil {
		level = log.WarnLevel
	}
	if flagVerbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: flagVerbose,
		Prefix:          "safehook",
	})
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "project config file path (default .safehook/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text, json, yaml (env: SAFEHOOK_OUTPUT_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory")

	rootCmd.AddCommand(versionCmd)
}

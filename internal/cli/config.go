package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/Dicklesworthstone/safehook/internal/config"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

var (
	flagConfigGlobal bool
)

func init() {
	configCmd.PersistentFlags().BoolVar(&flagConfigGlobal, "global", false, "operate on user config (~/.safehook/config.toml)")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configEditCmd)

	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or modify safehook configuration",
	Long: `Show the effective configuration.

Sources, lowest precedence first:
  built-in defaults
  ~/.safehook/config.toml
  .safehook/config.toml (or --config)
  .env in the project directory (SAFEHOOK_* entries only)
  SAFEHOOK_<SECTION>_<KEY> environment variables`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(cfg)
		}
		w := cmd.OutOrStdout()
		for _, key := range config.Keys() {
			val, _ := config.GetValue(cfg, key)
			fmt.Fprintf(w, "%s = %v\n", key, val)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		val, ok := config.GetValue(cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown key %q", args[0])
		}
		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(map[string]any{
				"key":   args[0],
				"value": val,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the project (or --global) config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := configTarget()
		if err != nil {
			return err
		}

		value, err := config.ParseValue(args[0], args[1])
		if err != nil {
			return err
		}
		if err := config.WriteValue(target, args[0], value); err != nil {
			return err
		}

		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(map[string]any{
				"path":  target,
				"key":   args[0],
				"value": value,
			})
		}
		out.Success(fmt.Sprintf("%s = %v (%s)", args[0], value, target))
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable configuration keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := config.Keys()
		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(keys)
		}
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR (default: vi)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := configTarget()
		if err != nil {
			return err
		}

		// Ensure the file exists with at least one setting for convenience.
		if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
			if err := config.WriteValue(target, "hook.fail_open", config.DefaultConfig().Hook.FailOpen); err != nil {
				return err
			}
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", target, err)
		}

		editor, err := editorCommand(os.Getenv("EDITOR"))
		if err != nil {
			return err
		}
		editCmd := exec.Command(editor[0], append(editor[1:], target)...)
		editCmd.Stdin = os.Stdin
		editCmd.Stdout = os.Stdout
		editCmd.Stderr = os.Stderr
		return editCmd.Run()
	},
}

func configTarget() (string, error) {
	project, err := projectPath()
	if err != nil {
		return "", err
	}
	userPath, projectConfig := config.ConfigPaths(project, flagConfig)
	if flagConfigGlobal {
		if userPath == "" {
			return "", fmt.Errorf("failed to get home directory")
		}
		return userPath, nil
	}
	return projectConfig, nil
}

// editorCommand splits $EDITOR into argv so values like "code --wait" work.
func editorCommand(editor string) ([]string, error) {
	if editor == "" {
		return []string{"vi"}, nil
	}
	argv, err := shellwords.Parse(editor)
	if err != nil {
		return nil, fmt.Errorf("parsing $EDITOR: %w", err)
	}
	if len(argv) == 0 {
		return []string{"vi"}, nil
	}
	return argv, nil
}

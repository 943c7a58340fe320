package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Dicklesworthstone/safehook/internal/config"
	"github.com/Dicklesworthstone/safehook/internal/mcpserver"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	mcpCmd.AddCommand(mcpToolsCmd)
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve timestamps to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP time server on stdio",
	Long: `Run an MCP server on stdin/stdout exposing the timestamp formats as tools:

  get_current_time         2025-01-28 15:04:05
  get_formatted_timestamp  Last updated: 2025-01-28 15:04:05 JST
  get_iso_timestamp        2025-01-28T15:04:05+09:00
  get_date_only            2025-01-28
  get_time_only            15:04:05

Register it with an MCP client as: safehook mcp serve

With mcp.watch_config enabled, edits to config.toml or .env change the
timezone settings without restarting the server. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var mcpToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the MCP server registers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := mcpserver.ToolNames()
		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(names)
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)
	clock, err := clockFromConfig(cfg)
	if err != nil {
		return err
	}

	srv := mcpserver.New(mcpserver.Options{
		Name:    cfg.MCP.Name,
		Version: version,
		Clock:   clock,
		Logger:  logger,
	})

	if cfg.MCP.WatchConfig {
		if err := watchConfig(ctx, srv, logger); err != nil {
			logger.Warn("config watch disabled", "err", err)
		}
	}

	logger.Info("serving MCP on stdio", "name", cfg.MCP.Name, "timezone", clock.Location().String())
	return srv.ServeStdio(ctx)
}

// watchConfig reloads the clock whenever a config source changes. The
// watcher stops with ctx.
func watchConfig(ctx context.Context, srv *mcpserver.Server, logger *log.Logger) error {
	project, err := projectPath()
	if err != nil {
		return err
	}
	userPath, projectConfig := config.ConfigPaths(project, flagConfig)
	w, err := config.NewWatcher([]string{userPath, projectConfig, filepath.Join(project, config.EnvFileName)}, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx, reloadClock(srv, logger)); err != nil {
			logger.Warn("config watcher stopped", "err", err)
		}
	}()
	return nil
}

// reloadClock returns a change handler that swaps the server clock for one
// built from freshly loaded config. Invalid config keeps the current clock.
func reloadClock(srv *mcpserver.Server, logger *log.Logger) func() {
	return func() {
		cfg, err := loadConfig()
		if err != nil {
			logger.Warn("reloading config", "err", err)
			return
		}
		clock, err := clockFromConfig(cfg)
		if err != nil {
			logger.Warn("reloading config", "err", err)
			return
		}
		srv.SetClock(clock)
		logger.Info("config reloaded", "timezone", clock.Location().String())
	}
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dicklesworthstone/safehook/internal/db"
	"github.com/Dicklesworthstone/safehook/internal/eventlog"
	"github.com/Dicklesworthstone/safehook/internal/tui"
	"github.com/spf13/cobra"
)

var (
	flagHistoryEvent string
	flagHistorySince string
	flagHistoryLimit int
	flagHistoryDB    string
	flagHistoryTUI   bool
)

func init() {
	historyCmd.Flags().StringVar(&flagHistoryEvent, "event", "", "filter by event type (blocked, warned, allowed, error)")
	historyCmd.Flags().StringVar(&flagHistorySince, "since", "", "only show events after this date (RFC3339 or YYYY-MM-DD)")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 50, "max results to return")
	historyCmd.Flags().StringVar(&flagHistoryDB, "db", "", "history database path (default: hook.history_db)")
	historyCmd.Flags().BoolVar(&flagHistoryTUI, "tui", false, "browse events interactively")

	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded hook decisions",
	Long: `Browse hook decisions recorded in the history database, newest first.

Recording is controlled by hook.history_enabled; the append-only log file
at hook.log_path is written regardless.

Examples:
  safehook history                       # recent events
  safehook history --event blocked       # only blocked commands
  safehook history --since 2025-12-01    # events since a date
  safehook history --tui                 # interactive browser`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := historyOptions()
		if err != nil {
			return err
		}

		path := flagHistoryDB
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.Hook.HistoryDB
		}

		dbConn, err := db.OpenAndMigrate(eventlog.ExpandHome(path))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer dbConn.Close()

		if flagHistoryTUI {
			return tui.Run(historyLoader(dbConn, opts))
		}

		events, err := dbConn.ListEvents(opts)
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}

		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(events)
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No events recorded.")
			return nil
		}
		rows := make([][]string, 0, len(events))
		for _, e := range events {
			rows = append(rows, []string{
				e.OccurredAt.Local().Format(time.DateTime),
				e.EventType,
				e.Command,
				e.Action,
			})
		}
		return out.Table([]string{"TIME", "EVENT", "COMMAND", "ACTION"}, rows)
	},
}

// historyLoader lets the browser swap the event filter while keeping --since and --limit.
func historyLoader(dbConn *db.DB, opts db.ListOptions) tui.Loader {
	return func(eventType string) ([]*db.Event, error) {
		o := opts
		o.EventType = eventType
		return dbConn.ListEvents(o)
	}
}

func historyOptions() (db.ListOptions, error) {
	opts := db.ListOptions{Limit: flagHistoryLimit}

	if flagHistoryEvent != "" {
		eventType := strings.ToUpper(flagHistoryEvent)
		switch eventType {
		case eventlog.EventBlocked, eventlog.EventWarned, eventlog.EventAllowed, eventlog.EventError:
		default:
			return opts, fmt.Errorf("invalid event type: %s (must be blocked, warned, allowed or error)", flagHistoryEvent)
		}
		opts.EventType = eventType
	}

	if flagHistorySince != "" {
		since, err := parseSince(flagHistorySince)
		if err != nil {
			return opts, err
		}
		opts.Since = since
	}
	return opts, nil
}

// parseSince accepts RFC3339 or a local YYYY-MM-DD date.
func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q (use RFC3339 or YYYY-MM-DD)", s)
}

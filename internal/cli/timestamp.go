package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dicklesworthstone/safehook/internal/config"
	"github.com/Dicklesworthstone/safehook/internal/timestamp"
	"github.com/spf13/cobra"
)

// timeNow is swapped by tests.
var timeNow = time.Now

func init() {
	rootCmd.AddCommand(timestampCmd)
}

var timestampCmd = &cobra.Command{
	Use:   "timestamp [formatted|current|iso|date|time]",
	Short: "Print the current time in the configured timezone",
	Long: `Print the current time in the configured timezone (Asia/Tokyo by default).

Formats:
  formatted  Last updated: 2025-01-28 15:04:05 JST (default)
  current    2025-01-28 15:04:05
  iso        2025-01-28T15:04:05+09:00
  date       2025-01-28
  time       15:04:05

The value is printed alone on stdout so it can be captured with $(...).`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: selectorNames(),
	RunE:      runTimestamp,
}

func selectorNames() []string {
	names := make([]string, 0, len(timestamp.Selectors()))
	for _, s := range timestamp.Selectors() {
		names = append(names, string(s))
	}
	return names
}

// TimestampResult is the structured form of `timestamp`.
type TimestampResult struct {
	Format   string `json:"format"`
	Value    string `json:"value"`
	Timezone string `json:"timezone"`
}

func runTimestamp(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	selector, err := timestamp.ParseSelector(name)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), timestamp.Usage(cmd.Root().Name()+" "+cmd.Name()))
		return &ExitError{Code: 1}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	clock, err := clockFromConfig(cfg)
	if err != nil {
		return err
	}

	value, err := clock.WithNow(timeNow).Format(selector)
	if err != nil {
		return err
	}

	out := newWriter(cmd)
	if out.IsStructured() {
		return out.Write(TimestampResult{
			Format:   string(selector),
			Value:    value,
			Timezone: clock.Location().String(),
		})
	}
	return out.Print(value)
}

func clockFromConfig(cfg config.Config) (*timestamp.Clock, error) {
	clock, err := timestamp.New(timestamp.Options{
		Timezone:  cfg.Timestamp.Timezone,
		ZoneLabel: cfg.Timestamp.ZoneLabel,
		Prefix:    cfg.Timestamp.Prefix,
	})
	if err != nil {
		return nil, errors.Join(errors.New("invalid timestamp settings"), err)
	}
	return clock, nil
}

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/Dicklesworthstone/safehook/internal/core"
	"github.com/Dicklesworthstone/safehook/internal/output"
	"github.com/spf13/cobra"
)

var (
	flagRulesSeverity   string
	flagRulesExitCode   bool
	flagRulesFormat     string
	flagRulesOutputFile string
)

func init() {
	rulesListCmd.Flags().StringVar(&flagRulesSeverity, "severity", "", "only list rules of this severity (block, warn)")

	rulesTestCmd.Flags().BoolVar(&flagRulesExitCode, "exit-code", false, "exit 2 when the command would be blocked")
	checkCmd.Flags().BoolVar(&flagRulesExitCode, "exit-code", false, "exit 2 when the command would be blocked")
	// Flags end at the first word of the command so "check rm -rf x" needs no quotes.
	rulesTestCmd.Flags().SetInterspersed(false)
	checkCmd.Flags().SetInterspersed(false)

	rulesExportCmd.Flags().StringVarP(&flagRulesFormat, "format", "f", "json", "export format: json, yaml")
	rulesExportCmd.Flags().StringVar(&flagRulesOutputFile, "file", "", "output file (default: stdout)")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesTestCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesVersionCmd)

	// safehook check "<command>" is an alias for safehook rules test "<command>"
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(checkCmd)
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the command classification rules",
	Long: `Inspect the rules used to classify commands.

Rules are regular expressions matched against any part of the command.
They are evaluated in order and the first match decides the outcome:
block rules stop the command, warn rules let it run with a message.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rules := core.DefaultClassifier().Export().Rules
		if flagRulesSeverity != "" {
			sev := core.Severity(strings.ToLower(flagRulesSeverity))
			if sev != core.SeverityBlock && sev != core.SeverityWarn {
				return fmt.Errorf("invalid severity: %s (must be block or warn)", flagRulesSeverity)
			}
			filtered := rules[:0:0]
			for _, r := range rules {
				if r.Severity == sev {
					filtered = append(filtered, r)
				}
			}
			rules = filtered
		}

		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(rules)
		}

		w := cmd.OutOrStdout()
		for _, r := range rules {
			fmt.Fprintf(w, "%d. %s [%s]\n", r.Order, r.Name, strings.ToUpper(string(r.Severity)))
			fmt.Fprintf(w, "   %s\n", r.Pattern)
			if r.Description != "" {
				fmt.Fprintf(w, "   # %s\n", r.Description)
			}
		}
		return nil
	},
}

var rulesTestCmd = &cobra.Command{
	Use:   "test <command>",
	Short: "Classify a command",
	Long: `Classify a command and show the outcome and matching rule.

Use --exit-code to exit 2 when the command would be blocked, the same code
the hook uses. Flags go before the command; the remaining words are joined
into the command line.

Examples:
  safehook rules test "rm -rf node_modules"
  safehook check --exit-code rm -rf node_modules`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRulesTest,
}

// checkCmd is an alias for "rules test"
var checkCmd = &cobra.Command{
	Use:   "check <command>",
	Short: "Alias for 'rules test'",
	Long:  `Alias for 'safehook rules test'. See 'safehook rules test --help' for details.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRulesTest,
}

// RuleTestResult is the structured form of `rules test`.
type RuleTestResult struct {
	Command  string  `json:"command"`
	Outcome  string  `json:"outcome"`
	Blocked  bool    `json:"blocked"`
	Rule     *string `json:"rule"`
	Pattern  string  `json:"pattern,omitempty"`
	Severity string  `json:"severity,omitempty"`
}

func runRulesTest(cmd *cobra.Command, args []string) error {
	command := strings.Join(args, " ")
	verdict := core.Classify(command)

	result := RuleTestResult{
		Command: command,
		Outcome: string(verdict.Outcome),
		Blocked: verdict.Blocked(),
	}
	if verdict.Rule != nil {
		name := verdict.Rule.Name
		result.Rule = &name
		result.Pattern = verdict.Rule.Expr
		result.Severity = string(verdict.Rule.Severity)
	}

	out := newWriter(cmd)
	if out.IsStructured() {
		if err := out.Write(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Command:  %s\n", command)
		fmt.Fprintf(w, "Outcome:  %s\n", strings.ToUpper(result.Outcome))
		if result.Rule != nil {
			fmt.Fprintf(w, "Rule:     %s\n", *result.Rule)
			fmt.Fprintf(w, "Pattern:  %s\n", result.Pattern)
		} else {
			fmt.Fprintln(w, "Rule:     (none)")
		}
	}

	if flagRulesExitCode && verdict.Blocked() {
		return &ExitError{Code: 2}
	}
	return nil
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export rules for external tools",
	Long: `Export the rule table with its version and SHA256 hash.

Examples:
  safehook rules export                       # JSON to stdout
  safehook rules export -f yaml               # YAML to stdout
  safehook rules export --file rules.json     # JSON to file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(flagRulesFormat)
		if err != nil || format == output.FormatText {
			return fmt.Errorf("unknown format: %s (use json or yaml)", flagRulesFormat)
		}

		export := core.DefaultClassifier().Export()

		if flagRulesOutputFile == "" {
			return output.New(format, output.WithOutput(cmd.OutOrStdout())).Write(export)
		}

		f, err := os.Create(flagRulesOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if err := output.New(format, output.WithOutput(f)).Write(export); err != nil {
			f.Close()
			return fmt.Errorf("failed to write file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}

		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(map[string]any{
				"status": "exported",
				"format": string(format),
				"file":   flagRulesOutputFile,
				"hash":   export.SHA256,
				"count":  export.Metadata.RuleCount,
			})
		}
		out.Success(fmt.Sprintf("Exported %d rules to %s", export.Metadata.RuleCount, flagRulesOutputFile))
		return nil
	},
}

var rulesVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show rule table version and hash",
	Long: `Show the rule table version and SHA256 hash.

The hash changes whenever a rule's name, expression or severity changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		export := core.DefaultClassifier().Export()
		payload := map[string]any{
			"version":         export.Version,
			"sha256":          export.SHA256,
			"rule_count":      export.Metadata.RuleCount,
			"severity_counts": export.Metadata.SeverityCounts,
		}

		out := newWriter(cmd)
		if out.IsStructured() {
			return out.Write(payload)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "rules %s\n", export.Version)
		fmt.Fprintf(w, "  sha256: %s\n", export.SHA256)
		fmt.Fprintf(w, "  rules:  %d\n", export.Metadata.RuleCount)
		return nil
	},
}

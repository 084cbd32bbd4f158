package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/logreason/internal/analyzer"
	"github.com/bimmerbailey/logreason/internal/config"
	"github.com/bimmerbailey/logreason/internal/grouper"
	"github.com/bimmerbailey/logreason/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] <file>...",
	Short: "Show log file statistics",
	Long: `Display a statistical summary of log files: event count, number of
distinct patterns, largest cluster, and level distribution.

Examples:
  logreason stats /var/log/app.log
  logreason stats --format json "logs/*.log"
  logreason stats --since "2024-01-01" app.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("since", "", "only include events at or after this time")
	statsCmd.Flags().String("until", "", "only include events at or before this time")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")

	opts, err := filterOptions(sinceStr, untilStr)
	if err != nil {
		return err
	}

	files, err := config.ExpandGlobs(args)
	if err != nil {
		return err
	}

	logger := newLogger(viper.GetBool("verbose"))
	events, err := parseFiles(files, logger)
	if err != nil {
		return err
	}
	parsed := len(events)
	events = analyzer.Filter(events, opts)

	report := output.StatsReport{
		Files:  files,
		Parsed: parsed,
		Stats:  grouper.Stats(grouper.GroupEvents(events)),
		Levels: analyzer.CountLevels(events),
	}

	if len(events) == 0 && output.ParseFormat(viper.GetString("format")) == output.FormatText {
		fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
		return nil
	}

	writer := output.New(cmd.OutOrStdout(), output.ParseFormat(viper.GetString("format")))
	writer.SetColorMode(colorMode())
	return writer.WriteStats(report)
}

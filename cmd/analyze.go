package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/logreason/internal/analyzer"
	"github.com/bimmerbailey/logreason/internal/config"
	"github.com/bimmerbailey/logreason/internal/embedding"
	"github.com/bimmerbailey/logreason/internal/output"
	"github.com/bimmerbailey/logreason/internal/parser"
	"github.com/bimmerbailey/logreason/internal/redact"
	"github.com/bimmerbailey/logreason/internal/watch"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <file>...",
	Short: "Group log lines into ranked patterns",
	Long: `Parse one or more log files, normalize variable tokens (numbers, IPv4
addresses, UUIDs) out of each message, and rank the resulting patterns by
frequency. Use "-" to read from stdin.

Examples:
  logreason analyze /var/log/app.log
  logreason analyze --top 20 --min-count 3 "logs/*.log"
  logreason analyze --errors-only --since 2h app.log
  logreason analyze --embed --format yaml app.log
  logreason analyze --watch app.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	addAnalyzeFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("top", "t", 5, "number of top patterns to show")
	cmd.Flags().IntP("min-count", "m", 1, "hide patterns seen fewer times than this")
	cmd.Flags().Bool("errors-only", false, "only group ERROR events")
	cmd.Flags().String("since", "", "only include events at or after this time (e.g., 2024-01-05, 1h)")
	cmd.Flags().String("until", "", "only include events at or before this time")
	cmd.Flags().Bool("embed", false, "annotate patterns with their most similar pattern using embeddings")
	cmd.Flags().Bool("watch", false, "rerun the analysis whenever an input file changes")
	cmd.Flags().Bool("redact", false, "mask emails, credentials and addresses in the output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	topN := intSetting(cmd, "top", "top")
	minCount := intSetting(cmd, "min-count", "min_count")
	errorsOnly, _ := cmd.Flags().GetBool("errors-only")
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")
	embed, _ := cmd.Flags().GetBool("embed")
	watchMode, _ := cmd.Flags().GetBool("watch")
	redactOutput, _ := cmd.Flags().GetBool("redact")

	if topN < 1 {
		return fmt.Errorf("invalid --top value: %d (must be at least 1)", topN)
	}
	if minCount < 1 {
		return fmt.Errorf("invalid --min-count value: %d (must be at least 1)", minCount)
	}

	opts, err := filterOptions(sinceStr, untilStr)
	if err != nil {
		return err
	}
	opts.ErrorsOnly = errorsOnly
	opts.MinCount = minCount

	files, err := config.ExpandGlobs(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(viper.GetBool("verbose"))

	var embedder embedding.Embedder
	if embed {
		embedder, err = embedding.NewEmbedder(cfg, logger)
		if err != nil {
			logger.Warn("embeddings disabled", "error", err)
		}
	}

	writer := output.New(cmd.OutOrStdout(), output.ParseFormat(viper.GetString("format")))
	writer.SetColorMode(colorMode())

	if redactOutput || cfg.Redaction.Enabled {
		r, err := redact.New(cfg.Redaction.Patterns)
		if err != nil {
			return fmt.Errorf("invalid redaction.patterns: %w", err)
		}
		writer.SetRedactor(r)
	}

	run := func(ctx context.Context) error {
		result, err := analyzeFiles(files, opts, logger)
		if err != nil {
			return err
		}

		var neighbors []embedding.Neighbor
		if embedder != nil {
			neighbors = similarPatterns(ctx, embedder, result, logger)
		}

		return writer.WriteAnalysis(result, topN, neighbors)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := run(ctx); err != nil {
		return err
	}
	if !watchMode {
		return nil
	}

	var debounce time.Duration
	if cfg.Watch.Debounce != "" {
		debounce, err = config.ParseDuration(cfg.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("invalid watch.debounce: %w", err)
		}
	}

	w, err := watch.New(watch.Options{
		Files:    files,
		Debounce: debounce,
		OnChange: run,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(os.Stderr, "Watching for changes. Press Ctrl+C to stop.")
	return w.Run(ctx)
}

// filterOptions parses the --since and --until flags.
func filterOptions(sinceStr, untilStr string) (analyzer.Options, error) {
	var opts analyzer.Options
	var err error

	if sinceStr != "" {
		opts.Since, err = config.ParseTimeRef(sinceStr)
		if err != nil {
			return opts, fmt.Errorf("invalid --since value: %w", err)
		}
	}
	if untilStr != "" {
		opts.Until, err = config.ParseTimeRef(untilStr)
		if err != nil {
			return opts, fmt.Errorf("invalid --until value: %w", err)
		}
	}
	if !opts.Since.IsZero() && !opts.Until.IsZero() && opts.Since.After(opts.Until) {
		return opts, fmt.Errorf("--since must be before --until")
	}
	return opts, nil
}

// parseFiles reads every file in order. Any I/O error aborts the whole run.
func parseFiles(files []string, logger *slog.Logger) ([]config.LogEvent, error) {
	p := parser.New()

	var events []config.LogEvent
	for _, file := range files {
		start := time.Now()
		fileEvents, err := p.ParseFile(file)
		if err != nil {
			return nil, err
		}
		logger.Info("parsed file", "path", file, "events", len(fileEvents), "elapsed", time.Since(start))
		events = append(events, fileEvents...)
	}
	return events, nil
}

func analyzeFiles(files []string, opts analyzer.Options, logger *slog.Logger) (analyzer.Result, error) {
	events, err := parseFiles(files, logger)
	if err != nil {
		return analyzer.Result{}, err
	}

	result := analyzer.New(logger).Run(events, opts)
	result.Files = files
	return result, nil
}

// similarPatterns embeds every surviving pattern and finds each one's nearest
// neighbor. Failures are logged and yield no annotations.
func similarPatterns(ctx context.Context, e embedding.Embedder, result analyzer.Result, logger *slog.Logger) []embedding.Neighbor {
	if len(result.Groups) < 2 {
		return nil
	}

	if err := e.Heartbeat(ctx); err != nil {
		logger.Warn("embedding backend unavailable, skipping similarity", "error", err)
		return nil
	}

	vectors, err := embedding.EmbedGroups(ctx, e, result.Groups)
	if err != nil {
		logger.Warn("embedding failed, skipping similarity", "error", err)
		return nil
	}
	return embedding.Nearest(vectors)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/config"
	"github.com/sells-group/lead-enrich/internal/enrich"
	"github.com/sells-group/lead-enrich/internal/metrics"
	"github.com/sells-group/lead-enrich/internal/resilience"
	"github.com/sells-group/lead-enrich/internal/tabular"
)

// progressEvery controls how often batch progress is logged.
const progressEvery = 10

var (
	enrichOutput      string
	enrichConcurrency int
	enrichCacheDir    string
	enrichLimit       int
	enrichMetricsFile string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <input>",
	Short: "Enrich a CSV or XLSX file of restaurant leads",
	Long: `Reads restaurant records, resolves display names and owners, and writes
one output row per input record.

Services without an API key are skipped. Responses are cached on disk, so a
re-run over the same input makes no repeated upstream calls.

Examples:
  lead-enrich enrich leads.csv -o enriched.csv
  lead-enrich enrich leads.xlsx -o enriched.xlsx --concurrency 5 --limit 100`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runEnrich(ctx, cmd, args[0])
	},
}

func init() {
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "output.csv", "output file (.csv or .xlsx)")
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 0, "records processed at once (default from config)")
	enrichCmd.Flags().StringVar(&enrichCacheDir, "cache-dir", "", "response cache directory (default from config)")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "process at most N records (0 = all)")
	enrichCmd.Flags().StringVar(&enrichMetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(ctx context.Context, cmd *cobra.Command, input string) error {
	log := zap.L().With(zap.String("input", input))

	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	records, err := tabular.ReadRecords(ctx, input)
	if err != nil {
		return eris.Wrap(err, "enrich: read input")
	}
	if enrichLimit > 0 && enrichLimit < len(records) {
		records = records[:enrichLimit]
	}
	log.Info("loaded records", zap.Int("records", len(records)))

	concurrency := cfg.Batch.Concurrency
	if enrichConcurrency > 0 {
		concurrency = enrichConcurrency
	}
	if enrichCacheDir != "" {
		cfg.Cache.Dir = enrichCacheDir
	}
	if enrichMetricsFile != "" {
		cfg.Metrics.Textfile = enrichMetricsFile
	}

	rec := metrics.New()
	batch, err := enrich.NewBatch(ctx, batchConfig(cfg, rec))
	if err != nil {
		return err
	}
	defer batch.Close() //nolint:errcheck

	res, runErr := batch.Run(ctx, records, concurrency, logProgress)
	if res == nil {
		return runErr
	}

	rows := make([][]string, len(res.Outcomes))
	for i, o := range res.Outcomes {
		rows[i] = enrich.FormatRow(o.Record).Values()
	}
	if err := tabular.WriteFile(enrichOutput, enrich.OutputColumns, rows); err != nil {
		return eris.Wrap(err, "enrich: write output")
	}
	log.Info("wrote output", zap.String("path", enrichOutput), zap.Int("rows", len(rows)))

	if cfg.Metrics.Textfile != "" {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("metrics export failed", zap.Error(err))
		}
	}

	snap, err := rec.Snapshot()
	if err != nil {
		log.Warn("metrics snapshot failed", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(res, snap, cfg.Pricing)) //nolint:errcheck

	return runErr
}

func logProgress(current, total int, _ string) {
	if current%progressEvery == 0 || current == total {
		zap.L().Info("progress", zap.Int("done", current), zap.Int("total", total))
	}
}

// batchConfig maps loaded settings onto the batch configuration.
func batchConfig(c *config.Config, rec *metrics.Recorder) enrich.Config {
	retry := resilience.FromRetryConfig(
		c.Retry.MaxAttempts,
		c.Retry.InitialBackoffMs,
		c.Retry.MaxBackoffMs,
		c.Retry.Multiplier,
		c.Retry.Jitter,
	)
	circuit := resilience.FromCircuitConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs)

	return enrich.Config{
		GooglePlacesKey:     c.Google.Key,
		OpenRouterKey:       c.OpenRouter.Key,
		WhitepagesKey:       c.Whitepages.Key,
		CacheDir:            c.Cache.Dir,
		CacheDriver:         c.Cache.Driver,
		GoogleBaseURL:       c.Google.BaseURL,
		OpenRouterBaseURL:   c.OpenRouter.BaseURL,
		OpenRouterModel:     c.OpenRouter.Model,
		WhitepagesBaseURL:   c.Whitepages.BaseURL,
		PlacesRateLimit:     c.Google.RateLimit,
		PerplexityRateLimit: c.OpenRouter.RateLimit,
		WhitepagesRateLimit: c.Whitepages.RateLimit,
		PlaceRadius:         c.Batch.PlaceRadiusM,
		MatchThreshold:      c.Batch.MatchThreshold,
		Retry:               retry,
		Circuit:             circuit,
		Metrics:             rec,
	}
}

// formatElapsed rounds durations for display.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

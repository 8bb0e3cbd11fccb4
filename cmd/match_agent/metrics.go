package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/internx-match/internal/accuracy"
	"github.com/jonathan/internx-match/internal/observability"
	"github.com/spf13/cobra"
)

var (
	metricsPeriod   int
	metricsCategory string
	metricsJSON     bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print the accuracy report",
	Long:  "Prints the same accuracy report served by GET /accuracy/metrics, as a summary box or as JSON.",
	RunE:  runMetrics,
}

func init() {
	metricsCmd.Flags().IntVarP(&metricsPeriod, "period", "p", 0, "Trailing window in days (default accuracy.default_period)")
	metricsCmd.Flags().StringVar(&metricsCategory, "category", "", "Restrict the trend to one category")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	agg := accuracy.NewAggregator(rt.store, rt.cfg.Accuracy, rt.logger)
	report, err := agg.Metrics(cmd.Context(), systemCaller(), metricsPeriod, metricsCategory)
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}

	if metricsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintAccuracyReport(report)
	return nil
}

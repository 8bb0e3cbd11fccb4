package main

import (
	"fmt"
	"time"

	"github.com/jonathan/internx-match/internal/accuracy"
	"github.com/jonathan/internx-match/internal/observability"
	"github.com/spf13/cobra"
)

var (
	aggregateDate string
	aggregateDays int
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute daily accuracy snapshots",
	Long:  "Recomputes the accuracy snapshot rows for one or more UTC days ending at --date (default today). Existing rows for those days are replaced.",
	RunE:  runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateDate, "date", "", "Last day to aggregate, YYYY-MM-DD (default today, UTC)")
	aggregateCmd.Flags().IntVar(&aggregateDays, "days", 1, "Number of days to aggregate, ending at --date")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	end := time.Now().UTC()
	if aggregateDate != "" {
		parsed, err := time.Parse(time.DateOnly, aggregateDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", aggregateDate, err)
		}
		end = parsed
	}
	if aggregateDays < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", aggregateDays)
	}

	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	agg := accuracy.NewAggregator(rt.store, rt.cfg.Accuracy, rt.logger)
	printer := observability.NewPrinter(cmd.OutOrStdout())
	for i := aggregateDays - 1; i >= 0; i-- {
		day := end.AddDate(0, 0, -i)
		rows, err := agg.Aggregate(cmd.Context(), day)
		if err != nil {
			return fmt.Errorf("aggregate %s: %w", day.Format(time.DateOnly), err)
		}
		printer.PrintSnapshots(rows)
	}
	return nil
}

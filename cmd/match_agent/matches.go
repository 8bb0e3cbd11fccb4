package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/matching"
	"github.com/jonathan/internx-match/internal/observability"
	"github.com/spf13/cobra"
)

var (
	matchesCandidate string
	matchesRecompute bool
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Show a candidate's personalized match scores",
	Long:  "Lists stored match scores for a candidate, best first. With --recompute the scores are rebuilt from the current profile and active positions before printing.",
	RunE:  runMatches,
}

func init() {
	matchesCmd.Flags().StringVar(&matchesCandidate, "candidate", "", "Candidate ID (required)")
	matchesCmd.Flags().BoolVar(&matchesRecompute, "recompute", false, "Recompute scores before listing")
	if err := matchesCmd.MarkFlagRequired("candidate"); err != nil {
		panic(fmt.Sprintf("failed to mark candidate flag as required: %v", err))
	}
	rootCmd.AddCommand(matchesCmd)
}

func runMatches(cmd *cobra.Command, _ []string) error {
	candidateID, err := uuid.Parse(matchesCandidate)
	if err != nil {
		return fmt.Errorf("invalid --candidate: %w", err)
	}

	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	svc := matching.NewService(rt.store, rt.cfg.Scoring, rt.logger)
	caller := systemCaller()
	if matchesRecompute {
		summary, err := svc.ComputeForAll(cmd.Context(), caller, &candidateID)
		if err != nil {
			return fmt.Errorf("recompute failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %d positions (%d skipped)\n", summary.Updated, summary.Skipped)
	}

	scores, err := svc.List(cmd.Context(), caller, &candidateID)
	if err != nil {
		return fmt.Errorf("failed to list match scores: %w", err)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintMatchScores(scores)
	return nil
}

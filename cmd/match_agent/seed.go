package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/types"
	"github.com/spf13/cobra"
)

// seedFile is the JSON document accepted by the seed command.
type seedFile struct {
	Positions       []types.Position       `json:"positions"`
	CareerInterests map[uuid.UUID][]string `json:"careerInterests"`
}

var seedInput string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load positions and career interests from a JSON file",
	Long:  "Upserts the open-position catalog and candidates' declared career interests, which the match calculator reads.",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedInput, "file", "f", "", "Path to the seed JSON file (required)")
	if err := seedCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
	rootCmd.AddCommand(seedCmd)
}

func readSeedFile(path string) (*seedFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var seed seedFile
	if err := json.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed JSON: %w", err)
	}
	for i, p := range seed.Positions {
		if p.ID == uuid.Nil {
			return nil, fmt.Errorf("position %d (%q) has no id", i, p.Title)
		}
	}
	return &seed, nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	seed, err := readSeedFile(seedInput)
	if err != nil {
		return err
	}

	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := cmd.Context()
	for _, p := range seed.Positions {
		if err := rt.store.UpsertPosition(ctx, p); err != nil {
			return fmt.Errorf("upsert position %s: %w", p.ID, err)
		}
	}
	for candidateID, interests := range seed.CareerInterests {
		if err := rt.store.SetCareerInterests(ctx, candidateID, interests); err != nil {
			return fmt.Errorf("set career interests for %s: %w", candidateID, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d positions and %d candidates\n", len(seed.Positions), len(seed.CareerInterests))
	return nil
}

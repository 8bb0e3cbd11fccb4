// Package matching projects a candidate's interview scores onto the catalog
// of open positions, producing a bounded, explainable score per position.
package matching

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/types"
)

// Calculator computes personalized match scores. It is pure and safe for
// concurrent use.
type Calculator struct {
	cfg config.ScoringConfig
}

// NewCalculator creates a calculator. An empty keyword table falls back to
// the built-in one.
func NewCalculator(cfg config.ScoringConfig) *Calculator {
	if len(cfg.CategoryKeywords) == 0 {
		cfg.CategoryKeywords = config.DefaultCategoryKeywords()
	}
	return &Calculator{cfg: cfg}
}

// Eligible reports whether a position can be scored at all.
func Eligible(pos types.Position) bool {
	return pos.ID != uuid.Nil && pos.Active && strings.TrimSpace(pos.Category) != ""
}

// Score computes the match between the profile and one position.
func (c *Calculator) Score(profile *types.CandidateScoreProfile, pos types.Position, at time.Time) types.PersonalizedScore {
	base := c.cfg.NeutralPrior
	fromInterview := false
	if profile.OverallMatchScore != nil {
		base = *profile.OverallMatchScore
		fromInterview = true
	}

	bonus := AlignmentBonus(c.cfg, profile, pos)
	score := clamp(base + bonus.Total)

	return types.PersonalizedScore{
		CandidateID: profile.CandidateID,
		PositionID:  pos.ID,
		MatchScore:  score,
		MatchLevel:  c.Level(score),
		Factors: types.MatchFactors{
			BaseScore:           base,
			BaseFromInterview:   fromInterview,
			CategoryBonus:       bonus.Total,
			InterestBonus:       bonus.Interest,
			TagBonus:            bonus.Tags,
			KeywordBonus:        bonus.Keywords,
			MatchedTags:         bonus.MatchedTags,
			MatchedKeywords:     bonus.MatchedKeywords,
			SkillMatch:          profile.SkillScore,
			ExperienceRelevance: profile.ExperienceScore,
			PersonalityFit:      profile.PersonalityScore,
			CareerInterestMatch: bonus.InterestMatch,
		},
		CalculatedAt: at,
	}
}

// Level maps a score onto its tier.
func (c *Calculator) Level(score float64) types.MatchLevel {
	switch {
	case score >= c.cfg.HighThreshold:
		return types.MatchHigh
	case score >= c.cfg.ModerateThreshold:
		return types.MatchModerate
	default:
		return types.MatchLow
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

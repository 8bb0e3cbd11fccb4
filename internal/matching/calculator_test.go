package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/types"
	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 { return &f }

func TestCalculator_TechnologyInterestReachesHigh(t *testing.T) {
	calc := NewCalculator(config.DefaultScoring())
	profile := &types.CandidateScoreProfile{
		CandidateID:       uuid.New(),
		OverallMatchScore: floatPtr(80),
		SkillScore:        floatPtr(85),
		CareerInterests:   []string{"technology"},
	}
	pos := position("Technology", "Help the IT team")
	at := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	score := calc.Score(profile, pos, at)

	assert.Equal(t, 95.0, score.MatchScore)
	assert.Equal(t, types.MatchHigh, score.MatchLevel)
	assert.Equal(t, 80.0, score.Factors.BaseScore)
	assert.True(t, score.Factors.BaseFromInterview)
	assert.Equal(t, 15.0, score.Factors.CategoryBonus)
	assert.True(t, score.Factors.CareerInterestMatch)
	assert.Equal(t, 85.0, *score.Factors.SkillMatch)
	assert.Nil(t, score.Factors.PersonalityFit)
	assert.Equal(t, profile.CandidateID, score.CandidateID)
	assert.Equal(t, pos.ID, score.PositionID)
	assert.Equal(t, at, score.CalculatedAt)
}

func TestCalculator_NeutralPriorWithoutOverall(t *testing.T) {
	calc := NewCalculator(config.DefaultScoring())
	score := calc.Score(&types.CandidateScoreProfile{}, position("Healthcare", ""), time.Now())

	assert.Equal(t, 70.0, score.MatchScore)
	assert.False(t, score.Factors.BaseFromInterview)
	assert.Equal(t, types.MatchModerate, score.MatchLevel)
}

func TestCalculator_ZeroOverallIsAScore(t *testing.T) {
	calc := NewCalculator(config.DefaultScoring())
	score := calc.Score(&types.CandidateScoreProfile{OverallMatchScore: floatPtr(0)}, position("Healthcare", ""), time.Now())

	assert.Equal(t, 0.0, score.MatchScore)
	assert.Equal(t, types.MatchLow, score.MatchLevel)
}

func TestCalculator_ClampsAtHundred(t *testing.T) {
	calc := NewCalculator(config.DefaultScoring())
	profile := &types.CandidateScoreProfile{
		OverallMatchScore: floatPtr(98),
		CareerInterests:   []string{"finance"},
		InterviewTags:     []string{"analytical", "precise"},
	}
	score := calc.Score(profile, position("Finance", "analytical and precise work"), time.Now())

	assert.Equal(t, 100.0, score.MatchScore)
	assert.Equal(t, 25.0, score.Factors.CategoryBonus)
}

func TestCalculator_ScoresStayBounded(t *testing.T) {
	calc := NewCalculator(config.DefaultScoring())
	for _, overall := range []float64{-50, 0, 49.9, 50, 74.9, 75, 100, 250} {
		profile := &types.CandidateScoreProfile{
			OverallMatchScore: floatPtr(overall),
			CareerInterests:   []string{"design"},
			InterviewTags:     []string{"creative", "visual"},
		}
		score := calc.Score(profile, position("Design", "creative visual"), time.Now())
		assert.GreaterOrEqual(t, score.MatchScore, 0.0)
		assert.LessOrEqual(t, score.MatchScore, 100.0)
	}
}

func TestCalculator_Level(t *testing.T) {
	calc := NewCalculator(config.DefaultScoring())
	assert.Equal(t, types.MatchHigh, calc.Level(75))
	assert.Equal(t, types.MatchModerate, calc.Level(74.99))
	assert.Equal(t, types.MatchModerate, calc.Level(50))
	assert.Equal(t, types.MatchLow, calc.Level(49.99))
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(position("Tech", "")))
	assert.False(t, Eligible(types.Position{Category: "Tech", Active: true}))
	assert.False(t, Eligible(position("  ", "")))
	inactive := position("Tech", "")
	inactive.Active = false
	assert.False(t, Eligible(inactive))
}

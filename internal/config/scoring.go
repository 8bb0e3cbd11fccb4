package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// CategoryKeywords maps a position category fragment to the interview tags
// that signal a fit for it. Entries are matched in order; the first entry
// whose Category is contained in the position category wins.
type CategoryKeywords struct {
	Category string   `mapstructure:"category"`
	Keywords []string `mapstructure:"keywords"`
}

// ScoringConfig holds the match score constants.
type ScoringConfig struct {
	NeutralPrior      float64            `mapstructure:"neutral_prior"`
	HighThreshold     float64            `mapstructure:"high_threshold"`
	ModerateThreshold float64            `mapstructure:"moderate_threshold"`
	BonusCap          float64            `mapstructure:"bonus_cap"`
	InterestBonus     float64            `mapstructure:"interest_bonus"`
	TagBonusPerMatch  float64            `mapstructure:"tag_bonus_per_match"`
	TagBonusCap       float64            `mapstructure:"tag_bonus_cap"`
	KeywordBonus      float64            `mapstructure:"keyword_bonus"`
	StrengthThreshold float64            `mapstructure:"strength_threshold"`
	ImproveThreshold  float64            `mapstructure:"improve_threshold"`
	MaxInterviewTags  int                `mapstructure:"max_interview_tags"`
	CategoryKeywords  []CategoryKeywords `mapstructure:"category_keywords"`
	// ProfileDimensions lists, per profile score (skill, experience,
	// personality), the response categories averaged into it.
	ProfileDimensions map[string][]string `mapstructure:"profile_dimensions"`
}

// Profile dimensions a completed interview can set.
const (
	DimensionSkill       = "skill"
	DimensionExperience  = "experience"
	DimensionPersonality = "personality"
)

// AccuracyConfig holds the validation aggregation constants.
type AccuracyConfig struct {
	Tolerance     float64  `mapstructure:"tolerance"`
	DefaultPeriod int      `mapstructure:"default_period"`
	MaxPeriod     int      `mapstructure:"max_period"`
	Categories    []string `mapstructure:"categories"`
}

// DefaultCategoryKeywords returns the built-in category keyword table.
func DefaultCategoryKeywords() []CategoryKeywords {
	return []CategoryKeywords{
		{Category: "technology", Keywords: []string{"technical", "programming", "coding", "computer"}},
		{Category: "marketing", Keywords: []string{"creative", "communication", "social", "design"}},
		{Category: "business", Keywords: []string{"leadership", "analytical", "strategic", "management"}},
		{Category: "sales", Keywords: []string{"communication", "persuasive", "relationship", "goal-oriented"}},
		{Category: "design", Keywords: []string{"creative", "visual", "artistic", "innovation"}},
		{Category: "finance", Keywords: []string{"analytical", "detail-oriented", "mathematical", "precise"}},
	}
}

// DefaultProfileDimensions returns the built-in category mapping. Each
// dimension also accepts its own name as a category.
func DefaultProfileDimensions() map[string][]string {
	return map[string][]string{
		DimensionSkill:       {"skill", "technical", "coding", "problem_solving", "analytical"},
		DimensionExperience:  {"experience", "leadership", "projects", "background"},
		DimensionPersonality: {"personality", "behavioral", "teamwork", "communication", "motivation"},
	}
}

// DefaultAccuracyCategories returns the fixed category set reported by metrics.
func DefaultAccuracyCategories() []string {
	return []string{
		"business_finance",
		"technology_engineering",
		"education_nonprofit",
		"healthcare_sciences",
		"creative_media",
	}
}

// DefaultScoring returns the scoring constants with their built-in values.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		NeutralPrior:      70,
		HighThreshold:     75,
		ModerateThreshold: 50,
		BonusCap:          25,
		InterestBonus:     15,
		TagBonusPerMatch:  2,
		TagBonusCap:       10,
		KeywordBonus:      3,
		StrengthThreshold: 75,
		ImproveThreshold:  60,
		MaxInterviewTags:  10,
		CategoryKeywords:  DefaultCategoryKeywords(),
		ProfileDimensions: DefaultProfileDimensions(),
	}
}

// DefaultAccuracy returns the accuracy constants with their built-in values.
func DefaultAccuracy() AccuracyConfig {
	return AccuracyConfig{
		Tolerance:     10,
		DefaultPeriod: 30,
		MaxPeriod:     365,
		Categories:    DefaultAccuracyCategories(),
	}
}

func setScoringDefaults(v *viper.Viper) {
	s := DefaultScoring()
	v.SetDefault("scoring.neutral_prior", s.NeutralPrior)
	v.SetDefault("scoring.high_threshold", s.HighThreshold)
	v.SetDefault("scoring.moderate_threshold", s.ModerateThreshold)
	v.SetDefault("scoring.bonus_cap", s.BonusCap)
	v.SetDefault("scoring.interest_bonus", s.InterestBonus)
	v.SetDefault("scoring.tag_bonus_per_match", s.TagBonusPerMatch)
	v.SetDefault("scoring.tag_bonus_cap", s.TagBonusCap)
	v.SetDefault("scoring.keyword_bonus", s.KeywordBonus)
	v.SetDefault("scoring.strength_threshold", s.StrengthThreshold)
	v.SetDefault("scoring.improve_threshold", s.ImproveThreshold)
	v.SetDefault("scoring.max_interview_tags", s.MaxInterviewTags)

	a := DefaultAccuracy()
	v.SetDefault("accuracy.tolerance", a.Tolerance)
	v.SetDefault("accuracy.default_period", a.DefaultPeriod)
	v.SetDefault("accuracy.max_period", a.MaxPeriod)
	v.SetDefault("accuracy.categories", a.Categories)
}

// applyDefaults fills the list-valued settings viper cannot default cleanly.
// A profile dimension missing from the config keeps its default categories.
func (s *ScoringConfig) applyDefaults() {
	if len(s.CategoryKeywords) == 0 {
		s.CategoryKeywords = DefaultCategoryKeywords()
	}
	if s.ProfileDimensions == nil {
		s.ProfileDimensions = make(map[string][]string)
	}
	for dim, categories := range DefaultProfileDimensions() {
		if _, ok := s.ProfileDimensions[dim]; !ok {
			s.ProfileDimensions[dim] = categories
		}
	}
}

func (a *AccuracyConfig) applyDefaults() {
	if len(a.Categories) == 0 {
		a.Categories = DefaultAccuracyCategories()
	}
}

// Validate checks the scoring constants for internal consistency.
func (s ScoringConfig) Validate() error {
	if s.NeutralPrior < 0 || s.NeutralPrior > 100 {
		return fmt.Errorf("config error: 'scoring.neutral_prior' must be within [0,100], got %v", s.NeutralPrior)
	}
	if s.ModerateThreshold > s.HighThreshold {
		return errors.New("config error: 'scoring.moderate_threshold' must not exceed 'scoring.high_threshold'")
	}
	if s.BonusCap < 0 || s.InterestBonus < 0 || s.TagBonusPerMatch < 0 || s.TagBonusCap < 0 || s.KeywordBonus < 0 {
		return errors.New("config error: scoring bonuses must be non-negative")
	}
	if s.MaxInterviewTags < 1 {
		return errors.New("config error: 'scoring.max_interview_tags' must be at least 1")
	}
	for _, ck := range s.CategoryKeywords {
		if ck.Category == "" {
			return errors.New("config error: category keyword entries need a category")
		}
	}
	owner := make(map[string]string)
	for dim, categories := range s.ProfileDimensions {
		switch dim {
		case DimensionSkill, DimensionExperience, DimensionPersonality:
		default:
			return fmt.Errorf("config error: unknown profile dimension %q", dim)
		}
		for _, c := range categories {
			c = strings.ToLower(strings.TrimSpace(c))
			if prev, ok := owner[c]; ok && prev != dim {
				return fmt.Errorf("config error: category %q is mapped to both %s and %s", c, prev, dim)
			}
			owner[c] = dim
		}
	}
	return nil
}

// Validate checks the accuracy constants.
func (a AccuracyConfig) Validate() error {
	if a.Tolerance < 0 {
		return errors.New("config error: 'accuracy.tolerance' must be non-negative")
	}
	if a.MaxPeriod < 1 {
		return errors.New("config error: 'accuracy.max_period' must be at least 1")
	}
	if a.DefaultPeriod < 1 || a.DefaultPeriod > a.MaxPeriod {
		return fmt.Errorf("config error: 'accuracy.default_period' must be within [1,%d]", a.MaxPeriod)
	}
	return nil
}

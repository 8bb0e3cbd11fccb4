package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CandidateScoreProfile is the derived per-candidate view read by matching.
type CandidateScoreProfile struct {
	CandidateID          uuid.UUID  `json:"candidateId"`
	SkillScore           *float64   `json:"skillScore"`
	ExperienceScore      *float64   `json:"experienceScore"`
	PersonalityScore     *float64   `json:"personalityScore"`
	OverallMatchScore    *float64   `json:"overallMatchScore"`
	InterviewTags        []string   `json:"interviewTags"`
	CareerInterests      []string   `json:"careerInterests"`
	InterviewCompletedAt *time.Time `json:"interviewCompletedAt,omitempty"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// HasCompletedInterview reports whether at least one interview fed this profile.
func (p *CandidateScoreProfile) HasCompletedInterview() bool {
	return p != nil && p.InterviewCompletedAt != nil
}

// ProfileUpdate is merged into a candidate's score profile on completion.
// Nil scores leave the stored value untouched.
type ProfileUpdate struct {
	SkillScore        *float64
	ExperienceScore   *float64
	PersonalityScore  *float64
	OverallMatchScore *float64
	InterviewTags     []string
	MaxTags           int
}

// Position is a read-only row of the open-position catalog.
type Position struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Active      bool      `json:"active"`
}

// MatchLevel is the tier of a match score.
type MatchLevel string

// Match tiers.
const (
	MatchLow      MatchLevel = "low"
	MatchModerate MatchLevel = "moderate"
	MatchHigh     MatchLevel = "high"
)

// MatchFactors is the auditable breakdown behind a match score.
type MatchFactors struct {
	BaseScore           float64  `json:"baseScore"`
	BaseFromInterview   bool     `json:"baseFromInterview"`
	CategoryBonus       float64  `json:"categoryBonus"`
	InterestBonus       float64  `json:"interestBonus"`
	TagBonus            float64  `json:"tagBonus"`
	KeywordBonus        float64  `json:"keywordBonus"`
	MatchedTags         []string `json:"matchedTags,omitempty"`
	MatchedKeywords     []string `json:"matchedKeywords,omitempty"`
	SkillMatch          *float64 `json:"skillMatch"`
	ExperienceRelevance *float64 `json:"experienceRelevance"`
	PersonalityFit      *float64 `json:"personalityFit"`
	CareerInterestMatch bool     `json:"careerInterestMatch"`
}

// PersonalizedScore is the match between a candidate and one position.
type PersonalizedScore struct {
	CandidateID  uuid.UUID    `json:"candidateId"`
	PositionID   uuid.UUID    `json:"positionId"`
	MatchScore   float64      `json:"matchScore"`
	MatchLevel   MatchLevel   `json:"matchLevel"`
	Factors      MatchFactors `json:"factors"`
	CalculatedAt time.Time    `json:"calculatedAt"`
}

// MergeTags appends incoming tags to existing ones, case-insensitively
// deduplicated, keeping at most limit entries (0 means no limit). Existing tags win.
func MergeTags(existing, incoming []string, limit int) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, list := range [][]string{existing, incoming} {
		for _, tag := range list {
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" || seen[key] {
				continue
			}
			if limit > 0 && len(out) >= limit {
				return out
			}
			seen[key] = true
			out = append(out, strings.TrimSpace(tag))
		}
	}
	return out
}

package localstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/types"
	"gorm.io/datatypes"
)

type sessionRow struct {
	ID            uuid.UUID `gorm:"type:text;primaryKey"`
	CandidateID   uuid.UUID `gorm:"type:text;not null;index:idx_sessions_candidate"`
	InterviewType string    `gorm:"not null"`
	Status        string    `gorm:"not null;default:in_progress"`
	StartedAt     time.Time `gorm:"not null;index:idx_sessions_candidate"`
	CompletedAt   *time.Time
	Title         *string
	Category      *string
	Subcategory   *string
	Difficulty    *string
	OverallScore  *float64
	SkillScores   datatypes.JSONType[map[string]float64]
	Strengths     datatypes.JSONSlice[string]
	Improvements  datatypes.JSONSlice[string]
	Transcript    datatypes.JSONType[types.TranscriptMeta]
}

func (sessionRow) TableName() string { return "interview_sessions" }

func newSessionRow(candidateID uuid.UUID, meta types.SessionMetadata, startedAt time.Time) sessionRow {
	return sessionRow{
		ID:            uuid.New(),
		CandidateID:   candidateID,
		InterviewType: meta.InterviewType,
		Status:        string(types.SessionInProgress),
		StartedAt:     startedAt.UTC(),
		Title:         nullable(meta.Title),
		Category:      nullable(meta.Category),
		Subcategory:   nullable(meta.Subcategory),
		Difficulty:    nullable(meta.Difficulty),
		Strengths:     datatypes.JSONSlice[string]{},
		Improvements:  datatypes.JSONSlice[string]{},
		Transcript:    datatypes.NewJSONType(types.EmptyTranscript()),
	}
}

func (r sessionRow) toSession() *types.InterviewSession {
	s := &types.InterviewSession{
		ID:            r.ID,
		CandidateID:   r.CandidateID,
		InterviewType: r.InterviewType,
		Status:        types.SessionStatus(r.Status),
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		Title:         r.Title,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Difficulty:    r.Difficulty,
		OverallScore:  r.OverallScore,
		SkillScores:   r.SkillScores.Data(),
		Strengths:     []string(r.Strengths),
		Improvements:  []string(r.Improvements),
		Transcript:    r.Transcript.Data(),
	}
	if s.Transcript.CategoriesCovered == nil {
		s.Transcript.CategoriesCovered = []string{}
	}
	if s.Transcript.FollowUpCounts == nil {
		s.Transcript.FollowUpCounts = map[string]int{}
	}
	return s
}

type responseRow struct {
	ID           uuid.UUID `gorm:"type:text;primaryKey"`
	SessionID    uuid.UUID `gorm:"type:text;not null;index"`
	QuestionText string    `gorm:"not null"`
	ResponseText string
	Category     string
	Score        *float64
	Analysis     string
	AskedAt      time.Time
}

func (responseRow) TableName() string { return "interview_responses" }

type profileRow struct {
	CandidateID          uuid.UUID `gorm:"type:text;primaryKey"`
	SkillScore           *float64
	ExperienceScore      *float64
	PersonalityScore     *float64
	OverallMatchScore    *float64
	InterviewTags        datatypes.JSONSlice[string]
	CareerInterests      datatypes.JSONSlice[string]
	InterviewCompletedAt *time.Time
	UpdatedAt            time.Time `gorm:"autoUpdateTime:false"`
}

func (profileRow) TableName() string { return "candidate_score_profiles" }

type positionRow struct {
	ID          uuid.UUID `gorm:"type:text;primaryKey"`
	Title       string
	Description string
	Category    string
	IsActive    bool `gorm:"index"`
}

func (positionRow) TableName() string { return "positions" }

type matchScoreRow struct {
	CandidateID  uuid.UUID `gorm:"type:text;primaryKey"`
	PositionID   uuid.UUID `gorm:"type:text;primaryKey"`
	MatchScore   float64
	MatchLevel   string
	Factors      datatypes.JSONType[types.MatchFactors]
	CalculatedAt time.Time
}

func (matchScoreRow) TableName() string { return "personalized_scores" }

type validationRow struct {
	ID                   uuid.UUID  `gorm:"type:text;primaryKey"`
	CandidateID          uuid.UUID  `gorm:"type:text;index"`
	SessionID            *uuid.UUID `gorm:"type:text"`
	AIScore              float64
	HumanScore           *float64
	ScoreType            string
	Category             string `gorm:"index"`
	ConfidenceDifference *float64
	IsValidated          bool
	AccuracyRating       *int
	FeedbackNotes        string
	ValidatorID          uuid.UUID `gorm:"type:text"`
	CreatedAt            time.Time `gorm:"index"`
}

func (validationRow) TableName() string { return "accuracy_validations" }

// snapshotRow keys days as YYYY-MM-DD text so range filters compare lexically.
type snapshotRow struct {
	MetricDate                  string `gorm:"primaryKey"`
	Category                    string `gorm:"primaryKey"`
	TotalValidations            int
	AccuracyPercentage          float64
	AverageConfidenceDifference float64
}

func (snapshotRow) TableName() string { return "accuracy_metrics" }

type feedbackRow struct {
	ID           uuid.UUID `gorm:"type:text;primaryKey"`
	CandidateID  uuid.UUID `gorm:"type:text;index"`
	FeedbackType string
	Rating       int
	FeedbackText string
	Category     string
	CreatedAt    time.Time `gorm:"index"`
}

func (feedbackRow) TableName() string { return "assessment_feedback" }

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

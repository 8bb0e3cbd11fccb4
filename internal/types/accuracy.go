package types

import (
	"time"

	"github.com/google/uuid"
)

// ScoreType is the assessment dimension a validation compares.
type ScoreType string

// Score types accepted by the validation stream.
const (
	ScoreTypeSkill       ScoreType = "skill"
	ScoreTypeExperience  ScoreType = "experience"
	ScoreTypePersonality ScoreType = "personality"
	ScoreTypeOverall     ScoreType = "overall"
)

// ScoreTypes lists every score type in report order.
var ScoreTypes = []ScoreType{ScoreTypeSkill, ScoreTypeExperience, ScoreTypePersonality, ScoreTypeOverall}

// IsValid reports whether t is a known score type.
func (t ScoreType) IsValid() bool {
	for _, known := range ScoreTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ValidationRecord is one immutable AI-vs-human comparison.
type ValidationRecord struct {
	ID                   uuid.UUID  `json:"id"`
	CandidateID          uuid.UUID  `json:"candidateId"`
	SessionID            *uuid.UUID `json:"sessionId,omitempty"`
	AIScore              float64    `json:"aiScore"`
	HumanScore           *float64   `json:"humanScore"`
	ScoreType            ScoreType  `json:"scoreType"`
	Category             string     `json:"category"`
	ConfidenceDifference *float64   `json:"confidenceDifference"`
	IsValidated          bool       `json:"isValidated"`
	AccuracyRating       *int       `json:"accuracyRating,omitempty"`
	FeedbackNotes        string     `json:"feedbackNotes,omitempty"`
	ValidatorID          uuid.UUID  `json:"validatorId"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// ValidationFilter narrows a validation listing. Zero values match everything.
type ValidationFilter struct {
	CandidateID *uuid.UUID
	Category    string
	Since       time.Time
	Until       time.Time
	Limit       int
}

// MetricSnapshot is one row of the pre-aggregated accuracy time series.
// An empty Category marks the overall row for the day.
type MetricSnapshot struct {
	MetricDate                  time.Time `json:"metricDate"`
	Category                    string    `json:"category,omitempty"`
	TotalValidations            int       `json:"totalValidations"`
	AccuracyPercentage          float64   `json:"accuracyPercentage"`
	AverageConfidenceDifference float64   `json:"averageConfidenceDifference"`
}

// FeedbackEntry is one qualitative rating of the assessment experience.
type FeedbackEntry struct {
	ID           uuid.UUID `json:"id"`
	CandidateID  uuid.UUID `json:"candidateId"`
	FeedbackType string    `json:"feedbackType"`
	Rating       int       `json:"rating"`
	FeedbackText string    `json:"feedbackText,omitempty"`
	Category     string    `json:"category,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AccuracyBreakdown is the accuracy ratio for one slice of validations.
type AccuracyBreakdown struct {
	Accuracy          float64 `json:"accuracy"`
	TotalValidations  int     `json:"totalValidations"`
	AccurateCount     int     `json:"accurateCount"`
	AverageDifference float64 `json:"averageDifference"`
}

// TrendPoint is one day of the accuracy trend.
type TrendPoint struct {
	Date              string  `json:"date"`
	Accuracy          float64 `json:"accuracy"`
	TotalValidations  int     `json:"totalValidations"`
	AverageDifference float64 `json:"averageDifference"`
}

// FeedbackStats summarises the feedback stream.
type FeedbackStats struct {
	TotalFeedback      int         `json:"totalFeedback"`
	AverageRating      float64     `json:"averageRating"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

// AccuracyReport is the time-windowed view returned by the metrics operation.
type AccuracyReport struct {
	Period            int                             `json:"period"`
	Category          string                          `json:"category,omitempty"`
	OverallAccuracy   float64                         `json:"overallAccuracy"`
	TotalValidations  int                             `json:"totalValidations"`
	AccurateCount     int                             `json:"accurateCount"`
	AverageDifference float64                         `json:"averageDifference"`
	ByCategory        map[string]AccuracyBreakdown    `json:"byCategory"`
	ByScoreType       map[ScoreType]AccuracyBreakdown `json:"byScoreType"`
	Trend             []TrendPoint                    `json:"trend"`
	Feedback          FeedbackStats                   `json:"feedback"`
}

package types

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of an interview session.
type SessionStatus string

// Session states. Restart deletes a session outright, so there is no
// "abandoned" state.
const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// Defaults applied to session metadata the caller leaves blank.
const (
	DefaultSessionCategory   = "General"
	DefaultSessionDifficulty = "medium"
	DefaultResponseCategory  = "general"
)

// InterviewSession is one attempt at an interview of a given type by a candidate.
// Metadata and score fields are pointers: deployments whose schema lacks the
// optional columns return them unset.
type InterviewSession struct {
	ID            uuid.UUID          `json:"id"`
	CandidateID   uuid.UUID          `json:"candidateId"`
	InterviewType string             `json:"interviewType"`
	Status        SessionStatus      `json:"status"`
	StartedAt     time.Time          `json:"startedAt"`
	CompletedAt   *time.Time         `json:"completedAt,omitempty"`
	Title         *string            `json:"title,omitempty"`
	Category      *string            `json:"category,omitempty"`
	Subcategory   *string            `json:"subcategory,omitempty"`
	Difficulty    *string            `json:"difficulty,omitempty"`
	OverallScore  *float64           `json:"overallScore,omitempty"`
	SkillScores   map[string]float64 `json:"skillScores,omitempty"`
	Strengths     []string           `json:"strengths,omitempty"`
	Improvements  []string           `json:"improvements,omitempty"`
	Transcript    TranscriptMeta     `json:"transcript"`
}

// TranscriptMeta summarises the conversation; restart zeroes it.
type TranscriptMeta struct {
	TotalTurns        int            `json:"totalTurns"`
	TotalDuration     int            `json:"totalDuration"`
	CategoriesCovered []string       `json:"categoriesCovered"`
	FollowUpCounts    map[string]int `json:"followUpCounts"`
}

// EmptyTranscript returns zeroed transcript metadata.
func EmptyTranscript() TranscriptMeta {
	return TranscriptMeta{
		CategoriesCovered: []string{},
		FollowUpCounts:    map[string]int{},
	}
}

// TranscriptOf summarises a set of responses. Every response after the first
// in a category counts as a follow-up in that category.
func TranscriptOf(responses []InterviewResponse, duration time.Duration) TranscriptMeta {
	meta := EmptyTranscript()
	meta.TotalTurns = len(responses)
	meta.TotalDuration = int(duration.Seconds())
	seen := make(map[string]bool)
	for _, r := range responses {
		category := r.Category
		if category == "" {
			category = DefaultResponseCategory
		}
		if seen[category] {
			meta.FollowUpCounts[category]++
			continue
		}
		seen[category] = true
		meta.CategoriesCovered = append(meta.CategoriesCovered, category)
	}
	sort.Strings(meta.CategoriesCovered)
	return meta
}

// SessionMetadata describes a session to create.
type SessionMetadata struct {
	InterviewType string
	Title         string
	Category      string
	Subcategory   string
	Difficulty    string
}

// WithDefaults fills blank fields the way session creation expects.
func (m SessionMetadata) WithDefaults() SessionMetadata {
	if m.Title == "" {
		m.Title = m.InterviewType
	}
	if m.Category == "" {
		m.Category = DefaultSessionCategory
	}
	if m.Difficulty == "" {
		m.Difficulty = DefaultSessionDifficulty
	}
	return m
}

// MetadataOf extracts the creation metadata of an existing session.
func MetadataOf(s *InterviewSession) SessionMetadata {
	m := SessionMetadata{InterviewType: s.InterviewType}
	if s.Title != nil {
		m.Title = *s.Title
	}
	if s.Category != nil {
		m.Category = *s.Category
	}
	if s.Subcategory != nil {
		m.Subcategory = *s.Subcategory
	}
	if s.Difficulty != nil {
		m.Difficulty = *s.Difficulty
	}
	return m.WithDefaults()
}

// InterviewResponse is one question/answer pair owned by a session.
type InterviewResponse struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"sessionId"`
	QuestionText string    `json:"questionText"`
	ResponseText string    `json:"responseText"`
	Category     string    `json:"category"`
	Score        *float64  `json:"score"`
	Analysis     string    `json:"analysis,omitempty"`
	AskedAt      time.Time `json:"askedAt"`
}

// Completion carries everything written when a session completes. Stores
// apply it in a single atomic unit guarded by status = in_progress.
type Completion struct {
	SessionID    uuid.UUID
	CandidateID  uuid.UUID
	CompletedAt  time.Time
	OverallScore float64
	SkillScores  map[string]float64
	Strengths    []string
	Improvements []string
	Responses    []InterviewResponse
	Transcript   TranscriptMeta
	Profile      ProfileUpdate
}

// Rescore carries a fresh scoring of an already completed session. Stores
// apply it in a single atomic unit guarded by status = completed: session
// scores, each response's score and analysis (matched by ID), and the
// candidate profile. CompletedAt is the session's original completion time.
type Rescore struct {
	SessionID    uuid.UUID
	CandidateID  uuid.UUID
	CompletedAt  time.Time
	OverallScore float64
	SkillScores  map[string]float64
	Strengths    []string
	Improvements []string
	Responses    []InterviewResponse
	Profile      ProfileUpdate
}

package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// StartSessionRequest starts or resumes an interview of one type.
type StartSessionRequest struct {
	CandidateID   *uuid.UUID `json:"candidateId,omitempty"`
	InterviewType string     `json:"interviewType" validate:"required,max=100"`
	Title         string     `json:"title,omitempty" validate:"max=200"`
	Category      string     `json:"category,omitempty" validate:"max=100"`
	Subcategory   string     `json:"subcategory,omitempty" validate:"max=100"`
	Difficulty    string     `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
}

// Metadata converts the request into session creation metadata.
func (r *StartSessionRequest) Metadata() SessionMetadata {
	return SessionMetadata{
		InterviewType: strings.TrimSpace(r.InterviewType),
		Title:         strings.TrimSpace(r.Title),
		Category:      strings.TrimSpace(r.Category),
		Subcategory:   strings.TrimSpace(r.Subcategory),
		Difficulty:    strings.TrimSpace(r.Difficulty),
	}.WithDefaults()
}

// RestartSessionRequest optionally names the candidate restarting the session.
type RestartSessionRequest struct {
	CandidateID *uuid.UUID `json:"candidateId,omitempty"`
}

// ResponseInput is one answered question submitted at completion.
type ResponseInput struct {
	QuestionText string     `json:"questionText" validate:"required"`
	ResponseText string     `json:"responseText"`
	Category     string     `json:"category,omitempty" validate:"max=100"`
	AskedAt      *time.Time `json:"askedAt,omitempty"`
}

// CompleteSessionRequest carries the final responses of a session.
type CompleteSessionRequest struct {
	Responses []ResponseInput `json:"responses" validate:"dive"`
}

// RecomputeRequest triggers match-score recomputation for a candidate.
type RecomputeRequest struct {
	CandidateID *uuid.UUID `json:"candidateId,omitempty"`
}

// RecordValidationRequest submits a human score against an AI score.
type RecordValidationRequest struct {
	CandidateID    uuid.UUID  `json:"candidateId" validate:"required"`
	SessionID      *uuid.UUID `json:"sessionId,omitempty"`
	AIScore        *float64   `json:"aiScore" validate:"required,gte=0,lte=100"`
	HumanScore     *float64   `json:"humanScore,omitempty" validate:"omitempty,gte=0,lte=100"`
	ScoreType      ScoreType  `json:"scoreType" validate:"required,oneof=skill experience personality overall"`
	Category       string     `json:"category" validate:"required,max=100"`
	AccuracyRating *int       `json:"accuracyRating,omitempty" validate:"omitempty,min=1,max=5"`
	FeedbackNotes  string     `json:"feedbackNotes,omitempty" validate:"max=2000"`
}

// FeedbackRequest submits a qualitative rating.
type FeedbackRequest struct {
	FeedbackType string `json:"feedbackType" validate:"required,max=100"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	FeedbackText string `json:"feedbackText,omitempty" validate:"max=2000"`
	Category     string `json:"category,omitempty" validate:"max=100"`
}

// Validate validates the StartSessionRequest using the validator.
func (r *StartSessionRequest) Validate() error {
	if strings.TrimSpace(r.InterviewType) == "" {
		return &ValidationError{Field: "interviewType", Message: "is required"}
	}
	return toValidationError(validate.Struct(r))
}

// Validate validates the CompleteSessionRequest using the validator.
func (r *CompleteSessionRequest) Validate() error {
	return toValidationError(validate.Struct(r))
}

// Validate validates the RecordValidationRequest using the validator.
func (r *RecordValidationRequest) Validate() error {
	return toValidationError(validate.Struct(r))
}

// Validate validates the FeedbackRequest using the validator.
func (r *FeedbackRequest) Validate() error {
	return toValidationError(validate.Struct(r))
}

// toValidationError reports the first failing field as a ValidationError.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
		}
	}
	return &ValidationError{Message: err.Error()}
}

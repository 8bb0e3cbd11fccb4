package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func TestStartSessionRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request StartSessionRequest
		field   string
	}{
		{name: "valid", request: StartSessionRequest{InterviewType: "behavioral"}},
		{name: "valid with difficulty", request: StartSessionRequest{InterviewType: "technical", Difficulty: "hard"}},
		{name: "missing type", request: StartSessionRequest{}, field: "interviewType"},
		{name: "blank type", request: StartSessionRequest{InterviewType: "   "}, field: "interviewType"},
		{name: "unknown difficulty", request: StartSessionRequest{InterviewType: "technical", Difficulty: "extreme"}, field: "difficulty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestStartSessionRequest_MetadataDefaults(t *testing.T) {
	req := StartSessionRequest{InterviewType: " mock_technical "}
	meta := req.Metadata()

	assert.Equal(t, "mock_technical", meta.InterviewType)
	assert.Equal(t, "mock_technical", meta.Title)
	assert.Equal(t, DefaultSessionCategory, meta.Category)
	assert.Equal(t, "", meta.Subcategory)
	assert.Equal(t, DefaultSessionDifficulty, meta.Difficulty)
}

func TestMetadataOf_FillsMissingColumns(t *testing.T) {
	title := "Mock"
	s := &InterviewSession{InterviewType: "mock", Title: &title}

	meta := MetadataOf(s)
	assert.Equal(t, "Mock", meta.Title)
	assert.Equal(t, DefaultSessionCategory, meta.Category)
	assert.Equal(t, DefaultSessionDifficulty, meta.Difficulty)
}

func TestRecordValidationRequest_Validate(t *testing.T) {
	candidate := uuid.New()

	tests := []struct {
		name    string
		request RecordValidationRequest
		field   string
	}{
		{
			name: "valid with human score",
			request: RecordValidationRequest{
				CandidateID: candidate, AIScore: floatPtr(72), HumanScore: floatPtr(65),
				ScoreType: ScoreTypeSkill, Category: "technology_engineering",
			},
		},
		{
			name: "valid zero ai score",
			request: RecordValidationRequest{
				CandidateID: candidate, AIScore: floatPtr(0),
				ScoreType: ScoreTypeOverall, Category: "creative_media",
			},
		},
		{
			name: "missing ai score",
			request: RecordValidationRequest{
				CandidateID: candidate, ScoreType: ScoreTypeSkill, Category: "x",
			},
			field: "aiScore",
		},
		{
			name: "human score out of range",
			request: RecordValidationRequest{
				CandidateID: candidate, AIScore: floatPtr(50), HumanScore: floatPtr(120),
				ScoreType: ScoreTypeSkill, Category: "x",
			},
			field: "humanScore",
		},
		{
			name: "unknown score type",
			request: RecordValidationRequest{
				CandidateID: candidate, AIScore: floatPtr(50), ScoreType: "charisma", Category: "x",
			},
			field: "scoreType",
		},
		{
			name: "rating out of range",
			request: RecordValidationRequest{
				CandidateID: candidate, AIScore: floatPtr(50), ScoreType: ScoreTypeSkill,
				Category: "x", AccuracyRating: intPtr(6),
			},
			field: "accuracyRating",
		},
		{
			name: "missing candidate",
			request: RecordValidationRequest{
				AIScore: floatPtr(50), ScoreType: ScoreTypeSkill, Category: "x",
			},
			field: "candidateId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestFeedbackRequest_Validate(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		req := FeedbackRequest{FeedbackType: "interview", Rating: rating}
		assert.NoError(t, req.Validate())
	}
	for _, rating := range []int{0, 6, -1} {
		req := FeedbackRequest{FeedbackType: "interview", Rating: rating}
		assert.Error(t, req.Validate(), "rating %d", rating)
	}
}

func TestCompleteSessionRequest_ValidateDivesIntoResponses(t *testing.T) {
	req := CompleteSessionRequest{Responses: []ResponseInput{
		{QuestionText: "Tell me about yourself", ResponseText: "..."},
		{ResponseText: "orphan answer"},
	}}
	var vErr *ValidationError
	require.ErrorAs(t, req.Validate(), &vErr)
	assert.Equal(t, "questionText", vErr.Field)

	empty := CompleteSessionRequest{}
	assert.NoError(t, empty.Validate())
}

func TestCompleteSessionRequest_JSON(t *testing.T) {
	raw := `{"responses":[{"questionText":"Q1","responseText":"A1","category":"skill"}]}`
	var req CompleteSessionRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	require.Len(t, req.Responses, 1)
	assert.Equal(t, "skill", req.Responses[0].Category)
}

package localstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// applyProfileUpdate merges a completion into the profile inside tx.
func applyProfileUpdate(tx *gorm.DB, candidateID uuid.UUID, u types.ProfileUpdate, at time.Time) error {
	var row profileRow
	err := tx.Where("candidate_id = ?", candidateID).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	row.CandidateID = candidateID
	if u.SkillScore != nil {
		row.SkillScore = u.SkillScore
	}
	if u.ExperienceScore != nil {
		row.ExperienceScore = u.ExperienceScore
	}
	if u.PersonalityScore != nil {
		row.PersonalityScore = u.PersonalityScore
	}
	if u.OverallMatchScore != nil {
		row.OverallMatchScore = u.OverallMatchScore
	}
	row.InterviewTags = types.MergeTags(row.InterviewTags, u.InterviewTags, u.MaxTags)
	if row.CareerInterests == nil {
		row.CareerInterests = datatypes.JSONSlice[string]{}
	}
	row.InterviewCompletedAt = &at
	row.UpdatedAt = at
	return tx.Save(&row).Error
}

// GetScoreProfile retrieves a candidate's profile, or nil if none exists.
func (s *Store) GetScoreProfile(ctx context.Context, candidateID uuid.UUID) (*types.CandidateScoreProfile, error) {
	var row profileRow
	err := s.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get score profile", err)
	}
	return &types.CandidateScoreProfile{
		CandidateID:          row.CandidateID,
		SkillScore:           row.SkillScore,
		ExperienceScore:      row.ExperienceScore,
		PersonalityScore:     row.PersonalityScore,
		OverallMatchScore:    row.OverallMatchScore,
		InterviewTags:        []string(row.InterviewTags),
		CareerInterests:      []string(row.CareerInterests),
		InterviewCompletedAt: row.InterviewCompletedAt,
		UpdatedAt:            row.UpdatedAt,
	}, nil
}

// SetCareerInterests records the candidate's declared interests.
func (s *Store) SetCareerInterests(ctx context.Context, candidateID uuid.UUID, interests []string) error {
	row := profileRow{
		CandidateID:     candidateID,
		InterviewTags:   datatypes.JSONSlice[string]{},
		CareerInterests: datatypes.JSONSlice[string](nonNil(interests)),
		UpdatedAt:       time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "candidate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"career_interests", "updated_at"}),
	}).Create(&row).Error
	return wrap("set career interests", err)
}

// UpsertPosition creates or replaces a catalog row.
func (s *Store) UpsertPosition(ctx context.Context, p types.Position) error {
	row := positionRow{ID: p.ID, Title: p.Title, Description: p.Description, Category: p.Category, IsActive: p.Active}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "category", "is_active"}),
	}).Create(&row).Error
	return wrap("upsert position", err)
}

// ListActivePositions retrieves every active catalog row.
func (s *Store) ListActivePositions(ctx context.Context) ([]types.Position, error) {
	var rows []positionRow
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, wrap("list positions", err)
	}
	out := make([]types.Position, len(rows))
	for i, r := range rows {
		out[i] = types.Position{ID: r.ID, Title: r.Title, Description: r.Description, Category: r.Category, Active: r.IsActive}
	}
	return out, nil
}

// UpsertMatchScore writes the score for (candidate, position).
func (s *Store) UpsertMatchScore(ctx context.Context, score types.PersonalizedScore) error {
	row := matchScoreRow{
		CandidateID:  score.CandidateID,
		PositionID:   score.PositionID,
		MatchScore:   score.MatchScore,
		MatchLevel:   string(score.MatchLevel),
		Factors:      datatypes.NewJSONType(score.Factors),
		CalculatedAt: score.CalculatedAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "candidate_id"}, {Name: "position_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"match_score", "match_level", "factors", "calculated_at"}),
	}).Create(&row).Error
	return wrap("upsert match score", err)
}

// ListMatchScores retrieves the candidate's scores, best first.
func (s *Store) ListMatchScores(ctx context.Context, candidateID uuid.UUID) ([]types.PersonalizedScore, error) {
	var rows []matchScoreRow
	if err := s.db.WithContext(ctx).Where("candidate_id = ?", candidateID).
		Order("match_score DESC").Order("position_id").Find(&rows).Error; err != nil {
		return nil, wrap("list match scores", err)
	}
	out := make([]types.PersonalizedScore, len(rows))
	for i, r := range rows {
		out[i] = types.PersonalizedScore{
			CandidateID:  r.CandidateID,
			PositionID:   r.PositionID,
			MatchScore:   r.MatchScore,
			MatchLevel:   types.MatchLevel(r.MatchLevel),
			Factors:      r.Factors.Data(),
			CalculatedAt: r.CalculatedAt,
		}
	}
	return out, nil
}

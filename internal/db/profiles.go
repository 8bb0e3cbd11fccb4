package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/internx-match/internal/types"
)

// applyProfileUpdate merges a completion into the candidate's score profile
// inside the completion transaction. Nil scores keep the stored value.
func applyProfileUpdate(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID, u types.ProfileUpdate, at time.Time) error {
	var existing []string
	err := tx.QueryRow(ctx,
		`SELECT interview_tags FROM candidate_score_profiles WHERE candidate_id = $1 FOR UPDATE`,
		candidateID).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return types.NewStoreError("lock score profile", err)
	}
	tags := types.MergeTags(existing, u.InterviewTags, u.MaxTags)

	_, err = tx.Exec(ctx,
		`INSERT INTO candidate_score_profiles
		   (candidate_id, skill_score, experience_score, personality_score, overall_match_score,
		    interview_tags, interview_completed_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (candidate_id) DO UPDATE SET
		   skill_score = COALESCE(EXCLUDED.skill_score, candidate_score_profiles.skill_score),
		   experience_score = COALESCE(EXCLUDED.experience_score, candidate_score_profiles.experience_score),
		   personality_score = COALESCE(EXCLUDED.personality_score, candidate_score_profiles.personality_score),
		   overall_match_score = COALESCE(EXCLUDED.overall_match_score, candidate_score_profiles.overall_match_score),
		   interview_tags = EXCLUDED.interview_tags,
		   interview_completed_at = EXCLUDED.interview_completed_at,
		   updated_at = EXCLUDED.updated_at`,
		candidateID, u.SkillScore, u.ExperienceScore, u.PersonalityScore, u.OverallMatchScore,
		nonNil(tags), at)
	if err != nil {
		return types.NewStoreError("upsert score profile", err)
	}
	return nil
}

// GetScoreProfile retrieves a candidate's score profile
func (db *DB) GetScoreProfile(ctx context.Context, candidateID uuid.UUID) (*types.CandidateScoreProfile, error) {
	var p types.CandidateScoreProfile
	err := db.pool.QueryRow(ctx,
		`SELECT candidate_id, skill_score, experience_score, personality_score, overall_match_score,
		        interview_tags, career_interests, interview_completed_at, updated_at
		 FROM candidate_score_profiles WHERE candidate_id = $1`, candidateID,
	).Scan(&p.CandidateID, &p.SkillScore, &p.ExperienceScore, &p.PersonalityScore, &p.OverallMatchScore,
		&p.InterviewTags, &p.CareerInterests, &p.InterviewCompletedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewStoreError("get score profile", err)
	}
	return &p, nil
}

// SetCareerInterests records the candidate's declared career interests,
// creating the profile row if needed.
func (db *DB) SetCareerInterests(ctx context.Context, candidateID uuid.UUID, interests []string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO candidate_score_profiles (candidate_id, career_interests, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (candidate_id) DO UPDATE SET career_interests = $2, updated_at = NOW()`,
		candidateID, nonNil(interests))
	if err != nil {
		return types.NewStoreError("set career interests", err)
	}
	return nil
}

// UpsertPosition creates or replaces a catalog row.
func (db *DB) UpsertPosition(ctx context.Context, p types.Position) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO positions (id, title, description, category, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET title = $2, description = $3, category = $4, is_active = $5`,
		p.ID, p.Title, p.Description, p.Category, p.Active)
	if err != nil {
		return types.NewStoreError("upsert position", err)
	}
	return nil
}

// ListActivePositions retrieves every active catalog row.
func (db *DB) ListActivePositions(ctx context.Context) ([]types.Position, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, description, category, is_active FROM positions WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, types.NewStoreError("list positions", err)
	}
	defer rows.Close()

	var positions []types.Position
	for rows.Next() {
		var p types.Position
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Active); err != nil {
			return nil, types.NewStoreError("scan position", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStoreError("list positions", err)
	}
	return positions, nil
}

// UpsertMatchScore writes the score for (candidate, position), replacing any
// previous row for the key.
func (db *DB) UpsertMatchScore(ctx context.Context, s types.PersonalizedScore) error {
	factors, err := json.Marshal(s.Factors)
	if err != nil {
		return fmt.Errorf("failed to encode factors: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO personalized_scores (candidate_id, position_id, match_score, match_level, factors, calculated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (candidate_id, position_id) DO UPDATE SET
		   match_score = EXCLUDED.match_score,
		   match_level = EXCLUDED.match_level,
		   factors = EXCLUDED.factors,
		   calculated_at = EXCLUDED.calculated_at`,
		s.CandidateID, s.PositionID, s.MatchScore, string(s.MatchLevel), factors, s.CalculatedAt)
	if err != nil {
		return types.NewStoreError("upsert match score", err)
	}
	return nil
}

// ListMatchScores retrieves the candidate's scores, best first.
func (db *DB) ListMatchScores(ctx context.Context, candidateID uuid.UUID) ([]types.PersonalizedScore, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT candidate_id, position_id, match_score, match_level, factors, calculated_at
		 FROM personalized_scores WHERE candidate_id = $1
		 ORDER BY match_score DESC, position_id`, candidateID)
	if err != nil {
		return nil, types.NewStoreError("list match scores", err)
	}
	defer rows.Close()

	var scores []types.PersonalizedScore
	for rows.Next() {
		var (
			s       types.PersonalizedScore
			level   string
			factors []byte
		)
		if err := rows.Scan(&s.CandidateID, &s.PositionID, &s.MatchScore, &level, &factors, &s.CalculatedAt); err != nil {
			return nil, types.NewStoreError("scan match score", err)
		}
		s.MatchLevel = types.MatchLevel(level)
		if err := json.Unmarshal(factors, &s.Factors); err != nil {
			return nil, fmt.Errorf("failed to decode factors: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStoreError("list match scores", err)
	}
	return scores, nil
}

package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const activeStatus = string(types.SessionInProgress)

// StartSession inserts an in_progress session unless one is already active,
// then returns the active one.
func (s *Store) StartSession(ctx context.Context, candidateID uuid.UUID, meta types.SessionMetadata, startedAt time.Time) (*types.InterviewSession, bool, error) {
	row := newSessionRow(candidateID, meta, startedAt)
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, false, wrap("insert session", res.Error)
	}
	if res.RowsAffected == 1 {
		return row.toSession(), true, nil
	}

	var active sessionRow
	err := s.db.WithContext(ctx).
		Where("candidate_id = ? AND interview_type = ? AND status = ?", candidateID, meta.InterviewType, activeStatus).
		First(&active).Error
	if err != nil {
		return nil, false, wrap("get active session", err)
	}
	return active.toSession(), false, nil
}

// GetSession retrieves a session by ID, or nil if none exists.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*types.InterviewSession, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get session", err)
	}
	return row.toSession(), nil
}

// RestartSession replaces the session with a fresh one in one transaction.
func (s *Store) RestartSession(ctx context.Context, old *types.InterviewSession, startedAt time.Time) (*types.InterviewSession, error) {
	fresh := newSessionRow(old.CandidateID, types.MetadataOf(old), startedAt)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&sessionRow{}).Where("id = ?", old.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: session %s", types.ErrNotFound, old.ID)
		}

		doomed := tx.Model(&sessionRow{}).Select("id").
			Where("id = ? OR (candidate_id = ? AND interview_type = ? AND status = ?)",
				old.ID, old.CandidateID, old.InterviewType, activeStatus)
		var ids []uuid.UUID
		if err := doomed.Pluck("id", &ids).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id IN ?", ids).Delete(&responseRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&sessionRow{}).Error; err != nil {
			return err
		}
		return tx.Create(&fresh).Error
	})
	if err != nil {
		return nil, wrap("restart session", err)
	}
	return fresh.toSession(), nil
}

// CompleteSession applies a completion in one transaction, guarded by
// status = in_progress.
func (s *Store) CompleteSession(ctx context.Context, c types.Completion) (*types.InterviewSession, error) {
	var completed sessionRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		completedAt := c.CompletedAt.UTC()
		overall := c.OverallScore
		res := tx.Model(&sessionRow{}).
			Where("id = ? AND status = ?", c.SessionID, activeStatus).
			Updates(map[string]any{
				"status":        string(types.SessionCompleted),
				"completed_at":  &completedAt,
				"overall_score": &overall,
				"skill_scores":  datatypes.NewJSONType(c.SkillScores),
				"strengths":     datatypes.JSONSlice[string](nonNil(c.Strengths)),
				"improvements":  datatypes.JSONSlice[string](nonNil(c.Improvements)),
				"transcript":    datatypes.NewJSONType(c.Transcript),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: session %s is not in progress", types.ErrInvalidState, c.SessionID)
		}

		if len(c.Responses) > 0 {
			rows := make([]responseRow, len(c.Responses))
			for i, r := range c.Responses {
				rows[i] = responseRow{
					ID:           r.ID,
					SessionID:    c.SessionID,
					QuestionText: r.QuestionText,
					ResponseText: r.ResponseText,
					Category:     r.Category,
					Score:        r.Score,
					Analysis:     r.Analysis,
					AskedAt:      r.AskedAt.UTC(),
				}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		if err := applyProfileUpdate(tx, c.CandidateID, c.Profile, completedAt); err != nil {
			return err
		}
		return tx.Where("id = ?", c.SessionID).First(&completed).Error
	})
	if err != nil {
		return nil, wrap("complete session", err)
	}
	return completed.toSession(), nil
}

// RescoreSession rewrites the scores of a completed session and its
// responses, then refreshes the candidate profile, in one transaction.
func (s *Store) RescoreSession(ctx context.Context, r types.Rescore) (*types.InterviewSession, error) {
	var rescored sessionRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		overall := r.OverallScore
		res := tx.Model(&sessionRow{}).
			Where("id = ? AND status = ?", r.SessionID, string(types.SessionCompleted)).
			Updates(map[string]any{
				"overall_score": &overall,
				"skill_scores":  datatypes.NewJSONType(r.SkillScores),
				"strengths":     datatypes.JSONSlice[string](nonNil(r.Strengths)),
				"improvements":  datatypes.JSONSlice[string](nonNil(r.Improvements)),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: session %s is not completed", types.ErrInvalidState, r.SessionID)
		}

		for _, resp := range r.Responses {
			err := tx.Model(&responseRow{}).
				Where("id = ? AND session_id = ?", resp.ID, r.SessionID).
				Updates(map[string]any{"score": resp.Score, "analysis": resp.Analysis}).Error
			if err != nil {
				return err
			}
		}

		if err := applyProfileUpdate(tx, r.CandidateID, r.Profile, r.CompletedAt.UTC()); err != nil {
			return err
		}
		return tx.Where("id = ?", r.SessionID).First(&rescored).Error
	})
	if err != nil {
		return nil, wrap("rescore session", err)
	}
	return rescored.toSession(), nil
}

// ListSessions retrieves sessions newest first; an empty type lists all.
func (s *Store) ListSessions(ctx context.Context, candidateID uuid.UUID, interviewType string) ([]types.InterviewSession, error) {
	q := s.db.WithContext(ctx).Where("candidate_id = ?", candidateID)
	if interviewType != "" {
		q = q.Where("interview_type = ?", interviewType)
	}
	var rows []sessionRow
	if err := q.Order("started_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, wrap("list sessions", err)
	}
	out := make([]types.InterviewSession, len(rows))
	for i, r := range rows {
		out[i] = *r.toSession()
	}
	return out, nil
}

// LatestSession retrieves the most recently started session, or nil.
func (s *Store) LatestSession(ctx context.Context, candidateID uuid.UUID) (*types.InterviewSession, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("started_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("latest session", err)
	}
	return row.toSession(), nil
}

// ListResponses retrieves a session's responses in the order they were asked.
func (s *Store) ListResponses(ctx context.Context, sessionID uuid.UUID) ([]types.InterviewResponse, error) {
	var rows []responseRow
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("asked_at").Order("id").Find(&rows).Error; err != nil {
		return nil, wrap("list responses", err)
	}
	out := make([]types.InterviewResponse, len(rows))
	for i, r := range rows {
		out[i] = types.InterviewResponse{
			ID:           r.ID,
			SessionID:    r.SessionID,
			QuestionText: r.QuestionText,
			ResponseText: r.ResponseText,
			Category:     r.Category,
			Score:        r.Score,
			Analysis:     r.Analysis,
			AskedAt:      r.AskedAt,
		}
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Package interview manages the lifecycle of a candidate's interview sessions:
// start or resume, restart, completion with scoring, and history listing.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/logging"
	"github.com/jonathan/internx-match/internal/scoring"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
)

// Store is the persistence contract for sessions and responses.
//
// StartSession must be a single conditional insert-or-fetch: two concurrent
// calls for the same (candidate, type) return the same in_progress session,
// and exactly one of them reports created=true.
//
// RestartSession deletes the session's responses and the session, then
// inserts a fresh in_progress session with the same identity, all in one
// atomic unit. It returns types.ErrNotFound if the session is already gone.
//
// CompleteSession applies the completion atomically, guarded by
// status = in_progress; it returns types.ErrInvalidState when the guard fails.
//
// RescoreSession applies a rescore atomically, guarded by
// status = completed; it returns types.ErrInvalidState when the guard fails.
//
// GetSession and LatestSession return (nil, nil) when nothing matches.
type Store interface {
	StartSession(ctx context.Context, candidateID uuid.UUID, meta types.SessionMetadata, startedAt time.Time) (session *types.InterviewSession, created bool, err error)
	GetSession(ctx context.Context, id uuid.UUID) (*types.InterviewSession, error)
	RestartSession(ctx context.Context, old *types.InterviewSession, startedAt time.Time) (*types.InterviewSession, error)
	CompleteSession(ctx context.Context, c types.Completion) (*types.InterviewSession, error)
	ListSessions(ctx context.Context, candidateID uuid.UUID, interviewType string) ([]types.InterviewSession, error)
	LatestSession(ctx context.Context, candidateID uuid.UUID) (*types.InterviewSession, error)
	ListResponses(ctx context.Context, sessionID uuid.UUID) ([]types.InterviewResponse, error)
	RescoreSession(ctx context.Context, r types.Rescore) (*types.InterviewSession, error)
}

// ResponseScorer scores a session's responses.
type ResponseScorer interface {
	Score(ctx context.Context, responses []types.InterviewResponse) (*scoring.Result, error)
}

// Manager implements the session state machine on top of a Store.
type Manager struct {
	store    Store
	scorer   ResponseScorer
	rescorer ResponseScorer
	cfg      config.ScoringConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager creates a session manager.
func NewManager(store Store, scorer ResponseScorer, cfg config.ScoringConfig, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		scorer:   scorer,
		rescorer: scorer,
		cfg:      cfg,
		logger:   logging.OrNop(logger).Named("interview"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithRescorer sets the scorer used by Rescore. It defaults to the scorer
// passed to NewManager.
func (m *Manager) WithRescorer(scorer ResponseScorer) *Manager {
	if scorer != nil {
		m.rescorer = scorer
	}
	return m
}

// StartOrResume returns the caller's in_progress session for the interview
// type, creating one if none exists. resumed is true when an existing
// session was returned.
func (m *Manager) StartOrResume(ctx context.Context, caller types.Caller, meta types.SessionMetadata) (*types.InterviewSession, bool, error) {
	if caller.IsZero() {
		return nil, false, types.ErrNotAuthorized
	}
	meta.InterviewType = strings.TrimSpace(meta.InterviewType)
	if meta.InterviewType == "" {
		return nil, false, &types.ValidationError{Field: "interviewType", Message: "is required"}
	}

	session, created, err := m.store.StartSession(ctx, caller.UserID, meta.WithDefaults(), m.now())
	if err != nil {
		return nil, false, fmt.Errorf("start session: %w", err)
	}

	m.logger.Info("session started",
		zap.String("session_id", session.ID.String()),
		zap.String("candidate_id", caller.UserID.String()),
		zap.String("interview_type", meta.InterviewType),
		zap.Bool("resumed", !created))
	return session, !created, nil
}

// Restart discards a session and its responses and opens a fresh
// in_progress session of the same type for the same candidate.
func (m *Manager) Restart(ctx context.Context, caller types.Caller, sessionID uuid.UUID) (*types.InterviewSession, error) {
	session, err := m.ownedSession(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}

	fresh, err := m.store.RestartSession(ctx, session, m.now())
	if err != nil {
		return nil, fmt.Errorf("restart session: %w", err)
	}

	m.logger.Info("session restarted",
		zap.String("old_session_id", session.ID.String()),
		zap.String("session_id", fresh.ID.String()),
		zap.String("interview_type", session.InterviewType))
	return fresh, nil
}

// Complete scores the final responses and marks the session completed.
// Scoring runs before anything is written, so a ScoringUnavailable failure
// leaves the session in_progress with no responses persisted.
func (m *Manager) Complete(ctx context.Context, caller types.Caller, sessionID uuid.UUID, inputs []types.ResponseInput) (*types.InterviewSession, error) {
	session, err := m.ownedSession(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != types.SessionInProgress {
		return nil, fmt.Errorf("%w: session %s is %s", types.ErrInvalidState, sessionID, session.Status)
	}

	now := m.now()
	responses := make([]types.InterviewResponse, len(inputs))
	for i, in := range inputs {
		askedAt := now
		if in.AskedAt != nil {
			askedAt = in.AskedAt.UTC()
		}
		responses[i] = types.InterviewResponse{
			ID:           uuid.New(),
			SessionID:    session.ID,
			QuestionText: in.QuestionText,
			ResponseText: in.ResponseText,
			Category:     in.Category,
			AskedAt:      askedAt,
		}
	}

	result, err := m.scorer.Score(ctx, responses)
	if err != nil {
		m.logger.Warn("session scoring failed",
			zap.String("session_id", sessionID.String()),
			zap.Int("responses", len(responses)),
			zap.Error(err))
		return nil, fmt.Errorf("score session: %w", err)
	}

	strengths, improvements := scoring.Summarize(result.ByCategory, m.cfg.StrengthThreshold, m.cfg.ImproveThreshold)
	completion := types.Completion{
		SessionID:    session.ID,
		CandidateID:  session.CandidateID,
		CompletedAt:  now,
		OverallScore: result.Overall,
		SkillScores:  result.ByCategory,
		Strengths:    strengths,
		Improvements: improvements,
		Responses:    result.Responses,
		Transcript:   types.TranscriptOf(result.Responses, now.Sub(session.StartedAt)),
		Profile:      m.profileUpdate(result),
	}

	completed, err := m.store.CompleteSession(ctx, completion)
	if err != nil {
		if errors.Is(err, types.ErrInvalidState) {
			m.logger.Info("concurrent completion rejected", zap.String("session_id", sessionID.String()))
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}

	m.logger.Info("session completed",
		zap.String("session_id", sessionID.String()),
		zap.Float64("overall_score", result.Overall),
		zap.Int("rated", result.Rated),
		zap.Int("failed", result.Failed))
	return completed, nil
}

// Rescore re-rates the stored responses of the caller's most recently
// completed session and replaces its scores and the derived profile. The
// session keeps its original completion time.
func (m *Manager) Rescore(ctx context.Context, caller types.Caller) (*types.InterviewSession, error) {
	if caller.IsZero() {
		return nil, types.ErrNotAuthorized
	}
	sessions, err := m.store.ListSessions(ctx, caller.UserID, "")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	session := latestCompleted(sessions)
	if session == nil {
		return nil, fmt.Errorf("%w: no completed session for candidate", types.ErrNotFound)
	}

	responses, err := m.store.ListResponses(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: session %s has no responses", types.ErrNotFound, session.ID)
	}

	result, err := m.rescorer.Score(ctx, responses)
	if err != nil {
		m.logger.Warn("session rescoring failed",
			zap.String("session_id", session.ID.String()),
			zap.Int("responses", len(responses)),
			zap.Error(err))
		return nil, fmt.Errorf("rescore session: %w", err)
	}

	strengths, improvements := scoring.Summarize(result.ByCategory, m.cfg.StrengthThreshold, m.cfg.ImproveThreshold)
	rescored, err := m.store.RescoreSession(ctx, types.Rescore{
		SessionID:    session.ID,
		CandidateID:  session.CandidateID,
		CompletedAt:  *session.CompletedAt,
		OverallScore: result.Overall,
		SkillScores:  result.ByCategory,
		Strengths:    strengths,
		Improvements: improvements,
		Responses:    result.Responses,
		Profile:      m.profileUpdate(result),
	})
	if err != nil {
		return nil, fmt.Errorf("rescore session: %w", err)
	}

	m.logger.Info("session rescored",
		zap.String("session_id", session.ID.String()),
		zap.Float64("overall_score", result.Overall),
		zap.Int("rated", result.Rated),
		zap.Int("failed", result.Failed))
	return rescored, nil
}

// ListByType returns every session of the type for the caller, newest first.
func (m *Manager) ListByType(ctx context.Context, caller types.Caller, interviewType string) ([]types.InterviewSession, error) {
	if caller.IsZero() {
		return nil, types.ErrNotAuthorized
	}
	sessions, err := m.store.ListSessions(ctx, caller.UserID, strings.TrimSpace(interviewType))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []types.InterviewSession{}
	}
	return sessions, nil
}

// Latest returns the caller's most recently started session of any type.
func (m *Manager) Latest(ctx context.Context, caller types.Caller) (*types.InterviewSession, error) {
	if caller.IsZero() {
		return nil, types.ErrNotAuthorized
	}
	session, err := m.store.LatestSession(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: no sessions for candidate", types.ErrNotFound)
	}
	return session, nil
}

func (m *Manager) ownedSession(ctx context.Context, caller types.Caller, sessionID uuid.UUID) (*types.InterviewSession, error) {
	if caller.IsZero() {
		return nil, types.ErrNotAuthorized
	}
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", types.ErrNotFound, sessionID)
	}
	if !caller.Owns(session.CandidateID) {
		return nil, fmt.Errorf("%w: session %s belongs to another candidate", types.ErrNotAuthorized, sessionID)
	}
	return session, nil
}

func latestCompleted(sessions []types.InterviewSession) *types.InterviewSession {
	var latest *types.InterviewSession
	for i := range sessions {
		s := &sessions[i]
		if s.Status != types.SessionCompleted || s.CompletedAt == nil {
			continue
		}
		if latest == nil || s.CompletedAt.After(*latest.CompletedAt) {
			latest = s
		}
	}
	return latest
}

// profileUpdate maps category scores onto the candidate score profile. Each
// profile dimension is the mean of the scored categories that
// cfg.ProfileDimensions lists for it; a dimension with no scored category
// stays nil so the stored value is kept.
func (m *Manager) profileUpdate(result *scoring.Result) types.ProfileUpdate {
	dimension := func(name string) *float64 {
		var sum float64
		var n int
		for _, c := range m.cfg.ProfileDimensions[name] {
			if v, ok := result.ByCategory[strings.ToLower(strings.TrimSpace(c))]; ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			return nil
		}
		v := sum / float64(n)
		return &v
	}
	overall := result.Overall
	return types.ProfileUpdate{
		SkillScore:        dimension(config.DimensionSkill),
		ExperienceScore:   dimension(config.DimensionExperience),
		PersonalityScore:  dimension(config.DimensionPersonality),
		OverallMatchScore: &overall,
		InterviewTags:     result.Tags,
		MaxTags:           m.cfg.MaxInterviewTags,
	}
}

package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/logging"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence contract the match calculator needs.
// GetScoreProfile returns (nil, nil) when the candidate has no profile.
// UpsertMatchScore replaces any existing row for (candidate, position).
type Store interface {
	GetScoreProfile(ctx context.Context, candidateID uuid.UUID) (*types.CandidateScoreProfile, error)
	ListActivePositions(ctx context.Context) ([]types.Position, error)
	UpsertMatchScore(ctx context.Context, score types.PersonalizedScore) error
	ListMatchScores(ctx context.Context, candidateID uuid.UUID) ([]types.PersonalizedScore, error)
}

// Summary reports the outcome of one recompute.
type Summary struct {
	Updated int                       `json:"updated"`
	Skipped int                       `json:"skipped"`
	Scores  []types.PersonalizedScore `json:"scores"`
}

// Service recomputes and lists personalized match scores.
type Service struct {
	store       Store
	calc        *Calculator
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// DefaultConcurrency bounds parallel upserts per recompute.
const DefaultConcurrency = 8

// NewService creates a match score service.
func NewService(store Store, cfg config.ScoringConfig, logger *zap.Logger) *Service {
	return &Service{
		store:       store,
		calc:        NewCalculator(cfg),
		concurrency: DefaultConcurrency,
		logger:      logging.OrNop(logger).Named("matching"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ComputeForAll scores every active position for the candidate and upserts
// the results. A nil candidateID means the caller. The candidate must have
// completed at least one interview.
func (s *Service) ComputeForAll(ctx context.Context, caller types.Caller, candidateID *uuid.UUID) (*Summary, error) {
	target, err := resolveCandidate(caller, candidateID)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetScoreProfile(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("load score profile: %w", err)
	}
	if !profile.HasCompletedInterview() {
		return nil, fmt.Errorf("%w: candidate %s has not completed an interview", types.ErrPrerequisiteNotMet, target)
	}

	positions, err := s.store.ListActivePositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	at := s.now()
	summary := &Summary{Scores: make([]types.PersonalizedScore, 0, len(positions))}
	for _, pos := range positions {
		if !Eligible(pos) {
			summary.Skipped++
			s.logger.Debug("position skipped",
				zap.String("position_id", pos.ID.String()),
				zap.Bool("active", pos.Active),
				zap.String("category", pos.Category))
			continue
		}
		summary.Scores = append(summary.Scores, s.calc.Score(profile, pos, at))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, score := range summary.Scores {
		g.Go(func() error {
			if err := s.store.UpsertMatchScore(gctx, score); err != nil {
				return fmt.Errorf("upsert score for position %s: %w", score.PositionID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	summary.Updated = len(summary.Scores)

	sortScores(summary.Scores)
	s.logger.Info("match scores recomputed",
		zap.String("candidate_id", target.String()),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// List returns the stored scores for the candidate, best match first.
func (s *Service) List(ctx context.Context, caller types.Caller, candidateID *uuid.UUID) ([]types.PersonalizedScore, error) {
	target, err := resolveCandidate(caller, candidateID)
	if err != nil {
		return nil, err
	}
	scores, err := s.store.ListMatchScores(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("list match scores: %w", err)
	}
	if scores == nil {
		scores = []types.PersonalizedScore{}
	}
	sortScores(scores)
	return scores, nil
}

func resolveCandidate(caller types.Caller, candidateID *uuid.UUID) (uuid.UUID, error) {
	if caller.IsZero() {
		return uuid.Nil, types.ErrNotAuthorized
	}
	target := caller.UserID
	if candidateID != nil && *candidateID != uuid.Nil {
		target = *candidateID
	}
	if !caller.Owns(target) {
		return uuid.Nil, fmt.Errorf("%w: cannot act for candidate %s", types.ErrNotAuthorized, target)
	}
	return target, nil
}

func sortScores(scores []types.PersonalizedScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].MatchScore != scores[j].MatchScore {
			return scores[i].MatchScore > scores[j].MatchScore
		}
		return scores[i].PositionID.String() < scores[j].PositionID.String()
	})
}

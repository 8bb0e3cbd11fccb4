package accuracy

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu          sync.Mutex
	validations []types.ValidationRecord
	snapshots   []types.MetricSnapshot
	feedback    []types.FeedbackEntry
	saveErr     error
}

func (s *memStore) InsertValidation(_ context.Context, rec types.ValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validations = append(s.validations, rec)
	return nil
}

func (s *memStore) ListValidations(_ context.Context, f types.ValidationFilter) ([]types.ValidationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ValidationRecord
	for _, r := range s.validations {
		if f.CandidateID != nil && r.CandidateID != *f.CandidateID {
			continue
		}
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && !r.CreatedAt.Before(f.Until) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memStore) ListSnapshots(_ context.Context, since time.Time) ([]types.MetricSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.MetricSnapshot
	for _, row := range s.snapshots {
		if !row.MetricDate.Before(since) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memStore) SaveSnapshots(_ context.Context, date time.Time, rows []types.MetricSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	kept := s.snapshots[:0]
	for _, row := range s.snapshots {
		if !row.MetricDate.Equal(date) {
			kept = append(kept, row)
		}
	}
	s.snapshots = append(kept, rows...)
	return nil
}

func (s *memStore) InsertFeedback(_ context.Context, entry types.FeedbackEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, entry)
	return nil
}

func (s *memStore) ListFeedback(_ context.Context, since time.Time) ([]types.FeedbackEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.FeedbackEntry
	for _, f := range s.feedback {
		if !f.CreatedAt.Before(since) {
			out = append(out, f)
		}
	}
	return out, nil
}

var fixedNow = time.Date(2025, 5, 20, 15, 30, 0, 0, time.UTC)

func newTestAggregator(store Store) *Aggregator {
	a := NewAggregator(store, config.DefaultAccuracy(), nil)
	a.now = func() time.Time { return fixedNow }
	return a
}

var validator = types.Caller{UserID: uuid.New(), Role: types.RoleValidator}

func floatPtr(f float64) *float64 { return &f }

func recordReq(ai float64, human *float64, scoreType types.ScoreType, category string) *types.RecordValidationRequest {
	return &types.RecordValidationRequest{
		CandidateID: uuid.New(),
		AIScore:     &ai,
		HumanScore:  human,
		ScoreType:   scoreType,
		Category:    category,
	}
}

func TestRecord_ConfidenceDifference(t *testing.T) {
	store := &memStore{}
	a := newTestAggregator(store)

	accurate, err := a.Record(context.Background(), validator, recordReq(72, floatPtr(65), types.ScoreTypeSkill, "technology_engineering"))
	require.NoError(t, err)
	require.NotNil(t, accurate.ConfidenceDifference)
	assert.Equal(t, 7.0, *accurate.ConfidenceDifference)
	assert.True(t, accurate.IsValidated)
	assert.True(t, IsAccurate(*accurate, 10))
	assert.Equal(t, validator.UserID, accurate.ValidatorID)
	assert.Equal(t, fixedNow, accurate.CreatedAt)

	inaccurate, err := a.Record(context.Background(), validator, recordReq(72, floatPtr(40), types.ScoreTypeSkill, "technology_engineering"))
	require.NoError(t, err)
	assert.Equal(t, 32.0, *inaccurate.ConfidenceDifference)
	assert.False(t, IsAccurate(*inaccurate, 10))

	pending, err := a.Record(context.Background(), validator, recordReq(72, nil, types.ScoreTypeOverall, "creative_media"))
	require.NoError(t, err)
	assert.Nil(t, pending.ConfidenceDifference)
	assert.False(t, pending.IsValidated)

	assert.Len(t, store.validations, 3)
}

func TestRecord_Rejections(t *testing.T) {
	a := newTestAggregator(&memStore{})

	_, err := a.Record(context.Background(), types.Caller{UserID: uuid.New(), Role: types.RoleCandidate}, recordReq(50, nil, types.ScoreTypeSkill, "x"))
	assert.ErrorIs(t, err, types.ErrNotAuthorized)

	_, err = a.Record(context.Background(), validator, recordReq(150, nil, types.ScoreTypeSkill, "x"))
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "aiScore", vErr.Field)

	_, err = a.Record(context.Background(), validator, recordReq(50, nil, "vibes", "x"))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "scoreType", vErr.Field)
}

func TestMetrics_NoValidations(t *testing.T) {
	a := newTestAggregator(&memStore{})

	report, err := a.Metrics(context.Background(), validator, 0, "")
	require.NoError(t, err)

	assert.Equal(t, 30, report.Period)
	assert.Equal(t, 0.0, report.OverallAccuracy)
	assert.Equal(t, 0, report.TotalValidations)
	assert.Equal(t, 0.0, report.AverageDifference)
	assert.Len(t, report.ByCategory, 5)
	assert.Len(t, report.ByScoreType, 4)
	for _, b := range report.ByCategory {
		assert.Equal(t, types.AccuracyBreakdown{}, b)
	}
	assert.NotNil(t, report.Trend)
	assert.Empty(t, report.Trend)
	assert.Equal(t, 0, report.Feedback.TotalFeedback)
	assert.Equal(t, 0.0, report.Feedback.AverageRating)
	assert.Len(t, report.Feedback.RatingDistribution, 5)
}

func TestMetrics_Ratios(t *testing.T) {
	store := &memStore{}
	a := newTestAggregator(store)
	ctx := context.Background()

	inputs := []*types.RecordValidationRequest{
		recordReq(72, floatPtr(65), types.ScoreTypeSkill, "technology_engineering"),
		recordReq(72, floatPtr(40), types.ScoreTypeSkill, "technology_engineering"),
		recordReq(80, floatPtr(80), types.ScoreTypePersonality, "business_finance"),
		recordReq(60, nil, types.ScoreTypeOverall, "business_finance"),
		recordReq(50, floatPtr(61), types.ScoreTypeExperience, "unknown_bucket"),
	}
	for _, in := range inputs {
		_, err := a.Record(ctx, validator, in)
		require.NoError(t, err)
	}

	report, err := a.Metrics(ctx, validator, 7, "")
	require.NoError(t, err)

	// 7, 32, 0 and 11 are validated; 7 and 0 are within tolerance.
	assert.Equal(t, 4, report.TotalValidations)
	assert.Equal(t, 2, report.AccurateCount)
	assert.Equal(t, 50.0, report.OverallAccuracy)

	tech := report.ByCategory["technology_engineering"]
	assert.Equal(t, 2, tech.TotalValidations)
	assert.Equal(t, 1, tech.AccurateCount)
	assert.Equal(t, 50.0, tech.Accuracy)
	assert.Equal(t, 20.0, tech.AverageDifference) // (7+32)/2 rounded

	biz := report.ByCategory["business_finance"]
	assert.Equal(t, 1, biz.TotalValidations)
	assert.Equal(t, 100.0, biz.Accuracy)
	assert.NotContains(t, report.ByCategory, "unknown_bucket")

	assert.Equal(t, 2, report.ByScoreType[types.ScoreTypeSkill].TotalValidations)
	assert.Equal(t, 0, report.ByScoreType[types.ScoreTypeOverall].TotalValidations)
	assert.Equal(t, 0.0, report.ByScoreType[types.ScoreTypeExperience].Accuracy)

	filtered, err := a.Metrics(ctx, validator, 7, "business_finance")
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.TotalValidations)
	assert.Equal(t, 100.0, filtered.OverallAccuracy)
	assert.Equal(t, "business_finance", filtered.Category)
}

func TestMetrics_RoundsPercentages(t *testing.T) {
	store := &memStore{}
	a := newTestAggregator(store)
	for _, human := range []float64{50, 50, 90} {
		_, err := a.Record(context.Background(), validator, recordReq(50, floatPtr(human), types.ScoreTypeSkill, "creative_media"))
		require.NoError(t, err)
	}
	report, err := a.Metrics(context.Background(), validator, 30, "")
	require.NoError(t, err)
	assert.Equal(t, 67.0, report.OverallAccuracy)
}

func TestMetrics_WindowExcludesOldRecords(t *testing.T) {
	store := &memStore{validations: []types.ValidationRecord{
		{ID: uuid.New(), Category: "creative_media", ScoreType: types.ScoreTypeSkill, ConfidenceDifference: floatPtr(1), CreatedAt: fixedNow.AddDate(0, 0, -40)},
		{ID: uuid.New(), Category: "creative_media", ScoreType: types.ScoreTypeSkill, ConfidenceDifference: floatPtr(30), CreatedAt: fixedNow.AddDate(0, 0, -2)},
	}}
	a := newTestAggregator(store)

	report, err := a.Metrics(context.Background(), validator, 30, "")
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalValidations)
	assert.Equal(t, 0.0, report.OverallAccuracy)

	report, err = a.Metrics(context.Background(), validator, 60, "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalValidations)
	assert.Equal(t, 50.0, report.OverallAccuracy)
}

func TestMetrics_InvalidPeriod(t *testing.T) {
	a := newTestAggregator(&memStore{})
	for _, p := range []int{-1, 366} {
		_, err := a.Metrics(context.Background(), validator, p, "")
		var vErr *types.ValidationError
		assert.ErrorAs(t, err, &vErr, "period %d", p)
	}

	_, err := a.Metrics(context.Background(), types.Caller{}, 30, "")
	assert.ErrorIs(t, err, types.ErrNotAuthorized)
}

func TestAggregate_WritesSnapshotsAndFeedsTrend(t *testing.T) {
	store := &memStore{}
	a := newTestAggregator(store)
	ctx := context.Background()
	yesterday := fixedNow.AddDate(0, 0, -1)

	store.validations = []types.ValidationRecord{
		{ID: uuid.New(), Category: "technology_engineering", ConfidenceDifference: floatPtr(4), CreatedAt: yesterday},
		{ID: uuid.New(), Category: "technology_engineering", ConfidenceDifference: floatPtr(20), CreatedAt: yesterday.Add(time.Hour)},
		{ID: uuid.New(), Category: "creative_media", ConfidenceDifference: floatPtr(9), CreatedAt: yesterday},
		{ID: uuid.New(), Category: "creative_media", CreatedAt: yesterday},
		{ID: uuid.New(), Category: "creative_media", ConfidenceDifference: floatPtr(50), CreatedAt: fixedNow},
	}

	rows, err := a.Aggregate(ctx, yesterday)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	overall := rows[0]
	assert.Equal(t, "", overall.Category)
	assert.Equal(t, dayOf(yesterday), overall.MetricDate)
	assert.Equal(t, 3, overall.TotalValidations)
	assert.Equal(t, 67.0, overall.AccuracyPercentage)
	assert.Equal(t, 11.0, overall.AverageConfidenceDifference)

	assert.Equal(t, "creative_media", rows[1].Category)
	assert.Equal(t, "technology_engineering", rows[2].Category)
	assert.Equal(t, 50.0, rows[2].AccuracyPercentage)

	// re-running replaces the day's rows
	_, err = a.Aggregate(ctx, yesterday)
	require.NoError(t, err)
	assert.Len(t, store.snapshots, 3)

	report, err := a.Metrics(ctx, validator, 30, "")
	require.NoError(t, err)
	require.Len(t, report.Trend, 1)
	assert.Equal(t, dayOf(yesterday).Format(time.DateOnly), report.Trend[0].Date)
	assert.Equal(t, 67.0, report.Trend[0].Accuracy)
	assert.Equal(t, 11.0, report.AverageDifference)

	techReport, err := a.Metrics(ctx, validator, 30, "technology_engineering")
	require.NoError(t, err)
	require.Len(t, techReport.Trend, 1)
	assert.Equal(t, 12.0, techReport.AverageDifference)
}

func TestAggregate_EmptyDayStillWritesOverallRow(t *testing.T) {
	store := &memStore{}
	a := newTestAggregator(store)

	rows, err := a.Aggregate(context.Background(), fixedNow)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].TotalValidations)
	assert.Equal(t, 0.0, rows[0].AccuracyPercentage)
}

func TestAggregate_FailureWritesNothing(t *testing.T) {
	store := &memStore{saveErr: types.NewStoreError("save snapshots", errors.New("disk full"))}
	a := newTestAggregator(store)

	_, err := a.Aggregate(context.Background(), fixedNow)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
	assert.Empty(t, store.snapshots)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store.saveErr = nil
	_, err = a.Aggregate(ctx, fixedNow)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.snapshots)
}

func TestFeedback(t *testing.T) {
	store := &memStore{}
	a := newTestAggregator(store)
	ctx := context.Background()
	candidate := types.Caller{UserID: uuid.New(), Role: types.RoleCandidate}

	for _, rating := range []int{5, 4, 4} {
		entry, err := a.SubmitFeedback(ctx, candidate, &types.FeedbackRequest{FeedbackType: "interview", Rating: rating})
		require.NoError(t, err)
		assert.Equal(t, candidate.UserID, entry.CandidateID)
	}

	_, err := a.SubmitFeedback(ctx, candidate, &types.FeedbackRequest{FeedbackType: "interview", Rating: 6})
	var vErr *types.ValidationError
	assert.ErrorAs(t, err, &vErr)

	entries, err := a.ListFeedback(ctx, candidate, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	report, err := a.Metrics(ctx, candidate, 30, "")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Feedback.TotalFeedback)
	assert.Equal(t, 4.3, report.Feedback.AverageRating)
	assert.Equal(t, 2, report.Feedback.RatingDistribution[4])
	assert.Equal(t, 0, report.Feedback.RatingDistribution[1])
}

func TestList_DefaultsLimit(t *testing.T) {
	store := &memStore{}
	a := newTestAggregator(store)
	for i := 0; i < DefaultListLimit+5; i++ {
		store.validations = append(store.validations, types.ValidationRecord{ID: uuid.New(), CreatedAt: fixedNow.Add(time.Duration(i) * time.Second)})
	}

	records, err := a.List(context.Background(), validator, types.ValidationFilter{})
	require.NoError(t, err)
	assert.Len(t, records, DefaultListLimit)
	assert.True(t, records[0].CreatedAt.After(records[1].CreatedAt))
}

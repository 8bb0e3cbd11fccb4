package localstore

import (
	"context"
	"time"

	"github.com/jonathan/internx-match/internal/types"
	"gorm.io/gorm"
)

const dateLayout = time.DateOnly

// InsertValidation appends a validation record.
func (s *Store) InsertValidation(ctx context.Context, r types.ValidationRecord) error {
	row := validationRow{
		ID:                   r.ID,
		CandidateID:          r.CandidateID,
		SessionID:            r.SessionID,
		AIScore:              r.AIScore,
		HumanScore:           r.HumanScore,
		ScoreType:            string(r.ScoreType),
		Category:             r.Category,
		ConfidenceDifference: r.ConfidenceDifference,
		IsValidated:          r.IsValidated,
		AccuracyRating:       r.AccuracyRating,
		FeedbackNotes:        r.FeedbackNotes,
		ValidatorID:          r.ValidatorID,
		CreatedAt:            r.CreatedAt.UTC(),
	}
	return wrap("insert validation", s.db.WithContext(ctx).Create(&row).Error)
}

// ListValidations retrieves records matching the filter, newest first.
func (s *Store) ListValidations(ctx context.Context, f types.ValidationFilter) ([]types.ValidationRecord, error) {
	q := s.db.WithContext(ctx).Model(&validationRow{})
	if f.CandidateID != nil {
		q = q.Where("candidate_id = ?", *f.CandidateID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}
	if !f.Until.IsZero() {
		q = q.Where("created_at < ?", f.Until.UTC())
	}
	q = q.Order("created_at DESC").Order("id")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []validationRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, wrap("list validations", err)
	}
	out := make([]types.ValidationRecord, len(rows))
	for i, r := range rows {
		out[i] = types.ValidationRecord{
			ID:                   r.ID,
			CandidateID:          r.CandidateID,
			SessionID:            r.SessionID,
			AIScore:              r.AIScore,
			HumanScore:           r.HumanScore,
			ScoreType:            types.ScoreType(r.ScoreType),
			Category:             r.Category,
			ConfidenceDifference: r.ConfidenceDifference,
			IsValidated:          r.IsValidated,
			AccuracyRating:       r.AccuracyRating,
			FeedbackNotes:        r.FeedbackNotes,
			ValidatorID:          r.ValidatorID,
			CreatedAt:            r.CreatedAt,
		}
	}
	return out, nil
}

// ListSnapshots retrieves rows dated on or after since, oldest first.
func (s *Store) ListSnapshots(ctx context.Context, since time.Time) ([]types.MetricSnapshot, error) {
	var rows []snapshotRow
	err := s.db.WithContext(ctx).
		Where("metric_date >= ?", since.UTC().Format(dateLayout)).
		Order("metric_date").Order("category").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("list snapshots", err)
	}
	out := make([]types.MetricSnapshot, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(dateLayout, r.MetricDate)
		if err != nil {
			s.logger.Warn("skipping snapshot with malformed date")
			continue
		}
		out = append(out, types.MetricSnapshot{
			MetricDate:                  date,
			Category:                    r.Category,
			TotalValidations:            r.TotalValidations,
			AccuracyPercentage:          r.AccuracyPercentage,
			AverageConfidenceDifference: r.AverageConfidenceDifference,
		})
	}
	return out, nil
}

// SaveSnapshots replaces the day's rows in one transaction.
func (s *Store) SaveSnapshots(ctx context.Context, date time.Time, snapshots []types.MetricSnapshot) error {
	day := date.UTC().Format(dateLayout)
	rows := make([]snapshotRow, len(snapshots))
	for i, snap := range snapshots {
		rows[i] = snapshotRow{
			MetricDate:                  day,
			Category:                    snap.Category,
			TotalValidations:            snap.TotalValidations,
			AccuracyPercentage:          snap.AccuracyPercentage,
			AverageConfidenceDifference: snap.AverageConfidenceDifference,
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("metric_date = ?", day).Delete(&snapshotRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	return wrap("save snapshots", err)
}

// InsertFeedback appends a feedback entry.
func (s *Store) InsertFeedback(ctx context.Context, f types.FeedbackEntry) error {
	row := feedbackRow{
		ID:           f.ID,
		CandidateID:  f.CandidateID,
		FeedbackType: f.FeedbackType,
		Rating:       f.Rating,
		FeedbackText: f.FeedbackText,
		Category:     f.Category,
		CreatedAt:    f.CreatedAt.UTC(),
	}
	return wrap("insert feedback", s.db.WithContext(ctx).Create(&row).Error)
}

// ListFeedback retrieves feedback created on or after since, newest first.
func (s *Store) ListFeedback(ctx context.Context, since time.Time) ([]types.FeedbackEntry, error) {
	var rows []feedbackRow
	if err := s.db.WithContext(ctx).Where("created_at >= ?", since.UTC()).
		Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, wrap("list feedback", err)
	}
	out := make([]types.FeedbackEntry, len(rows))
	for i, r := range rows {
		out[i] = types.FeedbackEntry{
			ID:           r.ID,
			CandidateID:  r.CandidateID,
			FeedbackType: r.FeedbackType,
			Rating:       r.Rating,
			FeedbackText: r.FeedbackText,
			Category:     r.Category,
			CreatedAt:    r.CreatedAt,
		}
	}
	return out, nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/internx-match/internal/types"
)

// InsertValidation appends a validation record.
func (db *DB) InsertValidation(ctx context.Context, r types.ValidationRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO accuracy_validations
		   (id, candidate_id, session_id, ai_score, human_score, score_type, category,
		    confidence_difference, is_validated, accuracy_rating, feedback_notes, validator_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.CandidateID, r.SessionID, r.AIScore, r.HumanScore, string(r.ScoreType), r.Category,
		r.ConfidenceDifference, r.IsValidated, r.AccuracyRating, r.FeedbackNotes, r.ValidatorID, r.CreatedAt)
	if err != nil {
		return types.NewStoreError("insert validation", err)
	}
	return nil
}

// ListValidations retrieves validation records matching the filter, newest first.
func (db *DB) ListValidations(ctx context.Context, f types.ValidationFilter) ([]types.ValidationRecord, error) {
	query := `SELECT id, candidate_id, session_id, ai_score, human_score, score_type, category,
		confidence_difference, is_validated, accuracy_rating, feedback_notes, validator_id, created_at
		FROM accuracy_validations WHERE 1=1`
	args := []any{}
	argNum := 1

	if f.CandidateID != nil {
		query += fmt.Sprintf(" AND candidate_id = $%d", argNum)
		args = append(args, *f.CandidateID)
		argNum++
	}
	if f.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, f.Category)
		argNum++
	}
	if !f.Since.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, f.Since)
		argNum++
	}
	if !f.Until.IsZero() {
		query += fmt.Sprintf(" AND created_at < $%d", argNum)
		args = append(args, f.Until)
		argNum++
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, f.Limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewStoreError("list validations", err)
	}
	defer rows.Close()

	var records []types.ValidationRecord
	for rows.Next() {
		var (
			r         types.ValidationRecord
			scoreType string
		)
		if err := rows.Scan(&r.ID, &r.CandidateID, &r.SessionID, &r.AIScore, &r.HumanScore, &scoreType, &r.Category,
			&r.ConfidenceDifference, &r.IsValidated, &r.AccuracyRating, &r.FeedbackNotes, &r.ValidatorID, &r.CreatedAt); err != nil {
			return nil, types.NewStoreError("scan validation", err)
		}
		r.ScoreType = types.ScoreType(scoreType)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStoreError("list validations", err)
	}
	return records, nil
}

// ListSnapshots retrieves snapshot rows dated on or after since, oldest first.
func (db *DB) ListSnapshots(ctx context.Context, since time.Time) ([]types.MetricSnapshot, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT metric_date, category, total_validations, accuracy_percentage, average_confidence_difference
		 FROM accuracy_metrics WHERE metric_date >= $1::date
		 ORDER BY metric_date, category`, since)
	if err != nil {
		return nil, types.NewStoreError("list snapshots", err)
	}
	defer rows.Close()

	var out []types.MetricSnapshot
	for rows.Next() {
		var s types.MetricSnapshot
		if err := rows.Scan(&s.MetricDate, &s.Category, &s.TotalValidations, &s.AccuracyPercentage, &s.AverageConfidenceDifference); err != nil {
			return nil, types.NewStoreError("scan snapshot", err)
		}
		s.MetricDate = s.MetricDate.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStoreError("list snapshots", err)
	}
	return out, nil
}

// SaveSnapshots replaces the day's snapshot rows in one transaction.
func (db *DB) SaveSnapshots(ctx context.Context, date time.Time, rows []types.MetricSnapshot) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return types.NewStoreError("begin snapshots", err)
	}
	defer db.rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM accuracy_metrics WHERE metric_date = $1::date`, date); err != nil {
		return types.NewStoreError("clear snapshots", err)
	}
	for _, s := range rows {
		_, err := tx.Exec(ctx,
			`INSERT INTO accuracy_metrics (metric_date, category, total_validations, accuracy_percentage, average_confidence_difference)
			 VALUES ($1::date, $2, $3, $4, $5)
			 ON CONFLICT (metric_date, category) DO UPDATE SET
			   total_validations = EXCLUDED.total_validations,
			   accuracy_percentage = EXCLUDED.accuracy_percentage,
			   average_confidence_difference = EXCLUDED.average_confidence_difference`,
			date, s.Category, s.TotalValidations, s.AccuracyPercentage, s.AverageConfidenceDifference)
		if err != nil {
			return types.NewStoreError("insert snapshot", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return types.NewStoreError("commit snapshots", err)
	}
	return nil
}

// InsertFeedback appends a feedback entry.
func (db *DB) InsertFeedback(ctx context.Context, f types.FeedbackEntry) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO assessment_feedback (id, candidate_id, feedback_type, rating, feedback_text, category, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.CandidateID, f.FeedbackType, f.Rating, f.FeedbackText, f.Category, f.CreatedAt)
	if err != nil {
		return types.NewStoreError("insert feedback", err)
	}
	return nil
}

// ListFeedback retrieves feedback created on or after since, newest first.
func (db *DB) ListFeedback(ctx context.Context, since time.Time) ([]types.FeedbackEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, candidate_id, feedback_type, rating, feedback_text, category, created_at
		 FROM assessment_feedback WHERE created_at >= $1 ORDER BY created_at DESC, id`, since)
	if err != nil {
		return nil, types.NewStoreError("list feedback", err)
	}
	defer rows.Close()

	var out []types.FeedbackEntry
	for rows.Next() {
		var f types.FeedbackEntry
		if err := rows.Scan(&f.ID, &f.CandidateID, &f.FeedbackType, &f.Rating, &f.FeedbackText, &f.Category, &f.CreatedAt); err != nil {
			return nil, types.NewStoreError("scan feedback", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStoreError("list feedback", err)
	}
	return out, nil
}

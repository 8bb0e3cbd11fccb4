// Package accuracy records AI-vs-human validation results and aggregates
// them into time-windowed accuracy reports and daily snapshots.
package accuracy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/logging"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
)

// DefaultListLimit caps validation listings when the caller gives no limit.
const DefaultListLimit = 50

// Store is the persistence contract for the validation stream.
//
// SaveSnapshots replaces every snapshot row for the date in one atomic unit.
// ListSnapshots returns rows with MetricDate >= since, oldest first.
// ListValidations and ListFeedback return newest first.
type Store interface {
	InsertValidation(ctx context.Context, rec types.ValidationRecord) error
	ListValidations(ctx context.Context, filter types.ValidationFilter) ([]types.ValidationRecord, error)
	ListSnapshots(ctx context.Context, since time.Time) ([]types.MetricSnapshot, error)
	SaveSnapshots(ctx context.Context, date time.Time, rows []types.MetricSnapshot) error
	InsertFeedback(ctx context.Context, entry types.FeedbackEntry) error
	ListFeedback(ctx context.Context, since time.Time) ([]types.FeedbackEntry, error)
}

// Aggregator owns the validation stream and its reports.
type Aggregator struct {
	store  Store
	cfg    config.AccuracyConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewAggregator creates an aggregator.
func NewAggregator(store Store, cfg config.AccuracyConfig, logger *zap.Logger) *Aggregator {
	if len(cfg.Categories) == 0 {
		cfg.Categories = config.DefaultAccuracyCategories()
	}
	if cfg.DefaultPeriod <= 0 {
		cfg.DefaultPeriod = config.DefaultAccuracy().DefaultPeriod
	}
	if cfg.MaxPeriod <= 0 {
		cfg.MaxPeriod = config.DefaultAccuracy().MaxPeriod
	}
	return &Aggregator{
		store:  store,
		cfg:    cfg,
		logger: logging.OrNop(logger).Named("accuracy"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record appends a validation record. The confidence difference is only
// computed when a human score is present.
func (a *Aggregator) Record(ctx context.Context, caller types.Caller, req *types.RecordValidationRequest) (*types.ValidationRecord, error) {
	if !caller.CanValidate() {
		return nil, fmt.Errorf("%w: role %q cannot record validations", types.ErrNotAuthorized, caller.Role)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec := types.ValidationRecord{
		ID:                   uuid.New(),
		CandidateID:          req.CandidateID,
		SessionID:            req.SessionID,
		AIScore:              *req.AIScore,
		HumanScore:           req.HumanScore,
		ScoreType:            req.ScoreType,
		Category:             strings.TrimSpace(req.Category),
		ConfidenceDifference: Difference(*req.AIScore, req.HumanScore),
		IsValidated:          req.HumanScore != nil,
		AccuracyRating:       req.AccuracyRating,
		FeedbackNotes:        req.FeedbackNotes,
		ValidatorID:          caller.UserID,
		CreatedAt:            a.now(),
	}
	if err := a.store.InsertValidation(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert validation: %w", err)
	}

	a.logger.Info("validation recorded",
		zap.String("validation_id", rec.ID.String()),
		zap.String("score_type", string(rec.ScoreType)),
		zap.String("category", rec.Category),
		zap.Bool("validated", rec.IsValidated))
	return &rec, nil
}

// List returns validation records matching the filter, newest first.
func (a *Aggregator) List(ctx context.Context, caller types.Caller, filter types.ValidationFilter) ([]types.ValidationRecord, error) {
	if caller.IsZero() {
		return nil, types.ErrNotAuthorized
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	records, err := a.store.ListValidations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	if records == nil {
		records = []types.ValidationRecord{}
	}
	return records, nil
}

// PeriodStart returns the first instant of a trailing window of days.
func (a *Aggregator) PeriodStart(days int) time.Time {
	return a.now().AddDate(0, 0, -days)
}

// Metrics builds the accuracy report over the trailing period of days,
// optionally narrowed to one category. A period of 0 means the default.
// The read path has no side effects.
func (a *Aggregator) Metrics(ctx context.Context, caller types.Caller, period int, category string) (*types.AccuracyReport, error) {
	if caller.IsZero() {
		return nil, types.ErrNotAuthorized
	}
	if period == 0 {
		period = a.cfg.DefaultPeriod
	}
	if period < 1 || period > a.cfg.MaxPeriod {
		return nil, &types.ValidationError{Field: "period", Message: fmt.Sprintf("must be between 1 and %d days", a.cfg.MaxPeriod)}
	}
	category = strings.TrimSpace(category)
	since := a.PeriodStart(period)

	records, err := a.store.ListValidations(ctx, types.ValidationFilter{Category: category, Since: since})
	if err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	snapshots, err := a.store.ListSnapshots(ctx, dayOf(since))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	feedback, err := a.store.ListFeedback(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	report := a.report(records, category)
	report.Period = period
	report.Category = category
	report.Trend, report.AverageDifference = trend(snapshots, category)
	report.Feedback = summarizeFeedback(feedback)
	return report, nil
}

// report computes the record-level ratios. Records without a human score are
// left out entirely.
func (a *Aggregator) report(records []types.ValidationRecord, category string) *types.AccuracyReport {
	var overall tally
	byCategory := make(map[string]*tally, len(a.cfg.Categories))
	for _, c := range a.cfg.Categories {
		byCategory[c] = &tally{}
	}
	byType := make(map[types.ScoreType]*tally, len(types.ScoreTypes))
	for _, st := range types.ScoreTypes {
		byType[st] = &tally{}
	}

	for _, rec := range records {
		if rec.ConfidenceDifference == nil {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		diff := *rec.ConfidenceDifference
		overall.add(diff, a.cfg.Tolerance)
		if t, ok := byCategory[rec.Category]; ok {
			t.add(diff, a.cfg.Tolerance)
		}
		if t, ok := byType[rec.ScoreType]; ok {
			t.add(diff, a.cfg.Tolerance)
		}
	}

	report := &types.AccuracyReport{
		OverallAccuracy:  percent(overall.accurate, overall.total),
		TotalValidations: overall.total,
		AccurateCount:    overall.accurate,
		ByCategory:       make(map[string]types.AccuracyBreakdown, len(byCategory)),
		ByScoreType:      make(map[types.ScoreType]types.AccuracyBreakdown, len(byType)),
	}
	for c, t := range byCategory {
		report.ByCategory[c] = t.breakdown()
	}
	for st, t := range byType {
		report.ByScoreType[st] = t.breakdown()
	}
	return report
}

// trend selects the snapshot rows for the requested slice (overall rows when
// category is empty) and returns them oldest first together with their mean
// confidence difference.
func trend(snapshots []types.MetricSnapshot, category string) ([]types.TrendPoint, float64) {
	points := make([]types.TrendPoint, 0, len(snapshots))
	sum := 0.0
	for _, s := range snapshots {
		if s.Category != category {
			continue
		}
		points = append(points, types.TrendPoint{
			Date:              s.MetricDate.Format(time.DateOnly),
			Accuracy:          s.AccuracyPercentage,
			TotalValidations:  s.TotalValidations,
			AverageDifference: s.AverageConfidenceDifference,
		})
		sum += s.AverageConfidenceDifference
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, mean(sum, len(points))
}

// Aggregate computes the snapshot rows for one UTC day, an overall row plus
// one per category with validated records, and writes them atomically after
// the full computation. Re-running a day replaces its rows.
func (a *Aggregator) Aggregate(ctx context.Context, day time.Time) ([]types.MetricSnapshot, error) {
	start := dayOf(day)
	end := start.AddDate(0, 0, 1)

	records, err := a.store.ListValidations(ctx, types.ValidationFilter{Since: start, Until: end})
	if err != nil {
		return nil, fmt.Errorf("list validations for %s: %w", start.Format(time.DateOnly), err)
	}

	var overall tally
	perCategory := make(map[string]*tally)
	for _, rec := range records {
		if rec.ConfidenceDifference == nil {
			continue
		}
		diff := *rec.ConfidenceDifference
		overall.add(diff, a.cfg.Tolerance)
		key := strings.TrimSpace(rec.Category)
		if key == "" {
			continue
		}
		t, ok := perCategory[key]
		if !ok {
			t = &tally{}
			perCategory[key] = t
		}
		t.add(diff, a.cfg.Tolerance)
	}

	rows := []types.MetricSnapshot{snapshot(start, "", overall)}
	categories := make([]string, 0, len(perCategory))
	for c := range perCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		rows = append(rows, snapshot(start, c, *perCategory[c]))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.store.SaveSnapshots(ctx, start, rows); err != nil {
		return nil, fmt.Errorf("save snapshots for %s: %w", start.Format(time.DateOnly), err)
	}

	a.logger.Info("accuracy snapshot written",
		zap.String("date", start.Format(time.DateOnly)),
		zap.Int("validations", overall.total),
		zap.Int("rows", len(rows)))
	return rows, nil
}

func snapshot(date time.Time, category string, t tally) types.MetricSnapshot {
	b := t.breakdown()
	return types.MetricSnapshot{
		MetricDate:                  date,
		Category:                    category,
		TotalValidations:            b.TotalValidations,
		AccuracyPercentage:          b.Accuracy,
		AverageConfidenceDifference: b.AverageDifference,
	}
}

// SubmitFeedback appends a rating from the caller to the feedback stream.
func (a *Aggregator) SubmitFeedback(ctx context.Context, caller types.Caller, req *types.FeedbackRequest) (*types.FeedbackEntry, error) {
	if caller.IsZero() {
		return nil, types.ErrNotAuthorized
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	entry := types.FeedbackEntry{
		ID:           uuid.New(),
		CandidateID:  caller.UserID,
		FeedbackType: strings.TrimSpace(req.FeedbackType),
		Rating:       req.Rating,
		FeedbackText: req.FeedbackText,
		Category:     strings.TrimSpace(req.Category),
		CreatedAt:    a.now(),
	}
	if err := a.store.InsertFeedback(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return &entry, nil
}

// ListFeedback returns feedback from the trailing period of days, newest first.
func (a *Aggregator) ListFeedback(ctx context.Context, caller types.Caller, period int) ([]types.FeedbackEntry, error) {
	if caller.IsZero() {
		return nil, types.ErrNotAuthorized
	}
	if period <= 0 {
		period = a.cfg.DefaultPeriod
	}
	if period > a.cfg.MaxPeriod {
		period = a.cfg.MaxPeriod
	}
	entries, err := a.store.ListFeedback(ctx, a.PeriodStart(period))
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	if entries == nil {
		entries = []types.FeedbackEntry{}
	}
	return entries, nil
}

// dayOf truncates t to midnight UTC.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

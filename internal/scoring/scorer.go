package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/internx-match/internal/logging"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tunes how the Scorer calls its Rater.
type Options struct {
	Timeout     time.Duration // per attempt
	MaxRetries  int           // additional attempts after the first
	Concurrency int           // responses rated at once
	RetryDelay  time.Duration // base backoff, multiplied by the attempt number
}

// DefaultOptions returns the scorer defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:     20 * time.Second,
		MaxRetries:  2,
		Concurrency: 4,
		RetryDelay:  250 * time.Millisecond,
	}
}

// Result is the aggregate of one scoring run.
type Result struct {
	Overall    float64
	ByCategory map[string]float64
	// Responses mirrors the input with Score and Analysis filled in. Score is
	// nil for responses the rater could not score.
	Responses []types.InterviewResponse
	Tags      []string
	Rated     int
	Failed    int
}

// Scorer aggregates per-response ratings into category and overall scores.
type Scorer struct {
	rater  Rater
	opts   Options
	logger *zap.Logger
}

// NewScorer creates a scorer. Zero option fields fall back to DefaultOptions.
func NewScorer(rater Rater, opts Options, logger *zap.Logger) *Scorer {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	return &Scorer{rater: rater, opts: opts, logger: logging.OrNop(logger)}
}

type rated struct {
	score    *float64
	analysis string
	tags     []string
}

// Score rates every response and aggregates the results. A response whose
// rating fails after all retries is excluded from averaging. When no
// response can be scored, including when there are none, it returns
// types.ErrScoringUnavailable.
func (s *Scorer) Score(ctx context.Context, responses []types.InterviewResponse) (*Result, error) {
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: no responses to score", types.ErrScoringUnavailable)
	}

	results := make([]rated, len(responses))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i := range responses {
		g.Go(func() error {
			results[i] = s.rateOne(ctx, responses[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrScoringUnavailable, err)
	}

	out := &Result{
		ByCategory: make(map[string]float64),
		Responses:  make([]types.InterviewResponse, len(responses)),
	}
	sums := make(map[string]float64)
	counts := make(map[string]int)
	seenTags := make(map[string]bool)

	for i, resp := range responses {
		resp.Category = CategoryOf(resp)
		resp.Score = results[i].score
		resp.Analysis = results[i].analysis
		out.Responses[i] = resp

		if resp.Score == nil {
			out.Failed++
			continue
		}
		out.Rated++
		sums[resp.Category] += *resp.Score
		counts[resp.Category]++
		for _, tag := range results[i].tags {
			if !seenTags[tag] {
				seenTags[tag] = true
				out.Tags = append(out.Tags, tag)
			}
		}
	}

	if out.Rated == 0 {
		return nil, fmt.Errorf("%w: all %d responses failed to score", types.ErrScoringUnavailable, len(responses))
	}

	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var total float64
	for _, category := range categories {
		avg := Clamp(sums[category] / float64(counts[category]))
		out.ByCategory[category] = avg
		total += avg
	}
	out.Overall = Clamp(total / float64(len(categories)))

	s.logger.Debug("scored responses",
		zap.Int("rated", out.Rated),
		zap.Int("failed", out.Failed),
		zap.Float64("overall", out.Overall))
	return out, nil
}

func (s *Scorer) rateOne(ctx context.Context, resp types.InterviewResponse) rated {
	item := Item{Question: resp.QuestionText, Answer: resp.ResponseText, Category: CategoryOf(resp)}

	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 && !s.wait(ctx, time.Duration(attempt)*s.opts.RetryDelay) {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		rating, err := s.rater.Rate(callCtx, item)
		cancel()

		if err == nil && rating != nil && !math.IsNaN(rating.Score) && !math.IsInf(rating.Score, 0) {
			score := Clamp(rating.Score)
			return rated{score: &score, analysis: rating.Analysis, tags: rating.Tags}
		}
		if err == nil {
			err = fmt.Errorf("rater returned no usable score")
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	s.logger.Warn("response could not be scored",
		zap.String("question", logging.Truncate(resp.QuestionText, 80)),
		zap.Error(lastErr))
	return rated{}
}

func (s *Scorer) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// CategoryOf returns the normalized declared category of a response.
func CategoryOf(resp types.InterviewResponse) string {
	category := strings.ToLower(strings.TrimSpace(resp.Category))
	if category == "" {
		return types.DefaultResponseCategory
	}
	return category
}

// Clamp bounds a score to [0,100].
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Summarize splits categories into strengths (at or above strong) and
// improvement areas (below weak), each sorted by name.
func Summarize(byCategory map[string]float64, strong, weak float64) (strengths, improvements []string) {
	strengths = []string{}
	improvements = []string{}
	for category, score := range byCategory {
		switch {
		case score >= strong:
			strengths = append(strengths, category)
		case score < weak:
			improvements = append(improvements, category)
		}
	}
	sort.Strings(strengths)
	sort.Strings(improvements)
	return strengths, improvements
}

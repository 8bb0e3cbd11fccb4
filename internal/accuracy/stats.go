package accuracy

import (
	"math"

	"github.com/jonathan/internx-match/internal/types"
)

// tally accumulates validated records for one slice of the stream.
type tally struct {
	total    int
	accurate int
	diffSum  float64
}

func (t *tally) add(diff float64, tolerance float64) {
	t.total++
	t.diffSum += diff
	if diff <= tolerance {
		t.accurate++
	}
}

// breakdown renders the tally with integer-rounded percentages. Zero
// denominators report 0.
func (t tally) breakdown() types.AccuracyBreakdown {
	return types.AccuracyBreakdown{
		Accuracy:          percent(t.accurate, t.total),
		TotalValidations:  t.total,
		AccurateCount:     t.accurate,
		AverageDifference: mean(t.diffSum, t.total),
	}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part) / float64(whole) * 100)
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(sum / float64(n))
}

// Difference returns |ai - human|, or nil when there is no human score.
func Difference(ai float64, human *float64) *float64 {
	if human == nil {
		return nil
	}
	d := math.Abs(ai - *human)
	return &d
}

// IsAccurate reports whether a record falls within the tolerance band.
// Records without a human score are never accurate and never counted.
func IsAccurate(rec types.ValidationRecord, tolerance float64) bool {
	return rec.ConfidenceDifference != nil && *rec.ConfidenceDifference <= tolerance
}

// summarizeFeedback computes the count, mean rounded to one decimal, and the
// 1 to 5 histogram.
func summarizeFeedback(entries []types.FeedbackEntry) types.FeedbackStats {
	stats := types.FeedbackStats{RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	sum := 0
	for _, f := range entries {
		if f.Rating < 1 || f.Rating > 5 {
			continue
		}
		stats.TotalFeedback++
		sum += f.Rating
		stats.RatingDistribution[f.Rating]++
	}
	if stats.TotalFeedback > 0 {
		stats.AverageRating = math.Round(float64(sum)/float64(stats.TotalFeedback)*10) / 10
	}
	return stats
}

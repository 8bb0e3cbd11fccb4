// Package observability provides formatted output for the CLI's report commands.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/internx-match/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxTrendRows is the number of trailing days shown in a trend
	maxTrendRows = 7
	// maxScoresToShow is the number of match scores listed
	maxScoresToShow = 10
)

// Printer writes boxed, human-readable summaries.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, inner))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		return string([]rune(s)[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-n)
}

// PrintAccuracyReport outputs the headline numbers, per-category breakdown
// and the most recent trend days of an accuracy report.
func (p *Printer) PrintAccuracyReport(r *types.AccuracyReport) {
	if r == nil {
		return
	}

	var sb strings.Builder
	scope := "all categories"
	if r.Category != "" {
		scope = r.Category
	}
	sb.WriteString(fmt.Sprintf("Period:      last %d days (%s)\n", r.Period, scope))
	sb.WriteString(fmt.Sprintf("Accuracy:    %.0f%% (%d/%d)\n", r.OverallAccuracy, r.AccurateCount, r.TotalValidations))
	sb.WriteString(fmt.Sprintf("Avg diff:    %.0f\n", r.AverageDifference))

	if len(r.ByCategory) > 0 {
		sb.WriteString("\nBy category:\n")
		for _, name := range sortedKeys(r.ByCategory) {
			b := r.ByCategory[name]
			sb.WriteString(fmt.Sprintf("  • %-24s %3.0f%%  n=%d\n", name, b.Accuracy, b.TotalValidations))
		}
	}

	if len(r.ByScoreType) > 0 {
		sb.WriteString("\nBy score type:\n")
		for _, st := range types.ScoreTypes {
			if b, ok := r.ByScoreType[st]; ok {
				sb.WriteString(fmt.Sprintf("  • %-24s %3.0f%%  n=%d\n", st, b.Accuracy, b.TotalValidations))
			}
		}
	}

	if len(r.Trend) > 0 {
		sb.WriteString("\nTrend:\n")
		start := max(0, len(r.Trend)-maxTrendRows)
		for _, tp := range r.Trend[start:] {
			sb.WriteString(fmt.Sprintf("  %s  %3.0f%%  n=%d\n", tp.Date, tp.Accuracy, tp.TotalValidations))
		}
		if start > 0 {
			sb.WriteString(fmt.Sprintf("  ... and %d earlier days\n", start))
		}
	}

	if r.Feedback.TotalFeedback > 0 {
		sb.WriteString(fmt.Sprintf("\nFeedback:    %.1f/5 from %d ratings\n", r.Feedback.AverageRating, r.Feedback.TotalFeedback))
	}

	p.printBox("ASSESSMENT ACCURACY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSnapshots outputs the rows written by one aggregation run.
func (p *Printer) PrintSnapshots(rows []types.MetricSnapshot) {
	if len(rows) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Date: %s\n\n", rows[0].MetricDate.Format("2006-01-02")))
	for _, row := range rows {
		name := row.Category
		if name == "" {
			name = "overall"
		}
		sb.WriteString(fmt.Sprintf("%-26s %3.0f%%  n=%-4d diff=%.0f\n",
			name, row.AccuracyPercentage, row.TotalValidations, row.AverageConfidenceDifference))
	}
	p.printBox("ACCURACY SNAPSHOT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatchScores outputs the best match scores with their tiers.
func (p *Printer) PrintMatchScores(scores []types.PersonalizedScore) {
	if len(scores) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(scores), maxScoresToShow)
	for _, s := range scores[:count] {
		sb.WriteString(fmt.Sprintf("%s  %5.1f  %-8s", s.PositionID.String()[:8], s.MatchScore, s.MatchLevel))
		if len(s.Factors.MatchedKeywords) > 0 {
			sb.WriteString(" " + strings.Join(s.Factors.MatchedKeywords, ", "))
		}
		sb.WriteString("\n")
	}
	if len(scores) > count {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(scores)-count))
	}
	p.printBox("MATCH SCORES", strings.TrimSuffix(sb.String(), "\n"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package matching

import (
	"math"
	"strings"

	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/types"
)

// Bonus is the category-alignment bonus for one position and its parts.
// Total is capped; the parts are not.
type Bonus struct {
	Interest        float64
	Tags            float64
	Keywords        float64
	Total           float64
	InterestMatch   bool
	MatchedTags     []string
	MatchedKeywords []string
}

// AlignmentBonus computes how well a candidate's career interests and
// interview tags line up with a position.
//
//   - Interest: a flat bonus when any career interest and the position
//     category contain one another (case-insensitive).
//   - Tags: per tag found in the description text or the category, capped.
//   - Keywords: the first keyword table entry whose key appears in the
//     category contributes per keyword contained in any interview tag.
func AlignmentBonus(cfg config.ScoringConfig, profile *types.CandidateScoreProfile, pos types.Position) Bonus {
	var b Bonus
	if profile == nil {
		return b
	}

	category := strings.ToLower(strings.TrimSpace(pos.Category))
	if category != "" {
		for _, interest := range profile.CareerInterests {
			in := strings.ToLower(strings.TrimSpace(interest))
			if in == "" {
				continue
			}
			if strings.Contains(category, in) || strings.Contains(in, category) {
				b.InterestMatch = true
				b.Interest = cfg.InterestBonus
				break
			}
		}
	}

	tags := lowerAll(profile.InterviewTags)

	description := strings.ToLower(PlainText(pos.Description))
	for i, tag := range tags {
		if tag == "" {
			continue
		}
		if strings.Contains(description, tag) || strings.Contains(category, tag) {
			b.MatchedTags = append(b.MatchedTags, profile.InterviewTags[i])
		}
	}
	b.Tags = math.Min(cfg.TagBonusCap, cfg.TagBonusPerMatch*float64(len(b.MatchedTags)))

	if entry, ok := keywordEntry(cfg.CategoryKeywords, category); ok {
		for _, kw := range entry.Keywords {
			kw = strings.ToLower(kw)
			for _, tag := range tags {
				if tag != "" && strings.Contains(tag, kw) {
					b.MatchedKeywords = append(b.MatchedKeywords, kw)
					break
				}
			}
		}
		b.Keywords = cfg.KeywordBonus * float64(len(b.MatchedKeywords))
	}

	b.Total = math.Min(cfg.BonusCap, b.Interest+b.Tags+b.Keywords)
	return b
}

// keywordEntry returns the first table entry whose key the category contains.
func keywordEntry(table []config.CategoryKeywords, category string) (config.CategoryKeywords, bool) {
	if category == "" {
		return config.CategoryKeywords{}, false
	}
	for _, entry := range table {
		if strings.Contains(category, strings.ToLower(entry.Category)) {
			return entry, true
		}
	}
	return config.CategoryKeywords{}, false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

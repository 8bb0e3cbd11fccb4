package matching

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/types"
	"github.com/stretchr/testify/assert"
)

func position(category, description string) types.Position {
	return types.Position{ID: uuid.New(), Title: "Intern", Category: category, Description: description, Active: true}
}

func TestAlignmentBonus(t *testing.T) {
	cfg := config.DefaultScoring()

	tests := []struct {
		name      string
		interests []string
		tags      []string
		pos       types.Position
		interest  float64
		tagBonus  float64
		keywords  float64
		total     float64
	}{
		{
			name:      "interest contained in category",
			interests: []string{"Technology"},
			pos:       position("Technology & Engineering", ""),
			interest:  15,
			total:     15,
		},
		{
			name:      "category contained in interest",
			interests: []string{"software engineering"},
			pos:       position("Engineering", ""),
			interest:  15,
			total:     15,
		},
		{
			name:     "tags match description and category",
			tags:     []string{"Python", "robotics", "cooking"},
			pos:      position("Robotics", "<p>Write <b>python</b> scripts</p>"),
			tagBonus: 4,
			total:    4,
		},
		{
			name:     "tag bonus capped",
			tags:     []string{"a", "b", "c", "d", "e", "f", "g"},
			pos:      position("General", "a b c d e f g"),
			tagBonus: 10,
			total:    10,
		},
		{
			name:     "keyword matched by tag substring",
			tags:     []string{"strong technical skills", "coding"},
			pos:      position("Information Technology", ""),
			keywords: 6,
			total:    6,
		},
		{
			name:      "total capped",
			interests: []string{"technology"},
			tags:      []string{"technical", "programming", "coding", "computer"},
			pos:       position("technology", "technical programming coding computer"),
			interest:  15,
			tagBonus:  8,
			keywords:  12,
			total:     25,
		},
		{
			name:      "nothing matches",
			interests: []string{"art"},
			tags:      []string{"leadership"},
			pos:       position("Healthcare", "patient intake"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &types.CandidateScoreProfile{CareerInterests: tt.interests, InterviewTags: tt.tags}
			b := AlignmentBonus(cfg, profile, tt.pos)
			assert.Equal(t, tt.interest, b.Interest)
			assert.Equal(t, tt.tagBonus, b.Tags)
			assert.Equal(t, tt.keywords, b.Keywords)
			assert.Equal(t, tt.total, b.Total)
			assert.LessOrEqual(t, b.Total, cfg.BonusCap)
		})
	}
}

func TestAlignmentBonus_FirstKeywordEntryWins(t *testing.T) {
	cfg := config.DefaultScoring()
	// "marketing design" contains both marketing and design; marketing is listed first.
	profile := &types.CandidateScoreProfile{InterviewTags: []string{"visual", "social"}}

	b := AlignmentBonus(cfg, profile, position("marketing design", ""))
	assert.Equal(t, []string{"social"}, b.MatchedKeywords)
	assert.Equal(t, 3.0, b.Keywords)
}

func TestAlignmentBonus_NilProfile(t *testing.T) {
	b := AlignmentBonus(config.DefaultScoring(), nil, position("technology", ""))
	assert.Zero(t, b.Total)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "plain words here", PlainText("  plain\n words   here "))
	assert.Equal(t, "Build apps in Go Ship weekly", PlainText("<div><p>Build apps in <em>Go</em></p><p>Ship weekly</p><script>x()</script></div>"))
	assert.Equal(t, "R&D lab", PlainText("R&amp;D lab"))
	assert.Equal(t, "", PlainText(""))
}

// Package scoring turns interview responses into category and overall scores.
// Semantic judgment is delegated to a Rater; this package owns retries,
// clamping, and aggregation.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/internx-match/internal/llm"
	"github.com/jonathan/internx-match/internal/prompts"
	"github.com/jonathan/internx-match/internal/schemas"
)

// Item is one question/answer pair to rate.
type Item struct {
	Question string
	Answer   string
	Category string
}

// Rating is a rater's raw verdict. Score may fall outside [0,100]; the
// Scorer clamps it.
type Rating struct {
	Score    float64  `json:"score"`
	Analysis string   `json:"analysis"`
	Tags     []string `json:"tags,omitempty"`
}

// Rater rates a single response.
type Rater interface {
	Rate(ctx context.Context, item Item) (*Rating, error)
}

// LLMRater rates responses with the reasoning service.
type LLMRater struct {
	client llm.Client
	tier   llm.ModelTier
	schema *schemas.Validator
}

// NewLLMRater returns a rater that asks client's model for tier. It fails
// if the embedded rating schema cannot be loaded.
func NewLLMRater(client llm.Client, tier llm.ModelTier) (*LLMRater, error) {
	schema, err := schemas.Get(schemas.ResponseRating)
	if err != nil {
		return nil, err
	}
	return &LLMRater{client: client, tier: tier, schema: schema}, nil
}

// Rate asks the model for a JSON rating and validates it against the rating schema.
func (r *LLMRater) Rate(ctx context.Context, item Item) (*Rating, error) {
	category := item.Category
	if category == "" {
		category = "general"
	}
	answer := strings.TrimSpace(item.Answer)
	if answer == "" {
		answer = "(no answer given)"
	}

	prompt, err := prompts.Render(prompts.RateResponse, map[string]string{
		"Question": item.Question,
		"Answer":   answer,
		"Category": category,
		"Schema":   r.schema.Raw(),
	})
	if err != nil {
		return nil, err
	}

	raw, err := r.client.GenerateJSON(ctx, prompt, r.tier)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}
	raw = llm.ExtractJSONObject(raw)

	if err := r.schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("rating does not match schema: %w", err)
	}

	var rating Rating
	if err := json.Unmarshal([]byte(raw), &rating); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w (content: %s)", err, raw)
	}
	rating.Tags = normalizeTags(rating.Tags)
	return &rating, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

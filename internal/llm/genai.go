package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used by GenAIClient.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIClient implements Client on the google.golang.org/genai SDK.
type GenAIClient struct {
	models contentGenerator
	config *Config
}

// NewGenAIClient creates a client for the Gemini API backend.
func NewGenAIClient(ctx context.Context, cfg *Config, apiKey string) (*GenAIClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIClient{models: client.Models, config: cfg}, nil
}

// GenerateJSON generates JSON content using the specified model tier
func (c *GenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	gc := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.config.Temperature),
		ResponseMIMEType: "application/json",
	}

	ctx, cancel := c.config.withTimeout(ctx)
	defer cancel()

	resp, err := c.models.GenerateContent(ctx, modelName, genai.Text(prompt), gc)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text, err := textFromGenAIResponse(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *GenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the genai client holds no releasable resources.
func (c *GenAIClient) Close() error {
	return nil
}

func textFromGenAIResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != "BLOCKED_REASON_UNSPECIFIED" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, fb.BlockReason)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
		if builder.Len() > 0 {
			break
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ErrEmptyResponse
	}
	return output, nil
}

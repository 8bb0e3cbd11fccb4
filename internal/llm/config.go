// Package llm provides the reasoning-service client used to rate interview
// responses, with model tiers and two Gemini SDK backends.
package llm

import (
	"time"

	"github.com/jonathan/internx-match/internal/config"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite rates responses when a session completes.
	TierLite ModelTier = "lite"
	// TierStandard re-rates the responses of a completed session.
	TierStandard ModelTier = "standard"
)

// Provider selects the SDK used to reach the model.
type Provider string

const (
	// ProviderGemini uses github.com/google/generative-ai-go.
	ProviderGemini Provider = "gemini"
	// ProviderGenAI uses google.golang.org/genai.
	ProviderGenAI Provider = "genai"
)

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
	Timeout     time.Duration
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
		Temperature: 0.1,
		Timeout:     20 * time.Second,
	}
}

// FromSettings builds a Config from application settings. Model overrides
// the lite tier used on completion; RescoreModel overrides the standard tier.
func FromSettings(s config.LLMConfig) *Config {
	cfg := DefaultConfig()
	if s.Provider != "" {
		cfg.Provider = Provider(s.Provider)
	}
	if s.Model != "" {
		cfg = cfg.WithModel(TierLite, s.Model)
	}
	if s.RescoreModel != "" {
		cfg = cfg.WithModel(TierStandard, s.RescoreModel)
	}
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	clone := *c
	clone.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		clone.Models[k] = v
	}
	clone.Models[tier] = model
	return &clone
}

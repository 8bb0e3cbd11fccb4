package llm

import (
	"testing"
	"time"

	"github.com/jonathan/internx-match/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", cfg.GetModel(TierStandard))
	assert.Len(t, cfg.Models, 2)
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.LLMConfig{Provider: "genai", Model: "gemini-custom", Timeout: 5 * time.Second})

	assert.Equal(t, ProviderGenAI, cfg.Provider)
	assert.Equal(t, "gemini-custom", cfg.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", cfg.GetModel(TierStandard))
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	rescore := FromSettings(config.LLMConfig{RescoreModel: "gemini-2.5-pro"})
	assert.Equal(t, "gemini-2.5-flash-lite", rescore.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-pro", rescore.GetModel(TierStandard))

	defaults := FromSettings(config.LLMConfig{})
	assert.Equal(t, DefaultConfig(), defaults)
}

func TestGetModel_Fallback(t *testing.T) {
	cfg := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", cfg.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	cfg := &Config{Provider: ProviderGemini, Models: map[ModelTier]string{}}
	assert.Equal(t, "", cfg.GetModel(TierStandard))
}

func TestWithModel(t *testing.T) {
	cfg := DefaultConfig()
	updated := cfg.WithModel(TierStandard, "custom-model")

	assert.Equal(t, "gemini-2.5-flash", cfg.GetModel(TierStandard))
	assert.Equal(t, "custom-model", updated.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-flash-lite", updated.GetModel(TierLite))
	assert.Equal(t, cfg.Temperature, updated.Temperature)
}

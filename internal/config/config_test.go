package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.False(t, cfg.Scheduler.Enabled)

	assert.Equal(t, DefaultScoring(), cfg.Scoring)
	assert.Equal(t, DefaultAccuracy(), cfg.Accuracy)
}

func TestLoad_YAMLFile(t *testing.T) {
	content := `
server:
  port: 9090
store:
  driver: sqlite
  sqlite_path: /tmp/internx-test.db
llm:
  provider: genai
  timeout: 5s
scoring:
  neutral_prior: 60
  category_keywords:
    - category: robotics
      keywords: [hardware, building]
  profile_dimensions:
    skill: [robotics, Technical]
accuracy:
  tolerance: 5
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/internx-test.db", cfg.Store.SQLitePath)
	assert.Equal(t, ProviderGenAI, cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 60.0, cfg.Scoring.NeutralPrior)
	assert.Equal(t, 25.0, cfg.Scoring.BonusCap)
	require.Len(t, cfg.Scoring.CategoryKeywords, 1)
	assert.Equal(t, "robotics", cfg.Scoring.CategoryKeywords[0].Category)
	assert.Equal(t, []string{"hardware", "building"}, cfg.Scoring.CategoryKeywords[0].Keywords)
	assert.Equal(t, []string{"robotics", "Technical"}, cfg.Scoring.ProfileDimensions[DimensionSkill])
	assert.Equal(t, DefaultProfileDimensions()[DimensionPersonality], cfg.Scoring.ProfileDimensions[DimensionPersonality])
	assert.Equal(t, 5.0, cfg.Accuracy.Tolerance)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INTERNX_SERVER_PORT", "7070")
	t.Setenv("INTERNX_STORE_DATABASE_URL", "postgres://localhost/internx")
	t.Setenv("INTERNX_LLM_API_KEY", "key-from-env")
	t.Setenv("INTERNX_SCHEDULER_ENABLED", "true")
	t.Setenv("INTERNX_SCHEDULER_INTERVAL", "15m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/internx", cfg.Store.DatabaseURL)
	assert.Equal(t, "key-from-env", cfg.LLM.APIKey)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.NoError(t, cfg.RequireDatabaseURL())
	assert.NoError(t, cfg.RequireLLM())
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad driver", env: map[string]string{"INTERNX_STORE_DRIVER": "mongo"}, wantErr: "unknown store driver"},
		{name: "bad provider", env: map[string]string{"INTERNX_LLM_PROVIDER": "openai"}, wantErr: "unknown llm provider"},
		{name: "bad port", env: map[string]string{"INTERNX_SERVER_PORT": "70000"}, wantErr: "server.port"},
		{name: "zero concurrency", env: map[string]string{"INTERNX_LLM_CONCURRENCY": "0"}, wantErr: "llm.concurrency"},
		{name: "period beyond max", env: map[string]string{"INTERNX_ACCURACY_DEFAULT_PERIOD": "400"}, wantErr: "accuracy.default_period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("")
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireChecks(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Driver: DriverPostgres}}
	assert.Error(t, cfg.RequireDatabaseURL())
	assert.Error(t, cfg.RequireLLM())

	cfg.Store.Driver = DriverSQLite
	assert.NoError(t, cfg.RequireDatabaseURL())
}

func TestScoringConfig_Validate(t *testing.T) {
	s := DefaultScoring()
	assert.NoError(t, s.Validate())

	bad := DefaultScoring()
	bad.ModerateThreshold = 90
	assert.Error(t, bad.Validate())

	bad = DefaultScoring()
	bad.NeutralPrior = 120
	assert.Error(t, bad.Validate())

	bad = DefaultScoring()
	bad.CategoryKeywords = []CategoryKeywords{{Keywords: []string{"x"}}}
	assert.Error(t, bad.Validate())

	bad = DefaultScoring()
	bad.ProfileDimensions["curiosity"] = []string{"questions"}
	assert.ErrorContains(t, bad.Validate(), `unknown profile dimension "curiosity"`)

	bad = DefaultScoring()
	bad.ProfileDimensions[DimensionExperience] = []string{"experience", "Teamwork"}
	assert.ErrorContains(t, bad.Validate(), `category "teamwork" is mapped to both`)
}

func TestDefaultCategoryKeywords_Order(t *testing.T) {
	table := DefaultCategoryKeywords()
	require.Len(t, table, 6)
	assert.Equal(t, "technology", table[0].Category)
	assert.Equal(t, []string{"technical", "programming", "coding", "computer"}, table[0].Keywords)
	assert.Equal(t, "finance", table[5].Category)
}

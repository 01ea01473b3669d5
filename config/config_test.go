package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/trips")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 3, cfg.RankingBatchSize)
	assert.Equal(t, 24*time.Hour, cfg.RankingJobInterval)
	assert.Equal(t, 20*time.Second, cfg.SentimentTimeout)
	assert.Equal(t, defaultSentimentBaseURL, cfg.SentimentBaseURL)
	assert.True(t, cfg.CountByeWins)
	assert.False(t, cfg.R2Enabled())
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RANKING_BATCH_SIZE", "5")
	t.Setenv("RANKING_JOB_INTERVAL", "6h")
	t.Setenv("SENTIMENT_TIMEOUT_MS", "1500")
	t.Setenv("COUNT_BYE_WINS", "false")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "id")
	t.Setenv("R2_SECRET_ACCESS_KEY", "sekrit")
	t.Setenv("R2_BUCKET_NAME", "rankings")
	t.Setenv("R2_PUBLIC_BASE_URL", "https://cdn.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, ,https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 5, cfg.RankingBatchSize)
	assert.Equal(t, 6*time.Hour, cfg.RankingJobInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.SentimentTimeout)
	assert.False(t, cfg.CountByeWins)
	assert.True(t, cfg.R2Enabled())
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":          "70000",
		"RANKING_BATCH_SIZE":   "0",
		"RANKING_JOB_INTERVAL": "daily",
		"SENTIMENT_TIMEOUT_MS": "-1",
		"SENTIMENT_RPS":        "fast",
		"COUNT_BYE_WINS":       "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET_KEY", "secret")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/trips")
	t.Setenv("JWT_SECRET_KEY", "")
	_, err = Load()
	assert.Error(t, err)
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultSentimentBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Config holds every runtime setting of the service.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	AllowedOrigins []string

	SentimentAPIKey  string
	SentimentBaseURL string
	SentimentModel   string
	SentimentTimeout time.Duration
	SentimentRPS     float64

	RankingBatchSize   int
	RankingJobInterval time.Duration
	CountByeWins       bool

	RedisURL        string
	RankingCacheTTL time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// R2Enabled reports whether snapshot publishing is fully configured.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecretKey:      os.Getenv("JWT_SECRET_KEY"),
		SentimentAPIKey:   os.Getenv("SENTIMENT_API_KEY"),
		SentimentBaseURL:  getEnvOrDefault("SENTIMENT_BASE_URL", defaultSentimentBaseURL),
		SentimentModel:    getEnvOrDefault("SENTIMENT_MODEL", "gemini-2.0-flash"),
		RedisURL:          os.Getenv("REDIS_URL"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	var err error
	if cfg.ServerPort, err = intEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	timeoutMS, err := intEnv("SENTIMENT_TIMEOUT_MS", 20000)
	if err != nil {
		return nil, err
	}
	if timeoutMS <= 0 {
		return nil, fmt.Errorf("SENTIMENT_TIMEOUT_MS must be positive, got %d", timeoutMS)
	}
	cfg.SentimentTimeout = time.Duration(timeoutMS) * time.Millisecond

	if cfg.SentimentRPS, err = floatEnv("SENTIMENT_RPS", 1); err != nil {
		return nil, err
	}
	if cfg.SentimentRPS < 0 {
		return nil, fmt.Errorf("SENTIMENT_RPS must not be negative, got %v", cfg.SentimentRPS)
	}

	if cfg.RankingBatchSize, err = intEnv("RANKING_BATCH_SIZE", 3); err != nil {
		return nil, err
	}
	if cfg.RankingBatchSize <= 0 {
		return nil, fmt.Errorf("RANKING_BATCH_SIZE must be positive, got %d", cfg.RankingBatchSize)
	}

	if cfg.RankingJobInterval, err = durationEnv("RANKING_JOB_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RankingCacheTTL, err = durationEnv("RANKING_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CountByeWins, err = boolEnv("COUNT_BYE_WINS", true); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func floatEnv(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, v)
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

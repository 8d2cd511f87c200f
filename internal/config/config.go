package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP API settings
	Port           string
	RequestTimeout time.Duration // hard timeout for the /content path

	// Pipeline settings
	FeedsConfigPath string
	UpdateInterval  time.Duration
	MinConfidence   int // 0 selects "first unprocessed item" mode
	DefaultLanguage string
	Languages       []string // locale codes served by the API

	// Collaborator credentials
	GeminiAPIKey      string
	UnsplashAccessKey string
	YouTubeAPIKey     string

	// Video search quota
	VideoDailyQuota int // units per calendar day

	// Storage settings
	DatabaseURL string

	// Retry settings for store writes
	RetryAttempts int
	RetryDelay    time.Duration

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		Port:            "3000",
		RequestTimeout:  10 * time.Second,
		FeedsConfigPath: "configs/feeds.yaml",
		UpdateInterval:  time.Minute,
		MinConfidence:   60,
		DefaultLanguage: "en",
		VideoDailyQuota: 10000,
		RetryAttempts:   3,
		RetryDelay:      5 * time.Second,
	}

	// Load from environment
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.UnsplashAccessKey = os.Getenv("UNSPLASH_ACCESS_KEY")
	cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)

	if v := os.Getenv("UPDATE_INTERVAL_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.UpdateInterval = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("MIN_CONFIDENCE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 && val <= 100 {
			cfg.MinConfidence = val
		}
	}
	if v := os.Getenv("DEFAULT_LANGUAGE"); v != "" {
		cfg.DefaultLanguage = v
	}
	if v := os.Getenv("SUPPORTED_LANGUAGES"); v != "" {
		for _, lang := range strings.Split(v, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				cfg.Languages = append(cfg.Languages, lang)
			}
		}
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{cfg.DefaultLanguage}
	}

	cfg.VideoDailyQuota = getEnvIntOrDefault("VIDEO_DAILY_QUOTA", cfg.VideoDailyQuota)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)

	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("RETRY_DELAY_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RetryDelay = time.Duration(val) * time.Second
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.VideoDailyQuota < 0 {
		return fmt.Errorf("VIDEO_DAILY_QUOTA must not be negative")
	}
	return nil
}

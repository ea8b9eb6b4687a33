package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the pre-screening service.
type Config struct {
	Port        string
	LogLevel    string
	Environment string

	// DatabaseURL is optional. When empty the service runs without record
	// persistence (records are still built and returned to the caller).
	DatabaseURL string

	// AI provider selection: "gemini" (default) or "openai".
	AIProvider   string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	DoctorsCSVPath     string
	DiagnosticsCSVPath string

	SessionTTL time.Duration

	// Interview policy knobs. These are observed operating values, not
	// protocol constants; deployments may tune them.
	FirstVisitMaxQuestions       int
	FirstVisitMaxUnknowns        int
	FollowupMaxQuestions         int
	FollowupMaxUnknowns          int
	FollowupEarlyCompletionAfter int
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*Config, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.AIProvider = strings.ToLower(getEnv("AI_PROVIDER", "gemini"))
	switch cfg.AIProvider {
	case "gemini", "openai":
	default:
		return nil, fmt.Errorf("invalid AI_PROVIDER %q (expected gemini or openai)", cfg.AIProvider)
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", "gpt-4o-mini")

	if cfg.AIProvider == "gemini" && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	cfg.DoctorsCSVPath = getEnv("DOCTORS_CSV_PATH", "DepartmentswithDoctors.csv")
	cfg.DiagnosticsCSVPath = getEnv("DIAGNOSTICS_CSV_PATH", "pre-diagnostics.csv")

	ttlSeconds, err := getEnvInt("SESSION_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = time.Duration(ttlSeconds) * time.Second

	if cfg.FirstVisitMaxQuestions, err = getEnvInt("FIRSTVISIT_MAX_QUESTIONS", 6); err != nil {
		return nil, err
	}
	if cfg.FirstVisitMaxUnknowns, err = getEnvInt("FIRSTVISIT_MAX_UNKNOWNS", 2); err != nil {
		return nil, err
	}
	if cfg.FollowupMaxQuestions, err = getEnvInt("FOLLOWUP_MAX_QUESTIONS", 6); err != nil {
		return nil, err
	}
	if cfg.FollowupMaxUnknowns, err = getEnvInt("FOLLOWUP_MAX_UNKNOWNS", 3); err != nil {
		return nil, err
	}
	if cfg.FollowupEarlyCompletionAfter, err = getEnvInt("FOLLOWUP_EARLY_COMPLETION_AFTER", 4); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

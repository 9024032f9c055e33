package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	Env             string

	LLMProvider        string
	GeminiAPIKey       string
	LLMModel           string
	AnalysisVersion    string
	QueuePollInterval  time.Duration
	AnalysisDelay      time.Duration
	ConversationDelay  time.Duration
	SweepInterval      time.Duration
	SweepLimit         int
	ConversationMinMsg int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,
		Env:             env,

		LLMProvider:        normalizeProvider(getEnv("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "gemini-2.5-flash"),
		AnalysisVersion:    getEnv("ANALYSIS_VERSION", "gemini:v1"),
		QueuePollInterval:  getEnvDuration("QUEUE_POLL_INTERVAL", 2*time.Second),
		AnalysisDelay:      getEnvDuration("ANALYSIS_DELAY", 5*time.Second),
		ConversationDelay:  getEnvDuration("CONVERSATION_ANALYSIS_DELAY", 5*time.Second),
		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		SweepLimit:         getEnvInt("SWEEP_LIMIT", 50),
		ConversationMinMsg: getEnvInt("CONVERSATION_MIN_MESSAGES", 3),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using default", key, raw)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: %s invalid duration %q, using default", key, raw)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "keyword", "local":
		return "keyword"
	default:
		return "gemini"
	}
}

package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// JWT
	JWTSecret string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeoutSec  int

	// Analysis batch quota (per user, rolling hour)
	BatchRateLimit int

	// HTTP rate limit (per client, per minute)
	HTTPRateLimit int

	// Prompt cache
	PromptCacheTTLMin int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "napoleon"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.2),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 60),

		BatchRateLimit: getEnvInt("BATCH_RATE_LIMIT", 12),
		HTTPRateLimit:  getEnvInt("HTTP_RATE_LIMIT", 300),

		PromptCacheTTLMin: getEnvInt("PROMPT_CACHE_TTL_MIN", 60),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

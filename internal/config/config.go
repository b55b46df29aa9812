package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	// Realtime fan-out; empty selects the in-process hub
	RedisURL string
	// Workspace editing
	AutosaveDebounce time.Duration
	DefaultLanguage  string
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		SupabaseURL:      supabaseURL,
		SupabaseKey:      getEnv("SUPABASE_KEY", ""),
		SupabaseDBURL:    getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL:  jwksURL,
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:5173"),
		TablePrefix:      tablePrefix,
		RedisURL:         getEnv("REDIS_URL", ""),
		AutosaveDebounce: time.Duration(getEnvInt("AUTOSAVE_DEBOUNCE_MS", DefaultAutosaveDebounceMS)) * time.Millisecond,
		DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "en"),
		LogDir:           getEnv("LOG_DIR", ""),
		LogMaxFiles:      getEnvInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer env var, falling back to defaultValue when
// unset, malformed or not positive.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	CORSAllowedOrigins []string

	// Per-IP rate limiting on the clinic API
	RateLimitRPS   int
	RateLimitBurst int

	// Session validation
	SessionJWTSecret string

	// Clinicorp integration
	ClinicorpProxyURL       string
	ClinicorpTimeout        time.Duration
	ClinicorpMaxRetries     int
	ClinicorpRetryDelay     time.Duration
	ClinicorpReloadDebounce time.Duration
	// ClinicorpDefaultProfessional labels synthesized schedule entries when
	// the upstream only reports aggregate counts.
	ClinicorpDefaultProfessional string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),

		SessionJWTSecret: getEnv("SESSION_JWT_SECRET", ""),

		ClinicorpProxyURL:            getEnv("CLINICORP_PROXY_URL", ""),
		ClinicorpTimeout:             getEnvAsDuration("CLINICORP_TIMEOUT", 15*time.Second),
		ClinicorpMaxRetries:          getEnvAsInt("CLINICORP_MAX_RETRIES", 1),
		ClinicorpRetryDelay:          getEnvAsDuration("CLINICORP_RETRY_DELAY", 2*time.Second),
		ClinicorpReloadDebounce:      getEnvAsDuration("CLINICORP_RELOAD_DEBOUNCE", 3*time.Second),
		ClinicorpDefaultProfessional: getEnv("CLINICORP_DEFAULT_PROFESSIONAL", "Professional"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable as a slice
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

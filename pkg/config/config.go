// Package config loads service settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables take precedence over it.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the complete service configuration. Durations are already
// converted from their *_SECONDS variables.
type Config struct {
	Port int

	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string
	CompletionTimeout time.Duration

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	SpotifyMarket       string
	SpotifyRateLimit    float64
	SpotifyTimeout      time.Duration

	SessionSecret string
	FrontendURL   string
	CORSOrigins   []string

	LogLevel  string
	LogFormat string

	CacheBackend string
	CacheTTL     time.Duration

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	DatabaseDriver string
	DatabaseURL    string
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnvAsIntWithDefault("PORT", 5001),

		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:       os.Getenv("OPENAI_MODEL"),
		CompletionTimeout: time.Duration(getEnvAsIntWithDefault("COMPLETION_TIMEOUT_SECONDS", 30)) * time.Second,

		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURI:  getEnvWithDefault("SPOTIFY_REDIRECT_URI", "http://127.0.0.1:5001/auth/callback"),
		SpotifyMarket:       getEnvWithDefault("SPOTIFY_MARKET", "US"),
		SpotifyRateLimit:    getEnvAsFloatWithDefault("SPOTIFY_RATE_LIMIT", 0),
		SpotifyTimeout:      time.Duration(getEnvAsIntWithDefault("SPOTIFY_TIMEOUT_SECONDS", 15)) * time.Second,

		SessionSecret: os.Getenv("SESSION_SECRET"),
		FrontendURL:   strings.TrimRight(getEnvWithDefault("FRONTEND_URL", "http://localhost:3000"), "/"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		CacheBackend: strings.ToLower(getEnvWithDefault("CACHE_BACKEND", "memory")),
		CacheTTL:     time.Duration(getEnvAsIntWithDefault("CACHE_TTL_SECONDS", 3600)) * time.Second,

		RedisHost:     getEnvWithDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvAsIntWithDefault("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsIntWithDefault("REDIS_DB", 0),

		DatabaseDriver: getEnvWithDefault("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = getEnvWithDefault("DATABASE_PATH", "crate.db")
	}
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{cfg.FrontendURL}
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
		log.Warn("SESSION_SECRET not set; using a random secret, OAuth state will not survive restarts")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.CompletionTimeout <= 0 {
		return errors.New("COMPLETION_TIMEOUT_SECONDS must be positive")
	}
	if c.SpotifyTimeout <= 0 {
		return errors.New("SPOTIFY_TIMEOUT_SECONDS must be positive")
	}
	if c.SpotifyRateLimit < 0 {
		return errors.New("SPOTIFY_RATE_LIMIT must not be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	switch c.CacheBackend {
	case "memory", "redis", "sql", "none":
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory, redis, sql or none, got %q", c.CacheBackend)
	}
	if c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL_SECONDS must be positive")
	}
	switch c.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite3 or postgres, got %q", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for postgres")
	}
	return nil
}

// AIEnabled reports whether a completion API key is configured.
func (c *Config) AIEnabled() bool { return c.OpenAIKey != "" }

// SpotifyConfigured reports whether catalog credentials are present.
func (c *Config) SpotifyConfigured() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.WithField("key", key).Warnf("invalid integer %q, using default %d", valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloatWithDefault(key string, defaultValue float64) float64 {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.WithField("key", key).Warnf("invalid number %q, using default %v", valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimRight(strings.TrimSpace(part), "/"); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("config: read random: %v", err))
	}
	return hex.EncodeToString(b)
}

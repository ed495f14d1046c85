package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// CarSizeMarkupBps is the XL vehicle surcharge in basis points.
	CarSizeMarkupBps int

	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	OrderLockTTL    time.Duration

	// QuoteListLimit is the default page size of the saved-quote listing;
	// QuoteListMax caps what a client may request.
	QuoteListLimit int
	QuoteListMax   int

	PreviewRateWindow time.Duration
	PreviewRateMax    int

	StudioName    string
	StudioAddress string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CarSizeMarkupBps:   parseInt(k.String("PRICING_XL_MARKUP_BPS"), 3000),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		OrderLockTTL:       parseDuration(k.String("ORDER_LOCK_TTL"), "5s"),
		QuoteListLimit:     parseInt(k.String("QUOTE_LIST_LIMIT"), 20),
		QuoteListMax:       parseInt(k.String("QUOTE_LIST_MAX"), 100),
		PreviewRateWindow:  parseDuration(k.String("PREVIEW_RATE_WINDOW"), "1s"),
		PreviewRateMax:     parseInt(k.String("PREVIEW_RATE_MAX"), 30),
		StudioName:         valueOrDefault(k.String("STUDIO_NAME"), "Studio"),
		StudioAddress:      k.String("STUDIO_ADDRESS"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.CarSizeMarkupBps < 0 {
		return nil, errors.New("PRICING_XL_MARKUP_BPS must not be negative")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func parseDuration(value, fallback string) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests runs Load with the given variables applied, restoring the
// previous environment afterwards.
func LoadForTests(env map[string]string) (*Config, error) {
	saved := map[string]string{}
	for key, value := range env {
		saved[key] = os.Getenv(key)
		if err := setEnvVar(key, value); err != nil {
			return nil, err
		}
	}
	defer func() {
		for key, value := range saved {
			_ = setEnvVar(key, value)
		}
	}()
	return Load()
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/studio",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 3000, cfg.CarSizeMarkupBps)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, 5*time.Second, cfg.OrderLockTTL)
	require.Equal(t, time.Second, cfg.PreviewRateWindow)
	require.Equal(t, 30, cfg.PreviewRateMax)
	require.Equal(t, "Studio", cfg.StudioName)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":          "postgres://localhost:5432/studio",
		"REDIS_URL":             "redis://localhost:6379/0",
		"PORT":                  "9000",
		"PRICING_XL_MARKUP_BPS": "2500",
		"CATALOG_CACHE_TTL":     "90s",
		"CORS_ALLOWED_ORIGINS":  "https://studio.example, https://admin.example",
		"STUDIO_NAME":           "Vacek Detailing",
	})
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, 2500, cfg.CarSizeMarkupBps)
	require.Equal(t, 90*time.Second, cfg.CatalogCacheTTL)
	require.Equal(t, []string{"https://studio.example", "https://admin.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, "Vacek Detailing", cfg.StudioName)
}

func TestLoadRequiresDatabaseAndRedis(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.Error(t, err)

	_, err = LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/studio",
		"REDIS_URL":    "",
	})
	require.Error(t, err)
}

func TestLoadRejectsNegativeMarkup(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL":          "postgres://localhost:5432/studio",
		"REDIS_URL":             "redis://localhost:6379/0",
		"PRICING_XL_MARKUP_BPS": "-10",
	})
	require.Error(t, err)
}
